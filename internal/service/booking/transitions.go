package booking

import (
	"github.com/hireside/marketplace-api/internal/model"
)

type roleSet map[model.Role]struct{}

func roles(rs ...model.Role) roleSet {
	set := make(roleSet, len(rs))
	for _, r := range rs {
		set[r] = struct{}{}
	}
	return set
}

// transitions is the single source of truth for booking lifecycle
// legality. UI action flags and server-side authorization both derive
// from this table so they cannot drift.
var transitions = map[model.BookingStatus]map[model.BookingStatus]roleSet{
	model.BookingStatusPending: {
		model.BookingStatusConfirmed: roles(model.RoleProvider),
		model.BookingStatusRejected:  roles(model.RoleProvider),
		model.BookingStatusCancelled: roles(model.RoleClient),
	},
	model.BookingStatusConfirmed: {
		model.BookingStatusInProgress: roles(model.RoleProvider),
		model.BookingStatusCancelled:  roles(model.RoleClient, model.RoleProvider),
	},
	model.BookingStatusInProgress: {
		model.BookingStatusCompleted: roles(model.RoleProvider),
	},
}

// IsTerminal reports whether status has no outgoing edges.
func IsTerminal(status model.BookingStatus) bool {
	switch status {
	case model.BookingStatusCompleted, model.BookingStatusCancelled, model.BookingStatusRejected:
		return true
	}
	return false
}

// CanTransition reports whether (from, to) is a legal edge for role.
func CanTransition(from, to model.BookingStatus, role model.Role) bool {
	edges, ok := transitions[from]
	if !ok {
		return false
	}
	allowed, ok := edges[to]
	if !ok {
		return false
	}
	_, ok = allowed[role]
	return ok
}

// AllowedActions derives the caller-facing action flags from the
// transition table: canUpdate means at least one outgoing edge is
// available to role, canCancel that a cancelled edge is.
func AllowedActions(status model.BookingStatus, role model.Role) (canUpdate, canCancel bool) {
	for to, allowed := range transitions[status] {
		if _, ok := allowed[role]; !ok {
			continue
		}
		canUpdate = true
		if to == model.BookingStatusCancelled {
			canCancel = true
		}
	}
	return canUpdate, canCancel
}
