package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the actor role handed to every operation by the session layer.
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleProvider
}

// Actor is the authenticated identity handed to every operation by the
// session layer. The core trusts it and checks only ownership and
// role-appropriate transitions.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Role      Role      `db:"role" json:"role"`
	Currency  string    `db:"currency" json:"currency"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
