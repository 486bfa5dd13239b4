package booking

import (
	"sort"
	"time"

	"github.com/hireside/marketplace-api/internal/model"
)

// recentLimit caps the recent partition; it is a display convenience,
// not an audit log.
const recentLimit = 10

// BuildDashboard derives the provider dashboard from the provider's
// full booking set and the current time. It is a pure function: all
// partitions and stats are recomputed on every read, nothing is stored.
//
// Revenue sums only completed bookings, in the provider's nominal
// currency. Prices in any other currency are never converted or
// silently added; they are skipped.
func BuildDashboard(bookings []*model.Booking, now time.Time, currency string) *model.ProviderDashboard {
	dashboard := &model.ProviderDashboard{
		Stats:    model.DashboardStats{Currency: currency},
		Upcoming: []*model.BookingView{},
		Pending:  []*model.PendingBooking{},
		Today:    []*model.BookingView{},
		Recent:   []*model.BookingView{},
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	for _, b := range bookings {
		dashboard.Stats.Total++
		switch b.Status {
		case model.BookingStatusPending:
			dashboard.Stats.Pending++
			dashboard.Pending = append(dashboard.Pending, pendingView(b))
		case model.BookingStatusConfirmed:
			dashboard.Stats.Confirmed++
			if b.ScheduledAt.After(now) {
				dashboard.Upcoming = append(dashboard.Upcoming, view(b, model.RoleProvider))
			}
		case model.BookingStatusCompleted:
			dashboard.Stats.Completed++
			if b.Price != nil && b.Currency == currency {
				dashboard.Stats.Revenue += *b.Price
			}
		}

		if IsTerminal(b.Status) {
			dashboard.Recent = append(dashboard.Recent, view(b, model.RoleProvider))
		}

		if !b.ScheduledAt.Before(startOfDay) && b.ScheduledAt.Before(endOfDay) {
			dashboard.Today = append(dashboard.Today, view(b, model.RoleProvider))
		}
	}

	sort.Slice(dashboard.Upcoming, func(i, j int) bool {
		return dashboard.Upcoming[i].ScheduledAt.Before(dashboard.Upcoming[j].ScheduledAt)
	})
	// Oldest pending request first, fairness to earliest clients.
	sort.Slice(dashboard.Pending, func(i, j int) bool {
		return dashboard.Pending[i].CreatedAt.Before(dashboard.Pending[j].CreatedAt)
	})
	sort.Slice(dashboard.Today, func(i, j int) bool {
		return dashboard.Today[i].ScheduledAt.Before(dashboard.Today[j].ScheduledAt)
	})
	sort.Slice(dashboard.Recent, func(i, j int) bool {
		return dashboard.Recent[i].UpdatedAt.After(dashboard.Recent[j].UpdatedAt)
	})
	if len(dashboard.Recent) > recentLimit {
		dashboard.Recent = dashboard.Recent[:recentLimit]
	}

	return dashboard
}

func pendingView(b *model.Booking) *model.PendingBooking {
	return &model.PendingBooking{
		ID:                b.ID,
		ClientID:          b.ClientID,
		ProviderServiceID: b.ProviderServiceID,
		ScheduledAt:       b.ScheduledAt,
		DurationMinutes:   b.DurationMinutes,
		Price:             b.Price,
		Currency:          b.Currency,
		CreatedAt:         b.CreatedAt,
	}
}
