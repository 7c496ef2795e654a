// Package records defines the ports to the attendance record store, the
// system of record for users, day statuses and salary slips.
package records

import (
	"context"

	"pamadmin/internal/core"
)

// Ports for outbound adapters.
type (
	UserLister interface {
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	UserReader interface {
		// GetUser returns a *core.NotFoundError for unknown ids.
		GetUser(ctx context.Context, id string) (core.User, error)
	}

	UserWriter interface {
		CreateUser(ctx context.Context, u core.NewUser) (core.User, error)
		UpdateUser(ctx context.Context, id string, u core.UserUpdate) (core.User, error)
	}

	// MonthStatusReader returns the working days of a month and every
	// user's day map for it.
	MonthStatusReader interface {
		MonthStatus(ctx context.Context, m core.Month) (core.MonthStatus, error)
	}

	// StatusUpdater overrides one user's status on one working day.
	// Unknown users or non-working days yield a *core.NotFoundError.
	StatusUpdater interface {
		UpdateStatus(ctx context.Context, c core.StatusChange) error
	}

	// ClockLogReader returns every raw clock event of one user. Unknown
	// users yield a *core.NotFoundError.
	ClockLogReader interface {
		ClockLog(ctx context.Context, userID string) (core.ClockLog, error)
	}

	SalaryReader interface {
		SalarySlip(ctx context.Context, userID string, m core.Month) (core.SalarySlip, error)
	}

	// Store is the full attendance record store.
	Store interface {
		UserLister
		UserReader
		UserWriter
		MonthStatusReader
		StatusUpdater
		ClockLogReader
		SalaryReader
	}
)
