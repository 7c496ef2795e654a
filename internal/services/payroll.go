package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"pamadmin/internal/core"
	"pamadmin/internal/log"
	"pamadmin/internal/records"
	"pamadmin/internal/session"
)

type PayrollStore interface {
	records.UserLister
	records.SalaryReader
}

// SlipFailure names a user whose slip could not be loaded.
type SlipFailure struct {
	UserID   string
	UserName string
	Err      error
}

// PayrollReport lists the month's slips in user order.
type PayrollReport struct {
	Month  core.Month
	Slips  []core.SalarySlip
	Failed []SlipFailure
	Total  decimal.Decimal
}

type PayrollService struct {
	store       PayrollStore
	concurrency int
	logger      *log.Logger
}

func NewPayrollService(store PayrollStore, concurrency int, logger *log.Logger) *PayrollService {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &PayrollService{store: store, concurrency: concurrency, logger: logger.WithComponent(log.ComponentPayroll)}
}

// Slips fetches every user's slip for m. Users whose slip fails are left
// out and reported in Failed; only a failing user list fails the call.
func (s *PayrollService) Slips(ctx context.Context, sess session.Session, m core.Month) (PayrollReport, error) {
	if err := sess.Require(); err != nil {
		return PayrollReport{}, err
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return PayrollReport{}, fmt.Errorf("list users: %w", err)
	}

	slips := make([]core.SalarySlip, len(users))
	errs := make([]error, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, u := range users {
		g.Go(func() error {
			slips[i], errs[i] = s.store.SalarySlip(gctx, u.ID, m)
			return nil
		})
	}
	_ = g.Wait()

	report := PayrollReport{Month: m, Total: decimal.Zero}
	for i, u := range users {
		if errs[i] != nil {
			s.logger.WarnContext(ctx, "Salary slip unavailable",
				log.FieldUserID, u.ID,
				log.FieldMonth, m.String(),
				log.FieldError, errs[i])
			report.Failed = append(report.Failed, SlipFailure{UserID: u.ID, UserName: u.Name, Err: errs[i]})
			continue
		}
		if slips[i].UserName == "" {
			slips[i].UserName = u.Name
		}
		report.Slips = append(report.Slips, slips[i])
	}
	report.Total = core.TotalNet(report.Slips)
	return report, nil
}
