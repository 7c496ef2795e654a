package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pamadmin/internal/cli/formatter"
	"pamadmin/internal/core"
)

// monthFlag resolves --month against the clock. Empty means the current
// month; later months are clamped to it like the web month navigation.
func (rt *runtime) monthFlag(value string) (core.Month, error) {
	current := core.MonthOf(rt.now())
	if value == "" {
		return current, nil
	}
	m, err := core.ParseMonth(value)
	if err != nil {
		return core.Month{}, err
	}
	return core.NewMonthCursor(m, rt.now).Month(), nil
}

func newSummaryCmd(rt *runtime) *cobra.Command {
	var month string
	var plain bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the attendance summary of a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			m, err := rt.monthFlag(month)
			if err != nil {
				return err
			}

			app, err := rt.build(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			sess, err := app.AdminSession(ctx)
			if err != nil {
				return err
			}
			rep, err := app.Attendance.MonthReport(ctx, sess, m)
			if err != nil {
				return fmt.Errorf("%s: %w", core.UserMessage(err), err)
			}
			return write(cmd.OutOrStdout(), formatter.RenderMonthSummary(styler(cmd.OutOrStdout(), plain), rep))
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable colors")
	return cmd
}

func newSalaryCmd(rt *runtime) *cobra.Command {
	var month string
	var plain bool

	cmd := &cobra.Command{
		Use:   "salary",
		Short: "Print every user's salary slip for a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			m, err := rt.monthFlag(month)
			if err != nil {
				return err
			}

			app, err := rt.build(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			sess, err := app.AdminSession(ctx)
			if err != nil {
				return err
			}
			rep, err := app.Payroll.Slips(ctx, sess, m)
			if err != nil {
				return fmt.Errorf("%s: %w", core.UserMessage(err), err)
			}
			return write(cmd.OutOrStdout(), formatter.RenderPayroll(styler(cmd.OutOrStdout(), plain), rep))
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable colors")
	return cmd
}

func styler(w io.Writer, plain bool) formatter.Styler {
	return formatter.NewStyler(!plain && colorEnabled(w))
}

func write(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}
