// Package core holds the attendance and payroll domain: statuses, months,
// working days, monthly summaries and salary slips.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SalarySlip is one user's pay for a month, in rupiah.
type SalarySlip struct {
	UserID      string
	UserName    string
	Month       Month
	BasicSalary decimal.Decimal
	Allowances  decimal.Decimal
	Deductions  decimal.Decimal
	NetSalary   decimal.Decimal
}

// Gross is basic salary plus allowances.
func (s SalarySlip) Gross() decimal.Decimal {
	return s.BasicSalary.Add(s.Allowances)
}

// ComputedNet is gross minus deductions. The store's NetSalary is what is
// displayed; this is used to flag slips that do not add up.
func (s SalarySlip) ComputedNet() decimal.Decimal {
	return s.Gross().Sub(s.Deductions)
}

func (s SalarySlip) Consistent() bool {
	return s.ComputedNet().Equal(s.NetSalary)
}

// FormatRupiah renders d as "Rp 5.000.000", rounded to whole rupiah with
// dot thousands separators.
func FormatRupiah(d decimal.Decimal) string {
	d = d.Round(0)
	neg := d.IsNegative()
	digits := d.Abs().StringFixed(0)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}

// TotalNet sums the net salary of slips.
func TotalNet(slips []SalarySlip) decimal.Decimal {
	total := decimal.Zero
	for _, s := range slips {
		total = total.Add(s.NetSalary)
	}
	return total
}
