package tool

import (
	"fmt"
	"math"
	"strings"
)

// Payroll constants from the billing contract.
const (
	PerDayCost            = 1036.8571
	MonthlyLeaveAllowance = 2
)

// PayrollSummary is the deterministic outcome of the chargeable-day rules:
// P counts as one chargeable day, HL as half, L/WO/H/A as none; two leave
// days accrue per month and unused leave carries forward.
type PayrollSummary struct {
	WorkingDays    int
	HalfDays       int
	LeavesTaken    int
	ChargeableDays float64
	BalanceLeaves  float64
	Total          float64
	TotalWords     string
}

// ComputePayroll applies the status-weighting rules to a timesheet table.
// carryIn is the accumulated leave balance from prior months (zero if unknown).
func ComputePayroll(rows []TimesheetRow, carryIn float64) PayrollSummary {
	var s PayrollSummary
	for _, row := range rows {
		switch strings.ToUpper(strings.TrimSpace(row.Status)) {
		case "P":
			s.WorkingDays++
		case "HL":
			s.HalfDays++
		case "L":
			s.LeavesTaken++
		}
	}

	s.ChargeableDays = float64(s.WorkingDays) + 0.5*float64(s.HalfDays)
	s.BalanceLeaves = carryIn + MonthlyLeaveAllowance - float64(s.LeavesTaken)
	s.Total = math.Round(s.ChargeableDays*PerDayCost*100) / 100
	s.TotalWords = AmountInWords(s.Total)
	return s
}

func (g *Gateway) computePayroll(args map[string]any) string {
	filename := stringArg(args, "filename")
	if filename == "" {
		return "Error computing payroll: filename is required."
	}
	carryIn := numberArg(args, "carry_in_leaves")

	rows, err := loadTimesheet(g.resolve(filename))
	if err != nil {
		return fmt.Sprintf("Error computing payroll: %v", err)
	}
	if len(rows) == 0 {
		return "Error computing payroll: the timesheet is empty."
	}

	s := ComputePayroll(rows, carryIn)
	return strings.Join([]string{
		"Payroll summary:",
		fmt.Sprintf("Working Days (P): %d", s.WorkingDays),
		fmt.Sprintf("Half Days (HL): %d", s.HalfDays),
		fmt.Sprintf("Leaves Taken (L): %d", s.LeavesTaken),
		fmt.Sprintf("Chargeable Days: %s", trimFloat(s.ChargeableDays)),
		fmt.Sprintf("Balance Leaves: %s", trimFloat(s.BalanceLeaves)),
		fmt.Sprintf("Total: %.2f", s.Total),
		fmt.Sprintf("Total in Words: %s", s.TotalWords),
	}, "\n")
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

/* ---------------------------- amount in words ---------------------------- */

var onesWords = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tensWords = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// AmountInWords renders a currency amount using Indian digit grouping
// (thousand, lakh, crore), e.g. "Rs. Twenty One Thousand Seven Hundred
// Seventy Four only".
func AmountInWords(amount float64) string {
	if amount < 0 {
		return "Rs. Minus " + strings.TrimPrefix(AmountInWords(-amount), "Rs. ")
	}

	rupees := int64(amount)
	paise := int64(math.Round((amount - float64(rupees)) * 100))
	if paise >= 100 {
		rupees++
		paise -= 100
	}

	words := integerInWords(rupees)
	out := "Rs. " + words
	if paise > 0 {
		out += " and Paise " + integerInWords(paise)
	}
	return out + " only"
}

func integerInWords(n int64) string {
	if n == 0 {
		return "Zero"
	}

	var parts []string
	appendScale := func(v int64, scale string) {
		if v > 0 {
			parts = append(parts, belowThousandInWords(v))
			if scale != "" {
				parts = append(parts, scale)
			}
		}
	}

	appendScale(n/10000000, "Crore")
	n %= 10000000
	appendScale(n/100000, "Lakh")
	n %= 100000
	appendScale(n/1000, "Thousand")
	n %= 1000
	appendScale(n, "")

	return strings.Join(parts, " ")
}

func belowThousandInWords(n int64) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, onesWords[n/100], "Hundred")
		n %= 100
	}
	if n >= 20 {
		parts = append(parts, tensWords[n/10])
		n %= 10
	}
	if n > 0 {
		parts = append(parts, onesWords[n])
	}
	return strings.Join(parts, " ")
}
