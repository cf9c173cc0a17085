// Package amortization implements the reducing-balance installment math used
// by the loan lifecycle: the fixed monthly payment, the late-fee accrual, and
// the advisory repayment schedule. All functions are pure.
package amortization

import (
	"errors"
	"math"
	"time"
)

// Late fee accrues at 1% of the installment amount per day late, capped.
const (
	lateFeePctPerDay = 1.0
	lateFeeCapPct    = 20.0
)

var ErrInvalidTerms = errors.New("amortization: principal, rate and term must be positive")

// MonthlyPayment computes the fixed installment for a reducing-balance loan:
//
//	r   = annualRatePct / 100 / 12
//	emi = P * r * (1+r)^n / ((1+r)^n - 1)
//
// A zero rate has no meaning under this formula (division by zero), so the
// function fails fast rather than special-casing it.
func MonthlyPayment(principal, annualRatePct float64, termMonths int) (float64, error) {
	if principal <= 0 || annualRatePct <= 0 || termMonths < 1 {
		return 0, ErrInvalidTerms
	}
	r := annualRatePct / 100 / 12
	factor := math.Pow(1+r, float64(termMonths))
	return principal * r * factor / (factor - 1), nil
}

// DaysLate returns the number of whole days between the due date and the
// evaluation time, floored. Non-positive when paid on or before the due date.
func DaysLate(dueDate, at time.Time) int {
	return int(math.Floor(at.Sub(dueDate).Hours() / 24))
}

// LateFee computes the penalty for an installment paid daysLate days after
// its due date: 1% of the installment per day, capped at 20%. Zero when not
// late.
func LateFee(emiAmount float64, daysLate int) float64 {
	if daysLate <= 0 {
		return 0
	}
	pct := math.Min(float64(daysLate)*lateFeePctPerDay, lateFeeCapPct)
	return emiAmount * pct / 100
}

// ScheduleRow is one month of the advisory repayment table.
type ScheduleRow struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

// Schedule builds the full amortization table for display purposes. Each
// row's interest is the running balance times the monthly rate; the balance
// decreases by the principal component and is floored at zero on the final
// row to absorb rounding drift. The table is never persisted.
func Schedule(principal, annualRatePct float64, termMonths int) ([]ScheduleRow, error) {
	emi, err := MonthlyPayment(principal, annualRatePct, termMonths)
	if err != nil {
		return nil, err
	}

	r := annualRatePct / 100 / 12
	rows := make([]ScheduleRow, 0, termMonths)
	balance := principal

	for month := 1; month <= termMonths; month++ {
		interest := balance * r
		principalPart := emi - interest
		balance -= principalPart
		if balance < 0 || month == termMonths {
			// final row absorbs rounding drift
			balance = 0
		}
		rows = append(rows, ScheduleRow{
			Month:     month,
			Payment:   emi,
			Principal: principalPart,
			Interest:  interest,
			Balance:   balance,
		})
	}
	return rows, nil
}
