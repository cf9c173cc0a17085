package handler

import (
	"github.com/quickloan/lending-system/internal/core/domain"
)

// sanitizeLoan strips admin-only fields from a loan before it is rendered to
// a non-admin caller. The interest rate is system-internal pricing; a zeroed
// field is dropped by the omitempty tag.
func sanitizeLoan(loan *domain.Loan, admin bool) *domain.Loan {
	if admin || loan == nil {
		return loan
	}
	clone := *loan
	clone.InterestRate = 0
	return &clone
}

func sanitizeLoans(loans []*domain.Loan, admin bool) []*domain.Loan {
	if admin {
		return loans
	}
	out := make([]*domain.Loan, len(loans))
	for i, l := range loans {
		out[i] = sanitizeLoan(l, admin)
	}
	return out
}
