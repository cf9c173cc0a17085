package ports

import (
	"context"

	"github.com/quickloan/lending-system/internal/core/domain"
)

// VerificationCandidate is one row of the admin verification queue.
type VerificationCandidate struct {
	UserID             string                    `json:"user_id"`
	Name               string                    `json:"name"`
	Email              string                    `json:"email"`
	Phone              string                    `json:"phone"`
	VerificationStatus domain.VerificationStatus `json:"verification_status"`
	LoanCount          int64                     `json:"loan_count"`
	PendingLoanCount   int64                     `json:"pending_loan_count"`
}

// UserDocumentsView exposes the three KYC slots by their reviewer-visible
// labels; nil means the slot is empty.
type UserDocumentsView struct {
	AadharCard  *string `json:"aadhar_card"`
	PanCard     *string `json:"pan_card"`
	IncomeProof *string `json:"income_proof"`
}

// AdminStats is the dashboard aggregate: user counts per KYC state, loan
// counts and summed amounts per loan status.
type AdminStats struct {
	VerificationCounts map[domain.VerificationStatus]int64  `json:"verification_counts"`
	LoanStats          map[domain.LoanStatus]LoanAggregate  `json:"loan_stats"`
}

// VerificationDecision carries an admin's explicit KYC ruling.
type VerificationDecision struct {
	UserID string
	Status domain.VerificationStatus
	Notes  string
}

// AdminService backs the verification panel and the dashboard.
type AdminService interface {
	// VerificationCandidates returns the union of users holding any loan and
	// users whose KYC state still needs attention, sorted for triage.
	VerificationCandidates(ctx context.Context) ([]VerificationCandidate, error)
	UserDocuments(ctx context.Context, userID string) (*UserDocumentsView, error)
	// UpdateVerification applies an explicit admin decision and cascades the
	// status onto the user's pending loans.
	UpdateVerification(ctx context.Context, decision VerificationDecision) (*domain.User, error)
	// QuickVerify force-verifies a user without document review.
	QuickVerify(ctx context.Context, userID string) (*domain.User, error)
	Stats(ctx context.Context) (*AdminStats, error)
}
