package domain

import (
	"errors"
	"time"
)

// LoanStatus represents the lifecycle state of a loan application.
type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanApproved LoanStatus = "approved"
	LoanRejected LoanStatus = "rejected"
	LoanPaid     LoanStatus = "paid"
)

// loanTransitions defines the allowed state machine transitions.
// Rejected and paid are terminal.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanPending:  {LoanApproved, LoanRejected},
	LoanApproved: {LoanPaid},
}

var ErrLoanNotFound = errors.New("loan not found")
var ErrInvalidLoanInput = errors.New("amount, purpose and term are required")
var ErrOperationInProgress = errors.New("a conflicting operation is already in progress")
var ErrLoanNotPending = errors.New("loan is not pending")
var ErrLoanNotApproved = errors.New("loan is not approved")
var ErrRejectionReasonRequired = errors.New("rejection reason is required")
var ErrInvalidLoanTransition = errors.New("invalid loan status transition")

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Loan is a single loan application and its lifecycle state.
type Loan struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	UserID       string     `json:"user_id" bson:"user_id"`
	Amount       float64    `json:"amount" bson:"amount"`
	Purpose      string     `json:"purpose" bson:"purpose"`
	TermMonths   int        `json:"term_months" bson:"term_months"`
	InterestRate float64    `json:"interest_rate,omitempty" bson:"interest_rate"`
	Status       LoanStatus `json:"status" bson:"status"`

	RejectionReason string    `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	ApplicationDate time.Time `json:"application_date" bson:"application_date"`
	ApprovalDate    time.Time `json:"approval_date,omitempty" bson:"approval_date,omitempty"`
	ApprovedBy      string    `json:"approved_by,omitempty" bson:"approved_by,omitempty"`

	// Applicant snapshot captured at application time. The panel shows these
	// even when the user record changes afterwards.
	FullName        string  `json:"full_name,omitempty" bson:"full_name,omitempty"`
	Email           string  `json:"email,omitempty" bson:"email,omitempty"`
	Phone           string  `json:"phone,omitempty" bson:"phone,omitempty"`
	Address         string  `json:"address,omitempty" bson:"address,omitempty"`
	AnnualIncome    float64 `json:"annual_income,omitempty" bson:"annual_income,omitempty"`
	EmploymentType  string  `json:"employment_type,omitempty" bson:"employment_type,omitempty"`
	EmploymentYears string  `json:"employment_years,omitempty" bson:"employment_years,omitempty"`

	VerificationStatus VerificationStatus `json:"verification_status,omitempty" bson:"verification_status,omitempty"`
	VerificationNotes  string             `json:"verification_notes,omitempty" bson:"verification_notes,omitempty"`
}

// Approve transitions the loan to approved and records the audit fields.
func (l *Loan) Approve(adminID string, rate float64, at time.Time) error {
	if !l.Status.CanTransitionTo(LoanApproved) {
		return ErrLoanNotPending
	}
	l.Status = LoanApproved
	l.ApprovalDate = at
	l.ApprovedBy = adminID
	l.InterestRate = rate
	return nil
}

// Reject transitions the loan to rejected. A non-empty reason is mandatory;
// the invariant is that RejectionReason is set iff the loan is rejected.
func (l *Loan) Reject(adminID, reason string) error {
	if reason == "" {
		return ErrRejectionReasonRequired
	}
	if !l.Status.CanTransitionTo(LoanRejected) {
		return ErrLoanNotPending
	}
	l.Status = LoanRejected
	l.RejectionReason = reason
	l.ApprovedBy = adminID
	return nil
}
