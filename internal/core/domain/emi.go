package domain

import (
	"errors"
	"time"
)

// EMIStatus represents the lifecycle state of a single installment.
type EMIStatus string

const (
	EMIPending EMIStatus = "pending"
	EMIPaid    EMIStatus = "paid"
	EMIOverdue EMIStatus = "overdue"
)

// emiTransitions defines the allowed state machine transitions.
// Paid is terminal; an overdue installment can still be paid.
var emiTransitions = map[EMIStatus][]EMIStatus{
	EMIPending: {EMIPaid, EMIOverdue},
	EMIOverdue: {EMIPaid},
}

var ErrEMINotFound = errors.New("emi not found")
var ErrEMIAlreadyPaid = errors.New("emi has already been paid")
var ErrEMIsAlreadyGenerated = errors.New("emis have already been generated for this loan")
var ErrInvalidEMIStatus = errors.New("invalid emi status")
var ErrInvalidEMITransition = errors.New("invalid emi status transition")

// ValidEMIStatus reports whether s is one of the known installment states.
func ValidEMIStatus(s EMIStatus) bool {
	switch s {
	case EMIPending, EMIPaid, EMIOverdue:
		return true
	}
	return false
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s EMIStatus) CanTransitionTo(next EMIStatus) bool {
	for _, allowed := range emiTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// EMI is one scheduled installment of a loan. Every installment of a loan
// shares the same Amount, computed once at generation time.
type EMI struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	LoanID    string    `json:"loan_id" bson:"loan_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Amount    float64   `json:"amount" bson:"amount"`
	DueDate   time.Time `json:"due_date" bson:"due_date"`
	Status    EMIStatus `json:"status" bson:"status"`
	PaidDate  time.Time `json:"paid_date,omitempty" bson:"paid_date,omitempty"`
	PaymentID string    `json:"payment_id,omitempty" bson:"payment_id,omitempty"`
	LateFee   float64   `json:"late_fee" bson:"late_fee"`
	TotalPaid float64   `json:"total_paid,omitempty" bson:"total_paid,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// MarkPaid settles the installment. lateFee must already be computed for the
// effective payment date; TotalPaid is always amount plus fee.
func (e *EMI) MarkPaid(paidAt time.Time, paymentID string, lateFee float64) error {
	if e.Status == EMIPaid {
		return ErrEMIAlreadyPaid
	}
	e.Status = EMIPaid
	e.PaidDate = paidAt
	e.PaymentID = paymentID
	e.LateFee = lateFee
	e.TotalPaid = e.Amount + lateFee
	return nil
}
