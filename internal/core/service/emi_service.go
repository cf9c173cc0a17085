package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quickloan/lending-system/internal/core/amortization"
	"github.com/quickloan/lending-system/internal/core/domain"
	"github.com/quickloan/lending-system/internal/core/ports"
)

// EMIService orchestrates installment payment, manual settlement, the
// overdue sweep and the read projections.
type EMIService struct {
	emis   ports.EMIRepository
	loans  ports.LoanRepository
	guard  OperationGuard
	policy LoanPolicy
	logger zerolog.Logger
}

func NewEMIService(
	emis ports.EMIRepository,
	loans ports.LoanRepository,
	guard OperationGuard,
	policy LoanPolicy,
	logger zerolog.Logger,
) *EMIService {
	return &EMIService{
		emis:   emis,
		loans:  loans,
		guard:  guard,
		policy: policy,
		logger: logger,
	}
}

// Generate creates the full schedule for an already-approved loan. Approval
// normally does this inline; this path exists for recovery when the schedule
// is missing (e.g. a crash between approval and generation).
func (s *EMIService) Generate(ctx context.Context, loanID string) (*ports.GenerateEMIsResult, error) {
	ok, err := s.guard.Acquire(ctx, "emi-generate:"+loanID)
	if err != nil {
		s.logger.Warn().Err(err).Str("loan_id", loanID).Msg("generate guard unavailable, proceeding unguarded")
	} else if !ok {
		return nil, domain.ErrOperationInProgress
	} else {
		defer func() { _ = s.guard.Release(ctx, "emi-generate:"+loanID) }()
	}

	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanApproved {
		return nil, domain.ErrLoanNotApproved
	}

	existing, err := s.emis.CountByLoan(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("generate installments: %w", err)
	}
	if existing > 0 {
		return nil, domain.ErrEMIsAlreadyGenerated
	}

	monthly, err := amortization.MonthlyPayment(loan.Amount, s.policy.AnnualRatePct, loan.TermMonths)
	if err != nil {
		return nil, fmt.Errorf("generate installments: %w", err)
	}

	installments := buildInstallments(loan, monthly, time.Now().UTC())
	if err := s.emis.InsertBatch(ctx, installments); err != nil {
		return nil, fmt.Errorf("generate installments: %w", err)
	}

	s.logger.Info().
		Str("loan_id", loanID).
		Int("count", len(installments)).
		Float64("monthly_amount", monthly).
		Msg("installment schedule generated")

	return &ports.GenerateEMIsResult{EMIs: installments, MonthlyAmount: monthly}, nil
}

// Pay settles one installment. A late fee accrues when paying past the due
// date; once the loan's final open installment settles, the loan flips to
// paid.
func (s *EMIService) Pay(ctx context.Context, input ports.PayEMIInput) (*domain.EMI, error) {
	emi, err := s.emis.FindByID(ctx, input.EMIID)
	if err != nil {
		return nil, err
	}
	if !input.Requester.IsAdmin() && emi.UserID != input.Requester.UserID {
		return nil, domain.ErrForbidden
	}
	if emi.Status == domain.EMIPaid {
		return nil, domain.ErrEMIAlreadyPaid
	}

	ok, err := s.guard.Acquire(ctx, "emi-pay:"+emi.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("emi_id", emi.ID).Msg("payment guard unavailable, proceeding unguarded")
	} else if !ok {
		return nil, domain.ErrOperationInProgress
	} else {
		defer func() { _ = s.guard.Release(ctx, "emi-pay:"+emi.ID) }()
	}

	now := time.Now().UTC()
	fee := amortization.LateFee(emi.Amount, amortization.DaysLate(emi.DueDate, now))

	paymentID := input.PaymentID
	if paymentID == "" {
		paymentID = "PAY-" + uuid.NewString()
	}

	if err := emi.MarkPaid(now, paymentID, fee); err != nil {
		return nil, err
	}
	if err := s.emis.Update(ctx, emi); err != nil {
		return nil, fmt.Errorf("pay installment: %w", err)
	}

	s.logger.Info().
		Str("emi_id", emi.ID).
		Str("loan_id", emi.LoanID).
		Str("payment_id", paymentID).
		Float64("late_fee", fee).
		Msg("installment paid")

	if err := s.settleLoanIfComplete(ctx, emi.LoanID); err != nil {
		s.logger.Error().Err(err).Str("loan_id", emi.LoanID).Msg("loan completion check failed")
	}

	return emi, nil
}

// ManualUpdate records an offline payment or corrects an installment's
// status. Admin-only; the transport layer enforces the role, the service
// enforces the transition.
func (s *EMIService) ManualUpdate(ctx context.Context, input ports.ManualUpdateEMIInput) (*domain.EMI, error) {
	if !domain.ValidEMIStatus(input.Status) {
		return nil, domain.ErrInvalidEMIStatus
	}

	emi, err := s.emis.FindByID(ctx, input.EMIID)
	if err != nil {
		return nil, err
	}

	if input.Status != domain.EMIPaid {
		if emi.Status != input.Status && !emi.Status.CanTransitionTo(input.Status) {
			return nil, domain.ErrInvalidEMITransition
		}
		emi.Status = input.Status
		if err := s.emis.Update(ctx, emi); err != nil {
			return nil, fmt.Errorf("manual update: %w", err)
		}
		return emi, nil
	}

	paidAt := time.Now().UTC()
	if input.PaymentDate != nil {
		paidAt = input.PaymentDate.UTC()
	}

	var fee float64
	if input.LateFee != nil {
		fee = *input.LateFee
	} else {
		fee = amortization.LateFee(emi.Amount, amortization.DaysLate(emi.DueDate, paidAt))
	}

	reference := input.PaymentReference
	if reference == "" {
		reference = "MANUAL-" + uuid.NewString()
	}

	if err := emi.MarkPaid(paidAt, reference, fee); err != nil {
		return nil, err
	}
	if err := s.emis.Update(ctx, emi); err != nil {
		return nil, fmt.Errorf("manual update: %w", err)
	}

	s.logger.Info().
		Str("emi_id", emi.ID).
		Str("payment_id", reference).
		Float64("late_fee", fee).
		Msg("installment settled manually")

	if err := s.settleLoanIfComplete(ctx, emi.LoanID); err != nil {
		s.logger.Error().Err(err).Str("loan_id", emi.LoanID).Msg("loan completion check failed")
	}

	return emi, nil
}

// SweepOverdue flips every past-due pending installment to overdue and
// returns them. No fee accrues here: fees stay lazy until payment time.
func (s *EMIService) SweepOverdue(ctx context.Context) ([]*domain.EMI, error) {
	due, err := s.emis.FindPendingDueBefore(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("overdue sweep: %w", err)
	}
	if len(due) == 0 {
		return []*domain.EMI{}, nil
	}

	ids := make([]string, 0, len(due))
	for _, emi := range due {
		ids = append(ids, emi.ID)
		emi.Status = domain.EMIOverdue
	}
	if err := s.emis.MarkOverdue(ctx, ids); err != nil {
		return nil, fmt.Errorf("overdue sweep: %w", err)
	}

	s.logger.Info().Int("count", len(due)).Msg("installments marked overdue")
	return due, nil
}

func (s *EMIService) ListAll(ctx context.Context) ([]*domain.EMI, error) {
	return s.emis.ListAll(ctx)
}

func (s *EMIService) ListMine(ctx context.Context, userID string) ([]*domain.EMI, error) {
	return s.emis.ListByUser(ctx, userID)
}

// ListByLoan returns a loan's installments; only the owner or an admin.
func (s *EMIService) ListByLoan(ctx context.Context, loanID string, req ports.Requester) ([]*domain.EMI, error) {
	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !req.IsAdmin() && loan.UserID != req.UserID {
		return nil, domain.ErrForbidden
	}
	return s.emis.ListByLoan(ctx, loanID)
}

// settleLoanIfComplete flips the parent loan to paid once every installment
// has settled.
func (s *EMIService) settleLoanIfComplete(ctx context.Context, loanID string) error {
	all, err := s.emis.ListByLoan(ctx, loanID)
	if err != nil {
		return err
	}
	for _, emi := range all {
		if emi.Status != domain.EMIPaid {
			return nil
		}
	}
	if err := s.loans.UpdateStatus(ctx, loanID, domain.LoanPaid); err != nil {
		return err
	}
	s.logger.Info().Str("loan_id", loanID).Msg("all installments settled, loan paid off")
	return nil
}
