package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quickloan/lending-system/internal/core/amortization"
	"github.com/quickloan/lending-system/internal/core/domain"
	"github.com/quickloan/lending-system/internal/core/ports"
)

// OperationGuard abstracts the short-lived distributed locks (Redis) that
// keep approve/generate from racing a concurrent duplicate request.
type OperationGuard interface {
	// Acquire takes the named lock; false when another request holds it.
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// LoanPolicy carries the fixed lending terms loaded from configuration.
type LoanPolicy struct {
	// AnnualRatePct is the system-wide interest rate, identical for every
	// loan and never exposed to non-admin callers.
	AnnualRatePct float64
	// AutoVerifyOnApply promotes an unverified applicant to verified as a
	// side effect of applying. Kept as an explicit policy switch rather than
	// an incidental write buried in the apply path.
	AutoVerifyOnApply bool
}

// LoanService orchestrates the loan lifecycle: apply, approve (with
// installment generation), reject, and the read projections.
type LoanService struct {
	loans  ports.LoanRepository
	emis   ports.EMIRepository
	users  ports.UserRepository
	tx     ports.TransactionRunner
	guard  OperationGuard
	policy LoanPolicy
	logger zerolog.Logger
}

func NewLoanService(
	loans ports.LoanRepository,
	emis ports.EMIRepository,
	users ports.UserRepository,
	tx ports.TransactionRunner,
	guard OperationGuard,
	policy LoanPolicy,
	logger zerolog.Logger,
) *LoanService {
	return &LoanService{
		loans:  loans,
		emis:   emis,
		users:  users,
		tx:     tx,
		guard:  guard,
		policy: policy,
		logger: logger,
	}
}

// Apply validates and persists a new loan application. Optional personal and
// employment fields update the applicant's profile and are snapshotted onto
// the loan for the verification panel.
func (s *LoanService) Apply(ctx context.Context, input ports.ApplyLoanInput) (*ports.ApplyLoanResult, error) {
	if input.Amount <= 0 || input.Purpose == "" || input.TermMonths < 1 {
		return nil, domain.ErrInvalidLoanInput
	}

	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	dirty := applyProfileFields(user, input)

	if s.policy.AutoVerifyOnApply && !user.IsVerified() {
		if err := user.SetVerificationStatus(domain.VerificationVerified, ""); err != nil {
			return nil, err
		}
		s.logger.Info().Str("user_id", user.ID).Msg("auto-verified applicant on loan application")
		dirty = true
	}

	if dirty {
		user.UpdatedAt = time.Now().UTC()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("apply loan: update applicant: %w", err)
		}
	}

	loan := &domain.Loan{
		UserID:          user.ID,
		Amount:          input.Amount,
		Purpose:         input.Purpose,
		TermMonths:      input.TermMonths,
		InterestRate:    s.policy.AnnualRatePct,
		Status:          domain.LoanPending,
		ApplicationDate: time.Now().UTC(),

		FullName:        fallback(input.FullName, user.Name),
		Email:           fallback(input.Email, user.Email),
		Phone:           fallback(input.Phone, user.Phone),
		Address:         fallback(input.Address, user.Address),
		AnnualIncome:    fallbackFloat(input.AnnualIncome, user.AnnualIncome),
		EmploymentType:  fallback(input.EmploymentType, user.EmploymentType),
		EmploymentYears: fallback(input.EmploymentYears, user.EmploymentYears),

		VerificationStatus: user.VerificationStatus,
	}

	created, err := s.loans.Create(ctx, loan)
	if err != nil {
		return nil, fmt.Errorf("apply loan: %w", err)
	}

	s.logger.Info().
		Str("loan_id", created.ID).
		Str("user_id", user.ID).
		Float64("amount", created.Amount).
		Int("term_months", created.TermMonths).
		Msg("loan application submitted")

	return &ports.ApplyLoanResult{Loan: created, VerificationStatus: user.VerificationStatus}, nil
}

// ListAll returns every loan, newest application first.
func (s *LoanService) ListAll(ctx context.Context) ([]*domain.Loan, error) {
	return s.loans.List(ctx, ports.LoanFilter{})
}

// ListPending returns pending loans oldest-first so the admin queue drains in
// application order.
func (s *LoanService) ListPending(ctx context.Context) ([]*domain.Loan, error) {
	return s.loans.List(ctx, ports.LoanFilter{Status: domain.LoanPending, OldestFirst: true})
}

// ListMine returns the caller's loans, newest first.
func (s *LoanService) ListMine(ctx context.Context, userID string) ([]*domain.Loan, error) {
	return s.loans.List(ctx, ports.LoanFilter{UserID: userID})
}

// Get returns a single loan, enforcing that only the owner or an admin may
// read it. Interest-rate visibility is handled at the transport layer.
func (s *LoanService) Get(ctx context.Context, id string, req ports.Requester) (*domain.Loan, error) {
	loan, err := s.loans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsAdmin() && loan.UserID != req.UserID {
		return nil, domain.ErrForbidden
	}
	return loan, nil
}

// Schedule returns the advisory amortization table for an approved loan.
func (s *LoanService) Schedule(ctx context.Context, id string, req ports.Requester) ([]amortization.ScheduleRow, error) {
	loan, err := s.Get(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanApproved && loan.Status != domain.LoanPaid {
		return nil, domain.ErrLoanNotApproved
	}
	return amortization.Schedule(loan.Amount, loan.InterestRate, loan.TermMonths)
}

// Approve transitions a pending loan to approved and generates its full
// installment schedule. The status write and the batch insert run inside one
// transaction; a per-loan guard lock closes the concurrent double-approval
// window that the existing-installments check alone leaves open.
func (s *LoanService) Approve(ctx context.Context, id, adminID string) (*ports.ApproveLoanResult, error) {
	ok, err := s.guard.Acquire(ctx, "loan-approve:"+id)
	if err != nil {
		s.logger.Warn().Err(err).Str("loan_id", id).Msg("approve guard unavailable, proceeding unguarded")
	} else if !ok {
		return nil, domain.ErrOperationInProgress
	} else {
		defer func() { _ = s.guard.Release(ctx, "loan-approve:"+id) }()
	}

	loan, err := s.loans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanPending {
		return nil, domain.ErrLoanNotPending
	}

	owner, err := s.users.FindByID(ctx, loan.UserID)
	if err != nil {
		return nil, fmt.Errorf("approve loan: load owner: %w", err)
	}
	if !owner.IsVerified() {
		return nil, domain.ErrUserNotVerified
	}

	existing, err := s.emis.CountByLoan(ctx, loan.ID)
	if err != nil {
		return nil, fmt.Errorf("approve loan: count installments: %w", err)
	}
	if existing > 0 {
		return nil, domain.ErrEMIsAlreadyGenerated
	}

	monthly, err := amortization.MonthlyPayment(loan.Amount, s.policy.AnnualRatePct, loan.TermMonths)
	if err != nil {
		return nil, fmt.Errorf("approve loan: %w", err)
	}

	now := time.Now().UTC()
	if err := loan.Approve(adminID, s.policy.AnnualRatePct, now); err != nil {
		return nil, err
	}
	installments := buildInstallments(loan, monthly, now)

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.loans.Update(ctx, loan); err != nil {
			return fmt.Errorf("update loan: %w", err)
		}
		if err := s.emis.InsertBatch(ctx, installments); err != nil {
			return fmt.Errorf("insert installments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("approve loan: %w", err)
	}

	s.logger.Info().
		Str("loan_id", loan.ID).
		Str("approved_by", adminID).
		Int("emi_count", len(installments)).
		Float64("monthly_amount", monthly).
		Msg("loan approved, schedule generated")

	return &ports.ApproveLoanResult{
		Loan:          loan,
		EMICount:      len(installments),
		MonthlyAmount: monthly,
	}, nil
}

// Reject transitions a pending loan to rejected. The reason is mandatory and
// the transition is irreversible.
func (s *LoanService) Reject(ctx context.Context, id, adminID, reason string) (*domain.Loan, error) {
	loan, err := s.loans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := loan.Reject(adminID, reason); err != nil {
		return nil, err
	}
	if err := s.loans.Update(ctx, loan); err != nil {
		return nil, fmt.Errorf("reject loan: %w", err)
	}

	s.logger.Info().Str("loan_id", loan.ID).Str("rejected_by", adminID).Msg("loan rejected")
	return loan, nil
}

// buildInstallments creates the term-length schedule: one installment per
// month, due dates one calendar month apart starting a month from now.
func buildInstallments(loan *domain.Loan, monthly float64, from time.Time) []*domain.EMI {
	emis := make([]*domain.EMI, 0, loan.TermMonths)
	for i := 1; i <= loan.TermMonths; i++ {
		emis = append(emis, &domain.EMI{
			LoanID:    loan.ID,
			UserID:    loan.UserID,
			Amount:    monthly,
			DueDate:   from.AddDate(0, i, 0),
			Status:    domain.EMIPending,
			CreatedAt: from,
		})
	}
	return emis
}

// applyProfileFields copies the supplied optional fields onto the user and
// reports whether anything changed.
func applyProfileFields(user *domain.User, input ports.ApplyLoanInput) bool {
	dirty := false
	if input.Phone != "" && input.Phone != user.Phone {
		user.Phone = input.Phone
		dirty = true
	}
	if input.Address != "" && input.Address != user.Address {
		user.Address = input.Address
		dirty = true
	}
	if input.AnnualIncome > 0 && input.AnnualIncome != user.AnnualIncome {
		user.AnnualIncome = input.AnnualIncome
		dirty = true
	}
	if input.EmploymentType != "" && input.EmploymentType != user.EmploymentType {
		user.EmploymentType = input.EmploymentType
		dirty = true
	}
	if input.EmploymentYears != "" && input.EmploymentYears != user.EmploymentYears {
		user.EmploymentYears = input.EmploymentYears
		dirty = true
	}
	return dirty
}

func fallback(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func fallbackFloat(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
