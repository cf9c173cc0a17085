package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/quickloan/lending-system/internal/core/domain"
	"github.com/quickloan/lending-system/internal/core/ports"
)

func newLoanService(users *stubUserRepo, loans *stubLoanRepo, emis *stubEMIRepo, policy LoanPolicy) *LoanService {
	return NewLoanService(loans, emis, users, &stubTx{}, newStubGuard(), policy, zerolog.Nop())
}

func defaultPolicy() LoanPolicy {
	return LoanPolicy{AnnualRatePct: 96, AutoVerifyOnApply: true}
}

func seedUser(users *stubUserRepo, status domain.VerificationStatus) *domain.User {
	return users.add(&domain.User{
		Name:               "Asha Rao",
		Email:              "asha@example.com",
		Role:               domain.RoleUser,
		VerificationStatus: status,
	})
}

func TestApply_CreatesPendingLoan(t *testing.T) {
	users := newStubUserRepo()
	loans := newStubLoanRepo()
	user := seedUser(users, domain.VerificationNotSubmitted)
	svc := newLoanService(users, loans, newStubEMIRepo(), defaultPolicy())

	result, err := svc.Apply(context.Background(), ports.ApplyLoanInput{
		UserID:     user.ID,
		Amount:     100000,
		Purpose:    "home renovation",
		TermMonths: 12,
		Phone:      "9876543210",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Loan.Status != domain.LoanPending {
		t.Fatalf("expected pending status, got %s", result.Loan.Status)
	}
	if result.Loan.InterestRate != 96 {
		t.Fatalf("expected fixed rate 96, got %v", result.Loan.InterestRate)
	}
	if result.Loan.ApplicationDate.IsZero() {
		t.Fatalf("expected application date to be set")
	}
	if result.Loan.FullName != "Asha Rao" {
		t.Fatalf("expected applicant snapshot from profile, got %q", result.Loan.FullName)
	}

	// Auto-verify policy promoted the applicant and persisted the phone.
	stored, _ := users.FindByID(context.Background(), user.ID)
	if stored.VerificationStatus != domain.VerificationVerified {
		t.Fatalf("expected applicant auto-verified, got %s", stored.VerificationStatus)
	}
	if !stored.IsVerified() {
		t.Fatalf("derived IsVerified must follow the status enum")
	}
	if stored.Phone != "9876543210" {
		t.Fatalf("expected phone persisted onto profile, got %q", stored.Phone)
	}
}

func TestApply_MissingFields(t *testing.T) {
	users := newStubUserRepo()
	user := seedUser(users, domain.VerificationVerified)
	svc := newLoanService(users, newStubLoanRepo(), newStubEMIRepo(), defaultPolicy())

	cases := []ports.ApplyLoanInput{
		{UserID: user.ID, Purpose: "car", TermMonths: 12},
		{UserID: user.ID, Amount: 50000, TermMonths: 12},
		{UserID: user.ID, Amount: 50000, Purpose: "car"},
		{UserID: user.ID, Amount: -1, Purpose: "car", TermMonths: 12},
	}
	for i, input := range cases {
		if _, err := svc.Apply(context.Background(), input); !errors.Is(err, domain.ErrInvalidLoanInput) {
			t.Fatalf("case %d: expected ErrInvalidLoanInput, got %v", i, err)
		}
	}
}

func TestApply_PolicyDisabled_NoPromotion(t *testing.T) {
	users := newStubUserRepo()
	user := seedUser(users, domain.VerificationRejected)
	policy := LoanPolicy{AnnualRatePct: 96, AutoVerifyOnApply: false}
	svc := newLoanService(users, newStubLoanRepo(), newStubEMIRepo(), policy)

	if _, err := svc.Apply(context.Background(), ports.ApplyLoanInput{
		UserID: user.ID, Amount: 50000, Purpose: "car", TermMonths: 6,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := users.FindByID(context.Background(), user.ID)
	if stored.VerificationStatus != domain.VerificationRejected {
		t.Fatalf("rejected user must stay rejected when the policy is off, got %s", stored.VerificationStatus)
	}
}

func TestApprove_GeneratesSchedule(t *testing.T) {
	users := newStubUserRepo()
	loans := newStubLoanRepo()
	emis := newStubEMIRepo()
	user := seedUser(users, domain.VerificationVerified)
	loan := loans.add(&domain.Loan{
		UserID: user.ID, Amount: 100000, Purpose: "business", TermMonths: 12,
		Status: domain.LoanPending, ApplicationDate: time.Now().UTC(),
	})
	svc := newLoanService(users, loans, emis, defaultPolicy())

	before := time.Now().UTC()
	result, err := svc.Approve(context.Background(), loan.ID, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Loan.Status != domain.LoanApproved {
		t.Fatalf("expected approved, got %s", result.Loan.Status)
	}
	if result.Loan.ApprovedBy != "admin-1" || result.Loan.ApprovalDate.IsZero() {
		t.Fatalf("expected audit fields set, got %+v", result.Loan)
	}
	if result.EMICount != 12 {
		t.Fatalf("expected 12 installments, got %d", result.EMICount)
	}
	if math.Abs(result.MonthlyAmount-13269.50) > 0.01 {
		t.Fatalf("expected monthly amount ~13269.50, got %.2f", result.MonthlyAmount)
	}

	schedule, _ := emis.ListByLoan(context.Background(), loan.ID)
	if len(schedule) != 12 {
		t.Fatalf("expected 12 persisted installments, got %d", len(schedule))
	}
	seen := make(map[time.Time]bool)
	for i, emi := range schedule {
		if emi.Amount != result.MonthlyAmount {
			t.Fatalf("installment %d: amount %v differs from %v", i, emi.Amount, result.MonthlyAmount)
		}
		if emi.Status != domain.EMIPending {
			t.Fatalf("installment %d: expected pending, got %s", i, emi.Status)
		}
		if seen[emi.DueDate] {
			t.Fatalf("installment %d: duplicate due date %v", i, emi.DueDate)
		}
		seen[emi.DueDate] = true
		// dueDate = approval + (i+1) calendar months
		want := result.Loan.ApprovalDate.AddDate(0, i+1, 0)
		if !emi.DueDate.Equal(want) {
			t.Fatalf("installment %d: due %v, want %v", i, emi.DueDate, want)
		}
		if emi.DueDate.Before(before) {
			t.Fatalf("installment %d: due date in the past", i)
		}
	}
}

func TestApprove_NonPending_Conflict(t *testing.T) {
	users := newStubUserRepo()
	loans := newStubLoanRepo()
	emis := newStubEMIRepo()
	user := seedUser(users, domain.VerificationVerified)

	for _, status := range []domain.LoanStatus{domain.LoanApproved, domain.LoanRejected, domain.LoanPaid} {
		loan := loans.add(&domain.Loan{UserID: user.ID, Amount: 50000, TermMonths: 6, Status: status})
		svc := newLoanService(users, loans, emis, defaultPolicy())

		if _, err := svc.Approve(context.Background(), loan.ID, "admin-1"); !errors.Is(err, domain.ErrLoanNotPending) {
			t.Fatalf("status %s: expected ErrLoanNotPending, got %v", status, err)
		}
		if n, _ := emis.CountByLoan(context.Background(), loan.ID); n != 0 {
			t.Fatalf("status %s: conflict must not generate installments", status)
		}
	}
}

func TestApprove_UnverifiedOwner(t *testing.T) {
	users := newStubUserRepo()
	loans := newStubLoanRepo()
	user := seedUser(users, domain.VerificationPending)
	loan := loans.add(&domain.Loan{UserID: user.ID, Amount: 50000, TermMonths: 6, Status: domain.LoanPending})
	svc := newLoanService(users, loans, newStubEMIRepo(), defaultPolicy())

	if _, err := svc.Approve(context.Background(), loan.ID, "admin-1"); !errors.Is(err, domain.ErrUserNotVerified) {
		t.Fatalf("expected ErrUserNotVerified, got %v", err)
	}
	stored, _ := loans.FindByID(context.Background(), loan.ID)
	if stored.Status != domain.LoanPending {
		t.Fatalf("loan must stay pending, got %s", stored.Status)
	}
}

func TestApprove_AlreadyGenerated(t *testing.T) {
	users := newStubUserRepo()
	loans := newStubLoanRepo()
	emis := newStubEMIRepo()
	user := seedUser(users, domain.VerificationVerified)
	loan := loans.add(&domain.Loan{UserID: user.ID, Amount: 50000, TermMonths: 6, Status: domain.LoanPending})
	emis.add(&domain.EMI{LoanID: loan.ID, UserID: user.ID, Amount: 100, Status: domain.EMIPending})
	svc := newLoanService(users, loans, emis, defaultPolicy())

	if _, err := svc.Approve(context.Background(), loan.ID, "admin-1"); !errors.Is(err, domain.ErrEMIsAlreadyGenerated) {
		t.Fatalf("expected ErrEMIsAlreadyGenerated, got %v", err)
	}
}

func TestApprove_GuardDenied(t *testing.T) {
	users := newStubUserRepo()
	loans := newStubLoanRepo()
	user := seedUser(users, domain.VerificationVerified)
	loan := loans.add(&domain.Loan{UserID: user.ID, Amount: 50000, TermMonths: 6, Status: domain.LoanPending})

	guard := newStubGuard()
	guard.deny = true
	svc := NewLoanService(loans, newStubEMIRepo(), users, &stubTx{}, guard, defaultPolicy(), zerolog.Nop())

	if _, err := svc.Approve(context.Background(), loan.ID, "admin-1"); !errors.Is(err, domain.ErrOperationInProgress) {
		t.Fatalf("expected ErrOperationInProgress, got %v", err)
	}
}

func TestApprove_TransactionFailure(t *testing.T) {
	users := newStubUserRepo()
	loans := newStubLoanRepo()
	emis := newStubEMIRepo()
	user := seedUser(users, domain.VerificationVerified)
	loan := loans.add(&domain.Loan{UserID: user.ID, Amount: 50000, TermMonths: 6, Status: domain.LoanPending})

	tx := &stubTx{err: errors.New("session aborted")}
	svc := NewLoanService(loans, emis, users, tx, newStubGuard(), defaultPolicy(), zerolog.Nop())

	if _, err := svc.Approve(context.Background(), loan.ID, "admin-1"); err == nil {
		t.Fatalf("expected transaction error")
	}
	stored, _ := loans.FindByID(context.Background(), loan.ID)
	if stored.Status != domain.LoanPending {
		t.Fatalf("aborted approval must not persist, got %s", stored.Status)
	}
}

func TestReject_RequiresReason(t *testing.T) {
	users := newStubUserRepo()
	loans := newStubLoanRepo()
	user := seedUser(users, domain.VerificationVerified)
	loan := loans.add(&domain.Loan{UserID: user.ID, Amount: 50000, TermMonths: 6, Status: domain.LoanPending})
	svc := newLoanService(users, loans, newStubEMIRepo(), defaultPolicy())

	if _, err := svc.Reject(context.Background(), loan.ID, "admin-1", ""); !errors.Is(err, domain.ErrRejectionReasonRequired) {
		t.Fatalf("expected ErrRejectionReasonRequired, got %v", err)
	}
}

func TestReject_IsIrreversible(t *testing.T) {
	users := newStubUserRepo()
	loans := newStubLoanRepo()
	user := seedUser(users, domain.VerificationVerified)
	loan := loans.add(&domain.Loan{UserID: user.ID, Amount: 50000, TermMonths: 6, Status: domain.LoanPending})
	svc := newLoanService(users, loans, newStubEMIRepo(), defaultPolicy())

	rejected, err := svc.Reject(context.Background(), loan.ID, "admin-1", "insufficient income")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rejected.Status != domain.LoanRejected || rejected.RejectionReason != "insufficient income" {
		t.Fatalf("expected rejected with reason, got %+v", rejected)
	}

	if _, err := svc.Reject(context.Background(), loan.ID, "admin-1", "again"); !errors.Is(err, domain.ErrLoanNotPending) {
		t.Fatalf("second reject: expected ErrLoanNotPending, got %v", err)
	}
	if _, err := svc.Approve(context.Background(), loan.ID, "admin-1"); !errors.Is(err, domain.ErrLoanNotPending) {
		t.Fatalf("approve after reject: expected ErrLoanNotPending, got %v", err)
	}
}

func TestGet_OwnershipEnforced(t *testing.T) {
	users := newStubUserRepo()
	loans := newStubLoanRepo()
	user := seedUser(users, domain.VerificationVerified)
	loan := loans.add(&domain.Loan{UserID: user.ID, Amount: 50000, TermMonths: 6, Status: domain.LoanPending})
	svc := newLoanService(users, loans, newStubEMIRepo(), defaultPolicy())

	if _, err := svc.Get(context.Background(), loan.ID, ports.Requester{UserID: "other", Role: domain.RoleUser}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for stranger, got %v", err)
	}
	if _, err := svc.Get(context.Background(), loan.ID, ports.Requester{UserID: user.ID, Role: domain.RoleUser}); err != nil {
		t.Fatalf("owner must read own loan: %v", err)
	}
	if _, err := svc.Get(context.Background(), loan.ID, ports.Requester{UserID: "admin-1", Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("admin must read any loan: %v", err)
	}
	if _, err := svc.Get(context.Background(), "missing", ports.Requester{UserID: user.ID, Role: domain.RoleUser}); !errors.Is(err, domain.ErrLoanNotFound) {
		t.Fatalf("expected ErrLoanNotFound, got %v", err)
	}
}

func TestSchedule_RequiresApprovedLoan(t *testing.T) {
	users := newStubUserRepo()
	loans := newStubLoanRepo()
	user := seedUser(users, domain.VerificationVerified)
	pending := loans.add(&domain.Loan{UserID: user.ID, Amount: 100000, TermMonths: 12, InterestRate: 96, Status: domain.LoanPending})
	approved := loans.add(&domain.Loan{UserID: user.ID, Amount: 100000, TermMonths: 12, InterestRate: 96, Status: domain.LoanApproved})
	svc := newLoanService(users, loans, newStubEMIRepo(), defaultPolicy())
	owner := ports.Requester{UserID: user.ID, Role: domain.RoleUser}

	if _, err := svc.Schedule(context.Background(), pending.ID, owner); !errors.Is(err, domain.ErrLoanNotApproved) {
		t.Fatalf("expected ErrLoanNotApproved, got %v", err)
	}

	rows, err := svc.Schedule(context.Background(), approved.ID, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 12 {
		t.Fatalf("expected 12 schedule rows, got %d", len(rows))
	}
	if rows[len(rows)-1].Balance != 0 {
		t.Fatalf("expected final balance 0, got %v", rows[len(rows)-1].Balance)
	}
}

func TestListPending_OldestFirst(t *testing.T) {
	users := newStubUserRepo()
	loans := newStubLoanRepo()
	user := seedUser(users, domain.VerificationVerified)
	now := time.Now().UTC()
	loans.add(&domain.Loan{UserID: user.ID, Amount: 1, TermMonths: 1, Status: domain.LoanPending, ApplicationDate: now})
	loans.add(&domain.Loan{UserID: user.ID, Amount: 2, TermMonths: 1, Status: domain.LoanPending, ApplicationDate: now.Add(-time.Hour)})
	loans.add(&domain.Loan{UserID: user.ID, Amount: 3, TermMonths: 1, Status: domain.LoanApproved, ApplicationDate: now.Add(-2 * time.Hour)})
	svc := newLoanService(users, loans, newStubEMIRepo(), defaultPolicy())

	pending, err := svc.ListPending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending loans, got %d", len(pending))
	}
	if !pending[0].ApplicationDate.Before(pending[1].ApplicationDate) {
		t.Fatalf("pending queue must be oldest-first")
	}
}
