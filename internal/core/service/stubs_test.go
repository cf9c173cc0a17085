package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/quickloan/lending-system/internal/core/domain"
	"github.com/quickloan/lending-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories shared by the service tests
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users     map[string]*domain.User
	seq       int
	updateErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) add(u *domain.User) *domain.User {
	if u.ID == "" {
		r.seq++
		u.ID = fmt.Sprintf("user-%d", r.seq)
	}
	r.users[u.ID] = u
	return u
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	clone := *user
	return r.add(&clone), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *stubUserRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.User, error) {
	var out []*domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			clone := *u
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubUserRepo) FindByVerificationStatus(_ context.Context, statuses []domain.VerificationStatus) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.users {
		for _, s := range statuses {
			if u.VerificationStatus == s {
				clone := *u
				out = append(out, &clone)
				break
			}
		}
	}
	return out, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range r.users {
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubUserRepo) CountByVerificationStatus(_ context.Context) (map[domain.VerificationStatus]int64, error) {
	counts := make(map[domain.VerificationStatus]int64)
	for _, u := range r.users {
		counts[u.VerificationStatus]++
	}
	return counts, nil
}

type stubLoanRepo struct {
	loans     map[string]*domain.Loan
	seq       int
	updateErr error
}

func newStubLoanRepo() *stubLoanRepo {
	return &stubLoanRepo{loans: make(map[string]*domain.Loan)}
}

func (r *stubLoanRepo) add(l *domain.Loan) *domain.Loan {
	if l.ID == "" {
		r.seq++
		l.ID = fmt.Sprintf("loan-%d", r.seq)
	}
	r.loans[l.ID] = l
	return l
}

func (r *stubLoanRepo) Create(_ context.Context, loan *domain.Loan) (*domain.Loan, error) {
	clone := *loan
	return r.add(&clone), nil
}

func (r *stubLoanRepo) FindByID(_ context.Context, id string) (*domain.Loan, error) {
	l, ok := r.loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	clone := *l
	return &clone, nil
}

func (r *stubLoanRepo) Update(_ context.Context, loan *domain.Loan) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.loans[loan.ID]; !ok {
		return domain.ErrLoanNotFound
	}
	clone := *loan
	r.loans[loan.ID] = &clone
	return nil
}

func (r *stubLoanRepo) List(_ context.Context, filter ports.LoanFilter) ([]*domain.Loan, error) {
	var out []*domain.Loan
	for _, l := range r.loans {
		if filter.UserID != "" && l.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		clone := *l
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.OldestFirst {
			return out[i].ApplicationDate.Before(out[j].ApplicationDate)
		}
		return out[i].ApplicationDate.After(out[j].ApplicationDate)
	})
	return out, nil
}

func (r *stubLoanRepo) UpdateStatus(_ context.Context, id string, status domain.LoanStatus) error {
	l, ok := r.loans[id]
	if !ok {
		return domain.ErrLoanNotFound
	}
	l.Status = status
	return nil
}

func (r *stubLoanRepo) DistinctUserIDs(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range r.loans {
		if _, ok := seen[l.UserID]; !ok {
			seen[l.UserID] = struct{}{}
			out = append(out, l.UserID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *stubLoanRepo) CountByUser(_ context.Context, userID string) (int64, int64, error) {
	var total, pending int64
	for _, l := range r.loans {
		if l.UserID != userID {
			continue
		}
		total++
		if l.Status == domain.LoanPending {
			pending++
		}
	}
	return total, pending, nil
}

func (r *stubLoanRepo) SetVerificationForPending(_ context.Context, userID string, status domain.VerificationStatus, notes string) (int64, error) {
	var n int64
	for _, l := range r.loans {
		if l.UserID == userID && l.Status == domain.LoanPending {
			l.VerificationStatus = status
			if notes != "" {
				l.VerificationNotes = notes
			}
			n++
		}
	}
	return n, nil
}

func (r *stubLoanRepo) AggregateByStatus(_ context.Context) (map[domain.LoanStatus]ports.LoanAggregate, error) {
	out := make(map[domain.LoanStatus]ports.LoanAggregate)
	for _, l := range r.loans {
		agg := out[l.Status]
		agg.Count++
		agg.TotalAmount += l.Amount
		out[l.Status] = agg
	}
	return out, nil
}

type stubEMIRepo struct {
	emis      map[string]*domain.EMI
	seq       int
	insertErr error
	updateErr error
}

func newStubEMIRepo() *stubEMIRepo {
	return &stubEMIRepo{emis: make(map[string]*domain.EMI)}
}

func (r *stubEMIRepo) add(e *domain.EMI) *domain.EMI {
	if e.ID == "" {
		r.seq++
		e.ID = fmt.Sprintf("emi-%d", r.seq)
	}
	r.emis[e.ID] = e
	return e
}

func (r *stubEMIRepo) InsertBatch(_ context.Context, emis []*domain.EMI) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	for _, e := range emis {
		clone := *e
		stored := r.add(&clone)
		e.ID = stored.ID
	}
	return nil
}

func (r *stubEMIRepo) FindByID(_ context.Context, id string) (*domain.EMI, error) {
	e, ok := r.emis[id]
	if !ok {
		return nil, domain.ErrEMINotFound
	}
	clone := *e
	return &clone, nil
}

func (r *stubEMIRepo) Update(_ context.Context, emi *domain.EMI) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.emis[emi.ID]; !ok {
		return domain.ErrEMINotFound
	}
	clone := *emi
	r.emis[emi.ID] = &clone
	return nil
}

func (r *stubEMIRepo) sortedByDueDate(filter func(*domain.EMI) bool) []*domain.EMI {
	var out []*domain.EMI
	for _, e := range r.emis {
		if filter(e) {
			clone := *e
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

func (r *stubEMIRepo) ListAll(_ context.Context) ([]*domain.EMI, error) {
	return r.sortedByDueDate(func(*domain.EMI) bool { return true }), nil
}

func (r *stubEMIRepo) ListByUser(_ context.Context, userID string) ([]*domain.EMI, error) {
	return r.sortedByDueDate(func(e *domain.EMI) bool { return e.UserID == userID }), nil
}

func (r *stubEMIRepo) ListByLoan(_ context.Context, loanID string) ([]*domain.EMI, error) {
	return r.sortedByDueDate(func(e *domain.EMI) bool { return e.LoanID == loanID }), nil
}

func (r *stubEMIRepo) CountByLoan(_ context.Context, loanID string) (int64, error) {
	var n int64
	for _, e := range r.emis {
		if e.LoanID == loanID {
			n++
		}
	}
	return n, nil
}

func (r *stubEMIRepo) FindPendingDueBefore(_ context.Context, cutoff time.Time) ([]*domain.EMI, error) {
	return r.sortedByDueDate(func(e *domain.EMI) bool {
		return e.Status == domain.EMIPending && e.DueDate.Before(cutoff)
	}), nil
}

func (r *stubEMIRepo) MarkOverdue(_ context.Context, ids []string) error {
	for _, id := range ids {
		if e, ok := r.emis[id]; ok {
			e.Status = domain.EMIOverdue
		}
	}
	return nil
}

// stubTx runs the function directly; failures can be injected.
type stubTx struct {
	err error
}

func (t *stubTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.err != nil {
		return t.err
	}
	return fn(ctx)
}

// stubGuard tracks held locks; deny simulates a concurrent holder.
type stubGuard struct {
	held       map[string]bool
	deny       bool
	acquireErr error
}

func newStubGuard() *stubGuard {
	return &stubGuard{held: make(map[string]bool)}
}

func (g *stubGuard) Acquire(_ context.Context, key string) (bool, error) {
	if g.acquireErr != nil {
		return false, g.acquireErr
	}
	if g.deny || g.held[key] {
		return false, nil
	}
	g.held[key] = true
	return true, nil
}

func (g *stubGuard) Release(_ context.Context, key string) error {
	delete(g.held, key)
	return nil
}
