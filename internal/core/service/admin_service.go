package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/quickloan/lending-system/internal/core/domain"
	"github.com/quickloan/lending-system/internal/core/ports"
)

// verificationPriority orders the triage queue: the states needing admin
// attention come first.
var verificationPriority = map[domain.VerificationStatus]int{
	domain.VerificationPending:      0,
	domain.VerificationNotSubmitted: 1,
	domain.VerificationRejected:     2,
	domain.VerificationVerified:     3,
}

// AdminService backs the verification panel and the dashboard.
type AdminService struct {
	users  ports.UserRepository
	loans  ports.LoanRepository
	logger zerolog.Logger
}

func NewAdminService(users ports.UserRepository, loans ports.LoanRepository, logger zerolog.Logger) *AdminService {
	return &AdminService{users: users, loans: loans, logger: logger}
}

// VerificationCandidates lists every user the panel should show: anyone who
// holds a loan, plus anyone whose KYC state is not yet verified. Users with
// pending loans sort first, then by verification-status priority.
func (s *AdminService) VerificationCandidates(ctx context.Context) ([]ports.VerificationCandidate, error) {
	withLoans, err := s.loans.DistinctUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("verification candidates: %w", err)
	}

	needingReview, err := s.users.FindByVerificationStatus(ctx, []domain.VerificationStatus{
		domain.VerificationPending,
		domain.VerificationNotSubmitted,
		domain.VerificationRejected,
	})
	if err != nil {
		return nil, fmt.Errorf("verification candidates: %w", err)
	}

	seen := make(map[string]struct{}, len(withLoans)+len(needingReview))
	ids := make([]string, 0, len(withLoans)+len(needingReview))
	for _, id := range withLoans {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, u := range needingReview {
		if _, ok := seen[u.ID]; !ok {
			seen[u.ID] = struct{}{}
			ids = append(ids, u.ID)
		}
	}
	if len(ids) == 0 {
		return []ports.VerificationCandidate{}, nil
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("verification candidates: %w", err)
	}

	candidates := make([]ports.VerificationCandidate, 0, len(users))
	for _, u := range users {
		total, pending, err := s.loans.CountByUser(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("verification candidates: count loans for %s: %w", u.ID, err)
		}
		candidates = append(candidates, ports.VerificationCandidate{
			UserID:             u.ID,
			Name:               u.Name,
			Email:              u.Email,
			Phone:              u.Phone,
			VerificationStatus: u.VerificationStatus,
			LoanCount:          total,
			PendingLoanCount:   pending,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if (a.PendingLoanCount > 0) != (b.PendingLoanCount > 0) {
			return a.PendingLoanCount > 0
		}
		return verificationPriority[a.VerificationStatus] < verificationPriority[b.VerificationStatus]
	})

	return candidates, nil
}

// UserDocuments returns the reviewer-visible labels of a user's three KYC
// slots; a nil entry means nothing submitted for that slot. Both document
// representations (stored file, bare external id) are handled.
func (s *AdminService) UserDocuments(ctx context.Context, userID string) (*ports.UserDocumentsView, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &ports.UserDocumentsView{}
	if label := user.Documents.AadharCard.Label(); label != "" {
		view.AadharCard = &label
	}
	if label := user.Documents.PanCard.Label(); label != "" {
		view.PanCard = &label
	}
	if label := user.Documents.IncomeProof.Label(); label != "" {
		view.IncomeProof = &label
	}
	return view, nil
}

// UpdateVerification applies an explicit admin KYC decision and cascades the
// new status onto the user's still-pending loans' verification snapshot.
func (s *AdminService) UpdateVerification(ctx context.Context, decision ports.VerificationDecision) (*domain.User, error) {
	switch decision.Status {
	case domain.VerificationVerified, domain.VerificationRejected, domain.VerificationPending:
	default:
		return nil, domain.ErrInvalidVerificationStatus
	}

	user, err := s.users.FindByID(ctx, decision.UserID)
	if err != nil {
		return nil, err
	}

	if err := user.SetVerificationStatus(decision.Status, decision.Notes); err != nil {
		return nil, err
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update verification: %w", err)
	}

	updated, err := s.loans.SetVerificationForPending(ctx, user.ID, decision.Status, decision.Notes)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to cascade verification onto pending loans")
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("status", string(decision.Status)).
		Int64("loans_updated", updated).
		Msg("verification status updated")

	return user, nil
}

// QuickVerify force-verifies a user without document review. It reuses the
// same single verification transition as the regular admin decision.
func (s *AdminService) QuickVerify(ctx context.Context, userID string) (*domain.User, error) {
	return s.UpdateVerification(ctx, ports.VerificationDecision{
		UserID: userID,
		Status: domain.VerificationVerified,
	})
}

// Stats aggregates user counts per KYC state and loan counts plus summed
// amounts per loan status.
func (s *AdminService) Stats(ctx context.Context) (*ports.AdminStats, error) {
	verification, err := s.users.CountByVerificationStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	loanStats, err := s.loans.AggregateByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	return &ports.AdminStats{
		VerificationCounts: verification,
		LoanStats:          loanStats,
	}, nil
}
