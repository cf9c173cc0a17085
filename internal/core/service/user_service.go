package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quickloan/lending-system/internal/core/domain"
	"github.com/quickloan/lending-system/internal/core/ports"
)

// UserService covers profile management, KYC document submission and role
// administration.
type UserService struct {
	users  ports.UserRepository
	store  ports.DocumentStore
	logger zerolog.Logger
}

func NewUserService(users ports.UserRepository, store ports.DocumentStore, logger zerolog.Logger) *UserService {
	return &UserService{users: users, store: store, logger: logger}
}

func (s *UserService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile applies a partial profile update; zero-valued fields are left
// untouched.
func (s *UserService) UpdateProfile(ctx context.Context, input ports.UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Email != "" {
		user.Email = input.Email
	}
	if input.Phone != "" {
		user.Phone = input.Phone
	}
	if input.Address != "" {
		user.Address = input.Address
	}
	if input.AnnualIncome > 0 {
		user.AnnualIncome = input.AnnualIncome
	}
	if input.EmploymentType != "" {
		user.EmploymentType = input.EmploymentType
	}
	if input.EmploymentYears != "" {
		user.EmploymentYears = input.EmploymentYears
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// UploadDocuments stores the given files into their KYC slots. Once all three
// slots hold a document the user's verification state moves to pending.
func (s *UserService) UploadDocuments(ctx context.Context, userID string, uploads []ports.DocumentUpload) (domain.VerificationStatus, error) {
	if len(uploads) == 0 {
		return "", domain.ErrDocumentsIncomplete
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	for _, up := range uploads {
		filename, path, err := s.store.Save(up.OriginalName, up.Content)
		if err != nil {
			return "", fmt.Errorf("upload documents: store %s: %w", up.Slot, err)
		}
		doc := &domain.Document{
			Kind:       domain.DocumentFile,
			Filename:   filename,
			Path:       path,
			UploadDate: now,
		}
		switch up.Slot {
		case ports.SlotAadharCard:
			user.Documents.AadharCard = doc
		case ports.SlotPanCard:
			user.Documents.PanCard = doc
		case ports.SlotIncomeProof:
			user.Documents.IncomeProof = doc
		}
	}

	if user.Documents.Complete() && user.VerificationStatus != domain.VerificationVerified {
		if err := user.SetVerificationStatus(domain.VerificationPending, ""); err != nil {
			return "", err
		}
	}

	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return "", fmt.Errorf("upload documents: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("files", len(uploads)).
		Str("verification_status", string(user.VerificationStatus)).
		Msg("kyc documents uploaded")

	return user.VerificationStatus, nil
}

// SubmitSimplifiedKYC records bare external document ids for all three slots
// and unconditionally moves the verification state to pending.
func (s *UserService) SubmitSimplifiedKYC(ctx context.Context, input ports.SimplifiedKYCInput) (domain.VerificationStatus, error) {
	if input.AadharID == "" || input.PanID == "" || input.IncomeProofID == "" {
		return "", domain.ErrDocumentsIncomplete
	}

	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	user.Documents.AadharCard = &domain.Document{Kind: domain.DocumentReference, ExternalID: input.AadharID, UploadDate: now}
	user.Documents.PanCard = &domain.Document{Kind: domain.DocumentReference, ExternalID: input.PanID, UploadDate: now}
	user.Documents.IncomeProof = &domain.Document{Kind: domain.DocumentReference, ExternalID: input.IncomeProofID, UploadDate: now}

	if err := user.SetVerificationStatus(domain.VerificationPending, ""); err != nil {
		return "", err
	}

	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return "", fmt.Errorf("submit simplified kyc: %w", err)
	}

	s.logger.Info().Str("user_id", input.UserID).Msg("simplified kyc ids submitted")
	return user.VerificationStatus, nil
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

// MakeAdmin promotes a user to the admin role.
func (s *UserService) MakeAdmin(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleAdmin {
		return nil, domain.ErrAlreadyAdmin
	}

	user.Role = domain.RoleAdmin
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("make admin: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Msg("user promoted to admin")
	return user, nil
}
