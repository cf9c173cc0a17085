package ports

import (
	"context"
	"io"

	"github.com/quickloan/lending-system/internal/core/domain"
)

// DocumentSlot names one of the three KYC document positions.
type DocumentSlot string

const (
	SlotAadharCard  DocumentSlot = "aadhar_card"
	SlotPanCard     DocumentSlot = "pan_card"
	SlotIncomeProof DocumentSlot = "income_proof"
)

// DocumentUpload is one incoming file for a KYC slot.
type DocumentUpload struct {
	Slot         DocumentSlot
	OriginalName string
	Content      io.Reader
}

// DocumentStore persists uploaded document binaries and serves them back.
type DocumentStore interface {
	// Save stores the content under a unique name and returns the stored
	// filename and its path.
	Save(originalName string, content io.Reader) (filename, path string, err error)
	// Open returns a reader for a previously stored filename.
	Open(filename string) (io.ReadCloser, error)
}

// UpdateProfileInput carries a partial profile update; zero values are ignored.
type UpdateProfileInput struct {
	UserID          string
	Name            string
	Email           string
	Phone           string
	Address         string
	AnnualIncome    float64
	EmploymentType  string
	EmploymentYears string
}

// SimplifiedKYCInput carries the textual document ids of the simplified
// submission path. All three are required.
type SimplifiedKYCInput struct {
	UserID        string
	AadharID      string
	PanID         string
	IncomeProofID string
}

// UserService covers profile management, KYC document submission and
// role administration.
type UserService interface {
	Profile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, input UpdateProfileInput) (*domain.User, error)
	// UploadDocuments stores the given files into their slots; once all three
	// slots are filled the user's KYC state moves to pending.
	UploadDocuments(ctx context.Context, userID string, uploads []DocumentUpload) (domain.VerificationStatus, error)
	// SubmitSimplifiedKYC records bare external document ids and moves the
	// KYC state to pending.
	SubmitSimplifiedKYC(ctx context.Context, input SimplifiedKYCInput) (domain.VerificationStatus, error)
	List(ctx context.Context) ([]*domain.User, error)
	MakeAdmin(ctx context.Context, userID string) (*domain.User, error)
}
