package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// VerificationStatus represents the KYC state of a user.
type VerificationStatus string

const (
	VerificationNotSubmitted VerificationStatus = "not_submitted"
	VerificationPending      VerificationStatus = "pending"
	VerificationVerified     VerificationStatus = "verified"
	VerificationRejected     VerificationStatus = "rejected"
)

// ValidVerificationStatus reports whether s is one of the known KYC states.
func ValidVerificationStatus(s VerificationStatus) bool {
	switch s {
	case VerificationNotSubmitted, VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrForbidden = errors.New("access forbidden")
var ErrAlreadyAdmin = errors.New("user is already an admin")
var ErrInvalidVerificationStatus = errors.New("invalid verification status")
var ErrDocumentsIncomplete = errors.New("all document ids are required")
var ErrUserNotVerified = errors.New("user is not verified")

// DocumentKind distinguishes the two submission paths for a KYC document.
type DocumentKind string

const (
	DocumentFile      DocumentKind = "file"      // uploaded binary stored on disk
	DocumentReference DocumentKind = "reference" // bare external document id
)

// Document is one KYC document slot. Exactly one representation is populated,
// selected by Kind.
type Document struct {
	Kind       DocumentKind `json:"kind" bson:"kind"`
	Filename   string       `json:"filename,omitempty" bson:"filename,omitempty"`
	Path       string       `json:"-" bson:"path,omitempty"`
	ExternalID string       `json:"external_id,omitempty" bson:"external_id,omitempty"`
	UploadDate time.Time    `json:"upload_date" bson:"upload_date"`
}

// Label returns the reviewer-visible identifier of the document: the stored
// filename for uploads, the external id for simplified KYC submissions.
func (d *Document) Label() string {
	if d == nil {
		return ""
	}
	if d.Kind == DocumentReference {
		return d.ExternalID
	}
	return d.Filename
}

// Documents holds the three KYC slots. A nil slot means nothing submitted.
type Documents struct {
	AadharCard  *Document `json:"aadhar_card,omitempty" bson:"aadhar_card,omitempty"`
	PanCard     *Document `json:"pan_card,omitempty" bson:"pan_card,omitempty"`
	IncomeProof *Document `json:"income_proof,omitempty" bson:"income_proof,omitempty"`
}

// Complete reports whether all three slots are populated.
func (d Documents) Complete() bool {
	return d.AadharCard != nil && d.PanCard != nil && d.IncomeProof != nil
}

// User models a registered customer or admin.
type User struct {
	ID              string  `json:"id" bson:"_id,omitempty"`
	Name            string  `json:"name" bson:"name"`
	Email           string  `json:"email" bson:"email"`
	PasswordHash    string  `json:"-" bson:"password_hash"`
	Role            string  `json:"role" bson:"role"`
	Phone           string  `json:"phone,omitempty" bson:"phone,omitempty"`
	Address         string  `json:"address,omitempty" bson:"address,omitempty"`
	AnnualIncome    float64 `json:"annual_income,omitempty" bson:"annual_income,omitempty"`
	EmploymentType  string  `json:"employment_type,omitempty" bson:"employment_type,omitempty"`
	EmploymentYears string  `json:"employment_years,omitempty" bson:"employment_years,omitempty"`

	VerificationStatus VerificationStatus `json:"verification_status" bson:"verification_status"`
	VerificationNotes  string             `json:"verification_notes,omitempty" bson:"verification_notes,omitempty"`
	Documents          Documents          `json:"documents" bson:"documents"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// IsVerified derives the boolean from the status enum. The enum is the single
// source of truth; there is no stored boolean that can drift out of sync.
func (u *User) IsVerified() bool {
	return u.VerificationStatus == VerificationVerified
}

// SetVerificationStatus is the only mutation path for the KYC state. Every
// promotion or demotion, whether by admin decision or by the auto-verify
// policy, goes through here.
func (u *User) SetVerificationStatus(status VerificationStatus, notes string) error {
	if !ValidVerificationStatus(status) {
		return ErrInvalidVerificationStatus
	}
	u.VerificationStatus = status
	if notes != "" {
		u.VerificationNotes = notes
	}
	return nil
}
