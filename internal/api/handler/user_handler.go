package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quickloan/lending-system/internal/core/domain"
	"github.com/quickloan/lending-system/internal/core/ports"
)

// maxDocumentSize caps each uploaded KYC file at 5 MB.
const maxDocumentSize = 5 << 20

// UserHandler handles profile, KYC submission and role administration.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type updateProfileRequest struct {
	Name            string  `json:"name,omitempty"`
	Email           string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone           string  `json:"phone,omitempty"`
	Address         string  `json:"address,omitempty"`
	AnnualIncome    float64 `json:"annual_income,omitempty"`
	EmploymentType  string  `json:"employment_type,omitempty"`
	EmploymentYears string  `json:"employment_years,omitempty"`
}

type simplifiedKYCRequest struct {
	AadharID      string `json:"aadhar_id"       validate:"required"`
	PanID         string `json:"pan_id"          validate:"required"`
	IncomeProofID string `json:"income_proof_id" validate:"required"`
}

type kycStatusResponse struct {
	VerificationStatus domain.VerificationStatus `json:"verification_status"`
}

type listUsersResponse struct {
	Users []*domain.User `json:"users"`
	Count int            `json:"count"`
}

// Profile handles GET /users/profile.
//
// @Summary      Own profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /users/profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	req, err := ctxRequester(c)
	if err != nil {
		return err
	}
	user, err := h.service.Profile(c.Request().Context(), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PUT /users/profile. Omitted fields stay untouched.
//
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to update"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Router       /users/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	req, err := ctxRequester(c)
	if err != nil {
		return err
	}

	var body updateProfileRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), ports.UpdateProfileInput{
		UserID:          req.UserID,
		Name:            body.Name,
		Email:           body.Email,
		Phone:           body.Phone,
		Address:         body.Address,
		AnnualIncome:    body.AnnualIncome,
		EmploymentType:  body.EmploymentType,
		EmploymentYears: body.EmploymentYears,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UploadDocuments handles POST /users/documents — multipart upload of up to
// three KYC files, one per slot.
//
// @Summary      Upload KYC documents
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        aadhar_card   formData  file  false  "Aadhar card"
// @Param        pan_card      formData  file  false  "PAN card"
// @Param        income_proof  formData  file  false  "Income proof"
// @Success      200  {object}  kycStatusResponse
// @Failure      400  {object}  map[string]string
// @Router       /users/documents [post]
func (h *UserHandler) UploadDocuments(c echo.Context) error {
	req, err := ctxRequester(c)
	if err != nil {
		return err
	}

	slots := []ports.DocumentSlot{ports.SlotAadharCard, ports.SlotPanCard, ports.SlotIncomeProof}
	uploads := make([]ports.DocumentUpload, 0, len(slots))
	for _, slot := range slots {
		fh, err := c.FormFile(string(slot))
		if err != nil {
			continue // slot not part of this submission
		}
		if fh.Size > maxDocumentSize {
			return echo.NewHTTPError(http.StatusBadRequest, string(slot)+" exceeds the 5 MB limit")
		}
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "cannot read "+string(slot))
		}
		defer f.Close()
		uploads = append(uploads, ports.DocumentUpload{
			Slot:         slot,
			OriginalName: fh.Filename,
			Content:      f,
		})
	}

	status, err := h.service.UploadDocuments(c.Request().Context(), req.UserID, uploads)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, kycStatusResponse{VerificationStatus: status})
}

// SubmitSimplifiedKYC handles POST /users/kyc-simplified — textual document
// ids instead of file uploads.
//
// @Summary      Submit simplified KYC document ids
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      simplifiedKYCRequest  true  "Document ids"
// @Success      200   {object}  kycStatusResponse
// @Failure      400   {object}  map[string]string
// @Router       /users/kyc-simplified [post]
func (h *UserHandler) SubmitSimplifiedKYC(c echo.Context) error {
	req, err := ctxRequester(c)
	if err != nil {
		return err
	}

	var body simplifiedKYCRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	status, err := h.service.SubmitSimplifiedKYC(c.Request().Context(), ports.SimplifiedKYCInput{
		UserID:        req.UserID,
		AadharID:      body.AadharID,
		PanID:         body.PanID,
		IncomeProofID: body.IncomeProofID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, kycStatusResponse{VerificationStatus: status})
}

// List handles GET /users (admin).
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listUsersResponse
// @Failure      403  {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listUsersResponse{Users: users, Count: len(users)})
}

// MakeAdmin handles PUT /users/:id/make-admin (admin).
//
// @Summary      Promote a user to admin
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id}/make-admin [put]
func (h *UserHandler) MakeAdmin(c echo.Context) error {
	user, err := h.service.MakeAdmin(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
