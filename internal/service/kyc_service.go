package service

import (
	"strings"

	"github.com/novachain/backend/internal/models"
	"github.com/novachain/backend/internal/repository"
)

// KYCService tracks identity review. Documents are opaque references.
type KYCService struct {
	users *repository.UserRepository
}

// NewKYCService creates a new KYCService
func NewKYCService(users *repository.UserRepository) *KYCService {
	return &KYCService{users: users}
}

// KYCRequest carries references to already stored documents
type KYCRequest struct {
	Selfie string `json:"selfie"`
	IDCard string `json:"id_card"`
}

// Submit stores the references and marks the user pending review
func (s *KYCService) Submit(userID uint, req *KYCRequest) error {
	selfie := strings.TrimSpace(req.Selfie)
	idCard := strings.TrimSpace(req.IDCard)
	if selfie == "" || idCard == "" {
		return ErrMissingFields
	}
	return s.users.UpdateKYC(userID, models.KYCPending, selfie, idCard)
}

// Status returns the review state of a user
func (s *KYCService) Status(userID uint) (models.KYCStatus, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return "", err
	}
	if user.KYCStatus == "" {
		return models.KYCUnverified, nil
	}
	return user.KYCStatus, nil
}

// SetStatus records an admin decision: approved, rejected or pending
func (s *KYCService) SetStatus(userID uint, status string) error {
	st := models.KYCStatus(strings.ToLower(strings.TrimSpace(status)))
	switch st {
	case models.KYCApproved, models.KYCRejected, models.KYCPending:
	default:
		return ErrInvalidStatus
	}
	return s.users.UpdateKYC(userID, st, "", "")
}
