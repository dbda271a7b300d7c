package service

import (
	"github.com/novachain/backend/internal/models"
	"github.com/novachain/backend/internal/repository"
)

// AdminUser is a user as shown to operators
type AdminUser struct {
	models.User
	KYCSelfie string            `json:"kyc_selfie"`
	KYCIDCard string            `json:"kyc_id_card"`
	TradeMode *models.TradeMode `json:"trade_mode"`
}

// AdminService backs the operator endpoints
type AdminService struct {
	users    *repository.UserRepository
	resolver *ModeResolver
}

// NewAdminService creates a new AdminService
func NewAdminService(users *repository.UserRepository, resolver *ModeResolver) *AdminService {
	return &AdminService{users: users, resolver: resolver}
}

// Users lists every user with their trade mode override
func (s *AdminService) Users() ([]AdminUser, error) {
	users, err := s.users.List()
	if err != nil {
		return nil, err
	}
	overrides, err := s.resolver.UserOverrides()
	if err != nil {
		return nil, err
	}

	out := make([]AdminUser, 0, len(users))
	for _, u := range users {
		au := AdminUser{User: u, KYCSelfie: u.KYCSelfie, KYCIDCard: u.KYCIDCard}
		if mode, ok := overrides[u.ID]; ok {
			m := mode
			au.TradeMode = &m
		}
		out = append(out, au)
	}
	return out, nil
}

// DeleteUser soft deletes a user; trade history is kept
func (s *AdminService) DeleteUser(id uint) error {
	return s.users.Delete(id)
}
