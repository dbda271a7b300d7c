package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/novachain/backend/internal/middleware"
	"github.com/novachain/backend/internal/service"
	"github.com/novachain/backend/pkg/response"
)

// AuthHandler handles authentication API requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register handles user registration
// POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.authService.Register(&req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

// Login handles user login by username or email
// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	token, err := h.authService.Login(&req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, token)
}

// Profile returns the authenticated user
// GET /api/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	user, err := h.authService.GetUserByID(middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, user)
}

// ChangePassword replaces the caller's password
// POST /api/profile/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authService.ChangePassword(middleware.GetUserID(c), &req); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"changed": true})
}

// RegisterRoutes registers auth routes. protected must already require a JWT.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)

	protected.GET("/profile", h.Profile)
	protected.POST("/profile/password", h.ChangePassword)
}
