// File: internal/auth/handler.go
package auth

import (
	"errors"
	"time"

	"farmlink_backend/internal/common"
	"farmlink_backend/internal/middleware"
	"farmlink_backend/internal/shared"
	"farmlink_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	userService  UserAccountProvider
	tokenService shared.TokenService
	blocklist    TokenBlocklistService
	logger       *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(
	userService UserAccountProvider,
	tokenService shared.TokenService,
	blocklist TokenBlocklistService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		userService:  userService,
		tokenService: tokenService,
		blocklist:    blocklist,
		logger:       logger,
	}
}

// RegisterRoutes sets up the routes for authentication operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/refresh-token", h.refreshToken)

		authenticated := authGroup.Group("")
		authenticated.Use(authMW)
		{
			authenticated.POST("/logout", h.logout)
			authenticated.POST("/change-password", h.changePassword)
		}
	}
}

func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Register: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	role, err := common.ParseRole(req.Role)
	if err != nil {
		common.RespondWithError(c, common.NewValidationAPIError(map[string]string{
			"role": "The role field must be one of: farmer, buyer, foodbank.",
		}))
		return
	}

	newUser, tokenResponse, err := h.userService.Register(c.Request.Context(), shared.CreateUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role.String(),
		Location: req.Location,
		Phone:    req.Phone,
	})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	response := gin.H{
		"user":  user.ToUserResponse(newUser),
		"token": tokenResponse,
	}
	common.RespondCreated(c, "Account registered successfully.", response)
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Login: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	loggedInUser, tokenResponse, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	response := gin.H{
		"user":  user.ToUserResponse(loggedInUser),
		"token": tokenResponse,
	}
	common.RespondOK(c, "Login successful.", response)
}

func (h *Handler) refreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Refresh token: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	claims, err := h.tokenService.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		h.logger.Warn("Refresh token validation failed", zap.Error(err))
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired refresh token."))
		return
	}

	u, err := h.userService.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("User not found for valid refresh token claims",
			zap.String("userID", claims.UserID.String()), zap.Error(err))
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User associated with refresh token not found."))
		return
	}

	newAccessToken, newAccessExpiresAt, err := h.tokenService.GenerateAccessToken(sharedUserTokenData{u})
	if err != nil {
		h.logger.Error("Failed to generate new access token during refresh",
			zap.Error(err), zap.String("userID", u.ID.String()))
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not generate new access token."))
		return
	}

	newTokenResponse := &shared.TokenResponse{
		AccessToken:  newAccessToken,
		RefreshToken: req.RefreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    newAccessExpiresAt,
	}
	common.RespondOK(c, "Token refreshed successfully.", newTokenResponse)
}

// logout revokes the current access token, and the refresh token too when the
// client sends it along.
func (h *Handler) logout(c *gin.Context) {
	claims := middleware.GetUserClaimsFromContext(c)
	if claims == nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := h.blocklist.AddToBlocklist(c.Request.Context(), claims.ID, expiresAt); err != nil {
		h.logger.Error("Failed to blocklist access token on logout", zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not complete logout."))
		return
	}

	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		if refreshClaims, err := h.tokenService.ParseRefreshToken(req.RefreshToken); err == nil {
			var refreshExpiresAt time.Time
			if refreshClaims.ExpiresAt != nil {
				refreshExpiresAt = refreshClaims.ExpiresAt.Time
			}
			if err := h.blocklist.AddToBlocklist(c.Request.Context(), refreshClaims.ID, refreshExpiresAt); err != nil {
				h.logger.Warn("Failed to blocklist refresh token on logout", zap.Error(err))
			}
		}
	}

	common.RespondOK(c, "Logged out successfully.", nil)
}

func (h *Handler) changePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Change password: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Password changed successfully.", nil)
}

// sharedUserTokenData adapts a shared.User to the token generation interface.
type sharedUserTokenData struct {
	u *shared.User
}

func (d sharedUserTokenData) GetID() uuid.UUID { return d.u.ID }
func (d sharedUserTokenData) GetEmail() string { return d.u.Email }
func (d sharedUserTokenData) GetRole() string  { return d.u.Role }
