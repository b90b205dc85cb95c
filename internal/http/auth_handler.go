package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"accounts-api/internal/email"
	"accounts-api/internal/metrics"
	"accounts-api/internal/service"
)

// AuthHandlerOptions ajusta el flujo de reseteo expuesto por HTTP.
type AuthHandlerOptions struct {
	// ResetURLBase, si está presente, se envía como enlace con el token en ?token=.
	ResetURLBase string
	// UniformResetResponse responde 202 aunque el email no esté registrado.
	UniformResetResponse bool
}

// AuthHandler mantiene dependencias para login, sesiones y reseteo de contraseña.
type AuthHandler struct {
	logger      *zap.Logger
	accountSvc  *service.AccountService
	jwtSvc      *service.JWTService
	emailSender email.Sender
	metrics     *metrics.Metrics
	opts        AuthHandlerOptions
}

func NewAuthHandler(logger *zap.Logger, accountSvc *service.AccountService, jwtSvc *service.JWTService, emailSender email.Sender, m *metrics.Metrics, opts AuthHandlerOptions) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		accountSvc:  accountSvc,
		jwtSvc:      jwtSvc,
		emailSender: emailSender,
		metrics:     m,
		opts:        opts,
	}
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	account, err := h.accountSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.CredentialEvent("login", "failure")
		writeServiceError(c, h.logger, "could not login", err)
		return
	}

	if h.jwtSvc == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}
	tokens, err := h.jwtSvc.GeneratePair(account)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}
	h.metrics.CredentialEvent("login", "success")
	c.JSON(http.StatusOK, gin.H{"account": account.OwnerProfile(), "tokens": tokens})
}

// RefreshToken maneja POST /auth/refresh.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid refresh request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if h.jwtSvc == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}
	tokens, err := h.jwtSvc.RefreshPair(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout maneja POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid logout request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if h.jwtSvc == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
		return
	}
	_ = h.jwtSvc.RevokeRefresh(req.RefreshToken)
	c.Status(http.StatusNoContent)
}

// ForgotPassword maneja POST /auth/password/forgot.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid forgot password request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ticket, err := h.accountSvc.IssuePasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, service.ErrNoAccountForEmail) {
			h.metrics.CredentialEvent("password_reset_request", "unknown_email")
			if h.opts.UniformResetResponse {
				c.JSON(http.StatusAccepted, gin.H{"status": "reset_requested"})
				return
			}
		} else {
			h.metrics.CredentialEvent("password_reset_request", "failure")
		}
		writeServiceError(c, h.logger, "could not request password reset", err)
		return
	}

	msg := email.PasswordResetMessage{
		To:        req.Email,
		Token:     ticket.Token,
		ResetURL:  h.resetURL(ticket.Token),
		ExpiresAt: ticket.ExpiresAt,
	}
	if h.emailSender == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery unavailable"})
		return
	}
	if err := h.emailSender.SendPasswordReset(c.Request.Context(), msg); err != nil {
		h.logger.Warn("send password reset failed", zap.Error(err))
		h.metrics.CredentialEvent("password_reset_request", "email_failure")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery unavailable"})
		return
	}

	h.metrics.CredentialEvent("password_reset_request", "success")
	c.JSON(http.StatusAccepted, gin.H{"status": "reset_requested"})
}

// ResetPassword maneja POST /auth/password/reset.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid reset password request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.accountSvc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, service.ErrResetTokenInvalid) {
			h.metrics.CredentialEvent("password_reset", "invalid_token")
		} else {
			h.metrics.CredentialEvent("password_reset", "failure")
		}
		writeServiceError(c, h.logger, "could not reset password", err)
		return
	}
	h.metrics.CredentialEvent("password_reset", "success")
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) resetURL(token string) string {
	if h.opts.ResetURLBase == "" {
		return ""
	}
	u, err := url.Parse(h.opts.ResetURLBase)
	if err != nil {
		h.logger.Warn("invalid reset url base", zap.Error(err))
		return ""
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
