package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"accounts-api/internal/metrics"
	"accounts-api/internal/service"
)

// AccountHandler mantiene dependencias para endpoints de cuentas.
type AccountHandler struct {
	logger     *zap.Logger
	accountSvc *service.AccountService
	metrics    *metrics.Metrics
}

// NewAccountHandler crea una instancia de AccountHandler con dependencias necesarias.
func NewAccountHandler(logger *zap.Logger, accountSvc *service.AccountService, m *metrics.Metrics) *AccountHandler {
	return &AccountHandler{
		logger:     logger,
		accountSvc: accountSvc,
		metrics:    m,
	}
}

// CreateAccount maneja POST /accounts.
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req struct {
		Email          string     `json:"email" binding:"required,email"`
		Username       string     `json:"username"`
		Password       string     `json:"password" binding:"required"`
		EmailEnabled   bool       `json:"email_enabled"`
		Credits        int64      `json:"credits"`
		PremiumEndDate *time.Time `json:"premium_end_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create account request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	id, err := h.accountSvc.CreateAccount(c.Request.Context(), service.CreateAccountInput{
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		EmailEnabled:   req.EmailEnabled,
		Credits:        req.Credits,
		PremiumEndDate: req.PremiumEndDate,
	})
	if err != nil {
		h.metrics.CredentialEvent("create_account", "failure")
		writeServiceError(c, h.logger, "could not create account", err)
		return
	}

	h.metrics.CredentialEvent("create_account", "success")
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// AccountExists maneja GET /accounts/exists?email=.
func (h *AccountHandler) AccountExists(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	exists, err := h.accountSvc.AccountExistsByEmail(c.Request.Context(), email)
	if err != nil {
		writeServiceError(c, h.logger, "could not check account", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

// GetPublicProfile maneja GET /accounts/:id.
func (h *AccountHandler) GetPublicProfile(c *gin.Context) {
	profile, err := h.accountSvc.GetPublicProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.logger, "could not load account", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": profile})
}

// GetMe maneja GET /accounts/me.
func (h *AccountHandler) GetMe(c *gin.Context) {
	id, ok := currentAccountID(c)
	if !ok {
		return
	}
	profile, err := h.accountSvc.GetOwnerProfile(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.logger, "could not load account", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": profile})
}

// UpdateEmailPreference maneja PUT /accounts/me/email-preference.
func (h *AccountHandler) UpdateEmailPreference(c *gin.Context) {
	id, ok := currentAccountID(c)
	if !ok {
		return
	}
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	account, err := h.accountSvc.UpdateEmailPreference(c.Request.Context(), id, *req.Enabled)
	if err != nil {
		writeServiceError(c, h.logger, "could not update email preference", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account.OwnerProfile()})
}

// UpdateEmail maneja PUT /accounts/me/email.
func (h *AccountHandler) UpdateEmail(c *gin.Context) {
	id, ok := currentAccountID(c)
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	account, err := h.accountSvc.UpdateEmailAddress(c.Request.Context(), id, req.Email)
	if err != nil {
		writeServiceError(c, h.logger, "could not update email", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account.OwnerProfile()})
}

// UpdateUsername maneja PUT /accounts/me/username.
func (h *AccountHandler) UpdateUsername(c *gin.Context) {
	id, ok := currentAccountID(c)
	if !ok {
		return
	}
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	account, err := h.accountSvc.UpdateUsername(c.Request.Context(), id, req.Username)
	if err != nil {
		writeServiceError(c, h.logger, "could not update username", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account.OwnerProfile()})
}

// UpdatePassword maneja PUT /accounts/me/password.
func (h *AccountHandler) UpdatePassword(c *gin.Context) {
	id, ok := currentAccountID(c)
	if !ok {
		return
	}
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	_, err := h.accountSvc.UpdatePassword(c.Request.Context(), id, req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.metrics.CredentialEvent("update_password", "failure")
		writeServiceError(c, h.logger, "could not update password", err)
		return
	}
	h.metrics.CredentialEvent("update_password", "success")
	c.Status(http.StatusNoContent)
}
