package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IkingariSolorzano/cinepoints-be/models"
	"github.com/IkingariSolorzano/cinepoints-be/services"
)

// AdminController covers staff accounts, the audit trail and manual runs
// of the scheduled jobs.
type AdminController struct {
	authService    *services.AuthService
	auditService   *services.AuditService
	loyaltyService *services.LoyaltyService
}

func NewAdminController(authService *services.AuthService, auditService *services.AuditService, loyaltyService *services.LoyaltyService) *AdminController {
	return &AdminController{
		authService:    authService,
		auditService:   auditService,
		loyaltyService: loyaltyService,
	}
}

type CreateUserRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	Role     models.UserRole `json:"role" binding:"required,oneof=ADMIN OPERATOR VIEWER"`
}

func (ac *AdminController) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.authService.CreateUser(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		respondError(c, err, "failed to create user")
		return
	}
	ac.auditService.Record(c.Request.Context(), currentUserID(c), services.AuditCreateUser, services.EntityUser, user.ID.String(), map[string]any{"role": user.Role})

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user,
	})
}

func (ac *AdminController) GetUsers(c *gin.Context) {
	users, err := ac.authService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch users")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (ac *AdminController) GetAuditLogs(c *gin.Context) {
	logs, err := ac.auditService.List(c.Request.Context(), c.Query("entity_type"), queryInt(c, "limit", 100))
	if err != nil {
		respondError(c, err, "failed to fetch audit logs")
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (ac *AdminController) RunPointsExpiry(c *gin.Context) {
	report, err := ac.loyaltyService.ExpirePoints(c.Request.Context())
	if err != nil {
		respondError(c, err, "points expiry failed")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (ac *AdminController) RunRewardVoucherExpiry(c *gin.Context) {
	n, err := ac.loyaltyService.ExpireRewardVouchers(c.Request.Context())
	if err != nil {
		respondError(c, err, "reward voucher expiry failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"expired": n})
}
