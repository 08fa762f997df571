package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/IkingariSolorzano/cinepoints-be/services"
)

type LoyaltyController struct {
	loyaltyService *services.LoyaltyService
	auditService   *services.AuditService
}

func NewLoyaltyController(loyaltyService *services.LoyaltyService, auditService *services.AuditService) *LoyaltyController {
	return &LoyaltyController{
		loyaltyService: loyaltyService,
		auditService:   auditService,
	}
}

func (lc *LoyaltyController) GetRules(c *gin.Context) {
	rule, err := lc.loyaltyService.Rules().GetActiveRule(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch rules")
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (lc *LoyaltyController) UpdateRules(c *gin.Context) {
	var req services.RuleParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule, err := lc.loyaltyService.Rules().CreateRule(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to update rules")
		return
	}
	lc.auditService.Record(c.Request.Context(), currentUserID(c), services.AuditUpdateRules, services.EntityPointRule, strconv.FormatUint(uint64(rule.ID), 10), map[string]any{"sequence": rule.Sequence})
	c.JSON(http.StatusOK, rule)
}

func (lc *LoyaltyController) Rewards(c *gin.Context) {
	c.JSON(http.StatusOK, lc.loyaltyService.Catalog().List())
}

func (lc *LoyaltyController) Ledger(c *gin.Context) {
	id, ok := paramUUID(c, "customerId")
	if !ok {
		return
	}
	entries, err := lc.loyaltyService.Ledger().Entries(c.Request.Context(), id, queryInt(c, "limit", 20))
	if err != nil {
		respondError(c, err, "failed to fetch ledger")
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (lc *LoyaltyController) Reconcile(c *gin.Context) {
	id, ok := paramUUID(c, "customerId")
	if !ok {
		return
	}
	rec, err := lc.loyaltyService.Ledger().Reconcile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to reconcile ledger")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reconciliation": rec,
		"balanced":       rec.Balanced(),
	})
}

func (lc *LoyaltyController) TierHistory(c *gin.Context) {
	id, ok := paramUUID(c, "customerId")
	if !ok {
		return
	}
	history, err := lc.loyaltyService.Tiers().History(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to fetch tier history")
		return
	}
	c.JSON(http.StatusOK, history)
}

func (lc *LoyaltyController) CheckTier(c *gin.Context) {
	id, ok := paramUUID(c, "customerId")
	if !ok {
		return
	}
	change, err := lc.loyaltyService.CheckTier(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to check tier")
		return
	}
	c.JSON(http.StatusOK, change)
}

type RedeemPointsRequest struct {
	CustomerID uuid.UUID `json:"customer_id" binding:"required"`
	Points     int64     `json:"points"`
	Note       string    `json:"note"`
}

func (lc *LoyaltyController) RedeemPoints(c *gin.Context) {
	var req RedeemPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := lc.loyaltyService.RedeemPoints(c.Request.Context(), req.CustomerID, req.Points); err != nil {
		respondError(c, err, "redemption failed")
		return
	}
	lc.auditService.Record(c.Request.Context(), currentUserID(c), services.AuditRedeemPoints, services.EntityCustomer, req.CustomerID.String(), map[string]any{
		"points": req.Points,
		"note":   req.Note,
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type RedeemVoucherRequest struct {
	CustomerID uuid.UUID `json:"customer_id" binding:"required"`
	RewardID   string    `json:"reward_id" binding:"required"`
}

func (lc *LoyaltyController) RedeemVoucher(c *gin.Context) {
	var req RedeemVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := lc.loyaltyService.RedeemVoucher(c.Request.Context(), req.CustomerID, req.RewardID)
	if err != nil {
		respondError(c, err, "redemption failed")
		return
	}
	lc.auditService.Record(c.Request.Context(), currentUserID(c), services.AuditRedeemVoucher, services.EntityCustomer, req.CustomerID.String(), map[string]any{
		"rewardId":    req.RewardID,
		"voucherCode": result.Voucher.Code,
	})
	c.JSON(http.StatusOK, result)
}

func (lc *LoyaltyController) RewardVouchers(c *gin.Context) {
	raw := c.Query("customer_id")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id is required"})
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
		return
	}
	vouchers, err := lc.loyaltyService.RewardVouchers(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to fetch vouchers")
		return
	}
	c.JSON(http.StatusOK, vouchers)
}

func (lc *LoyaltyController) UseRewardVoucher(c *gin.Context) {
	code := c.Param("code")
	voucher, err := lc.loyaltyService.UseRewardVoucher(c.Request.Context(), code)
	if err != nil {
		respondError(c, err, "failed to use voucher")
		return
	}
	lc.auditService.Record(c.Request.Context(), currentUserID(c), services.AuditUseVoucher, services.EntityRewardVoucher, voucher.ID.String(), map[string]any{"code": code})
	c.JSON(http.StatusOK, voucher)
}

func (lc *LoyaltyController) TopCustomers(c *gin.Context) {
	rows, err := lc.loyaltyService.GetTopCustomers(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, err, "failed to fetch top customers")
		return
	}
	c.JSON(http.StatusOK, rows)
}
