package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/IkingariSolorzano/cinepoints-be/models"
	"github.com/IkingariSolorzano/cinepoints-be/repository"
	"github.com/IkingariSolorzano/cinepoints-be/services"
)

type TransactionController struct {
	transactionService *services.TransactionService
	auditService       *services.AuditService
}

func NewTransactionController(transactionService *services.TransactionService, auditService *services.AuditService) *TransactionController {
	return &TransactionController{
		transactionService: transactionService,
		auditService:       auditService,
	}
}

func (tc *TransactionController) List(c *gin.Context) {
	filter := repository.TransactionFilter{
		Status: models.TransactionStatus(c.Query("status")),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
			return
		}
		filter.CustomerID = &id
	}

	txs, total, err := tc.transactionService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "failed to fetch transactions")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"total":        total,
	})
}

func (tc *TransactionController) Create(c *gin.Context) {
	var req services.TransactionParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var createdBy *uuid.UUID
	if id := currentUserID(c); id != uuid.Nil {
		createdBy = &id
	}
	tx, err := tc.transactionService.Create(c.Request.Context(), req, createdBy)
	if err != nil {
		respondError(c, err, "failed to create transaction")
		return
	}
	tc.auditService.Record(c.Request.Context(), currentUserID(c), services.AuditCreateTransaction, services.EntityTransaction, tx.ID.String(), map[string]any{
		"amount":   tx.AmountGross,
		"customer": tx.CustomerID.String(),
	})
	c.JSON(http.StatusCreated, tx)
}

func (tc *TransactionController) Confirm(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	tx, changed, err := tc.transactionService.Confirm(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to confirm transaction")
		return
	}
	if !changed {
		c.JSON(http.StatusOK, gin.H{"transaction": tx, "message": "Transaction already confirmed"})
		return
	}
	tc.auditService.Record(c.Request.Context(), currentUserID(c), services.AuditConfirmTx, services.EntityTransaction, tx.ID.String(), nil)
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

func (tc *TransactionController) Reject(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	tx, changed, err := tc.transactionService.Reject(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to reject transaction")
		return
	}
	if !changed {
		c.JSON(http.StatusOK, gin.H{"transaction": tx, "message": "Transaction already rejected"})
		return
	}
	tc.auditService.Record(c.Request.Context(), currentUserID(c), services.AuditRejectTx, services.EntityTransaction, tx.ID.String(), nil)
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}
