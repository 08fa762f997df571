package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IkingariSolorzano/cinepoints-be/services"
)

type CustomerController struct {
	customerService *services.CustomerService
	auditService    *services.AuditService
}

func NewCustomerController(customerService *services.CustomerService, auditService *services.AuditService) *CustomerController {
	return &CustomerController{
		customerService: customerService,
		auditService:    auditService,
	}
}

func (cc *CustomerController) List(c *gin.Context) {
	customers, err := cc.customerService.List(c.Request.Context(), c.Query("search"), queryInt(c, "limit", 50))
	if err != nil {
		respondError(c, err, "failed to fetch customers")
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (cc *CustomerController) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	customer, err := cc.customerService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to fetch customer")
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (cc *CustomerController) Create(c *gin.Context) {
	var req services.CustomerParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	customer, err := cc.customerService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "failed to create customer")
		return
	}
	cc.auditService.Record(c.Request.Context(), currentUserID(c), services.AuditCreateCustomer, services.EntityCustomer, customer.ID.String(), nil)
	c.JSON(http.StatusCreated, customer)
}

func (cc *CustomerController) Update(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req services.CustomerUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	customer, err := cc.customerService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err, "failed to update customer")
		return
	}
	cc.auditService.Record(c.Request.Context(), currentUserID(c), services.AuditUpdateCustomer, services.EntityCustomer, id.String(), nil)
	c.JSON(http.StatusOK, customer)
}
