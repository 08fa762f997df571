package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IkingariSolorzano/cinepoints-be/services"
)

type DashboardController struct {
	dashboardService *services.DashboardService
}

func NewDashboardController(dashboardService *services.DashboardService) *DashboardController {
	return &DashboardController{dashboardService: dashboardService}
}

// GetSummary reports revenue, confirmed transactions and new customers for
// ?from=&to= (default last 30 days) plus all-time circulating points.
func (dc *DashboardController) GetSummary(c *gin.Context) {
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	summary, err := dc.dashboardService.Summary(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err, "failed to fetch summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (dc *DashboardController) GetRevenueSeries(c *gin.Context) {
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	series, err := dc.dashboardService.Series(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err, "failed to fetch revenue series")
		return
	}
	c.JSON(http.StatusOK, series)
}

func (dc *DashboardController) GetRevenueSplit(c *gin.Context) {
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	split, err := dc.dashboardService.Split(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err, "failed to fetch split")
		return
	}
	c.JSON(http.StatusOK, split)
}

func (dc *DashboardController) GetOps(c *gin.Context) {
	ops, err := dc.dashboardService.Ops(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch ops data")
		return
	}
	c.JSON(http.StatusOK, ops)
}
