package api

import (
	"net/http"
	"strconv"
	"time"

	"campaign-console/internal/backend"
	"campaign-console/internal/history"

	"github.com/gin-gonic/gin"
)

// HistoryHandler serves the campaign history table.
type HistoryHandler struct {
	View   *history.View
	Client *backend.Client
}

func NewHistoryHandler(view *history.View, client *backend.Client) *HistoryHandler {
	return &HistoryHandler{View: view, Client: client}
}

func parseFilter(c *gin.Context) history.Filter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := history.Filter{
		Name:      c.Query("name"),
		Type:      c.DefaultQuery("type", "all"),
		Status:    c.Query("status"),
		DateRange: c.Query("date_range"),
		Page:      page,
		PageSize:  pageSize,
	}
	if filter.DateRange == history.RangeCustom {
		if start, err := time.Parse("2006-01-02", c.Query("start_date")); err == nil {
			filter.CustomStart = start
		}
		if end, err := time.Parse("2006-01-02", c.Query("end_date")); err == nil {
			filter.CustomEnd = end
		}
	}
	return filter
}

func (h *HistoryHandler) ListCampaigns(c *gin.Context) {
	if err := h.View.SetFilter(parseFilter(c)); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": h.View.Rows(),
		"total": h.View.Total(),
		"pages": h.View.PageCount(),
	})
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids" binding:"required"`
}

func (h *HistoryHandler) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.View.BulkDelete(req.IDs))
}

func campaignID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return 0, false
	}
	return id, true
}

func (h *HistoryHandler) StartNow(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	if err := h.View.StartNow(id); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Campaign started"})
}

func (h *HistoryHandler) Cancel(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	if err := h.View.Cancel(id); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Campaign cancelled"})
}

func (h *HistoryHandler) UpdateParams(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	var params map[string]interface{}
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.View.UpdateParams(id, params); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Campaign updated"})
}

func (h *HistoryHandler) Delete(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	if err := h.View.Delete(id); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Campaign deleted"})
}

// GetMessages passes the per-recipient delivery rows through.
func (h *HistoryHandler) GetMessages(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	rows, err := h.Client.GetCampaignMessages(id, c.Query("status_filter"))
	if err != nil {
		renderError(c, err)
		return
	}
	if rows == nil {
		rows = []backend.DeliveryRow{}
	}
	c.JSON(http.StatusOK, rows)
}
