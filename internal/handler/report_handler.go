package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/model"
	"marketplace/internal/service"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GenerateReportRequest struct {
	VendorID string `json:"vendor_id"`
	Date     string `json:"date" binding:"required"`
}

type ReportHandler struct {
	reportService service.ReportService
	vendorService service.VendorService
	auditService  service.AuditService
}

func NewReportHandler(reportService service.ReportService, vendorService service.VendorService, auditService service.AuditService) *ReportHandler {
	return &ReportHandler{reportService: reportService, vendorService: vendorService, auditService: auditService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	{
		reports.POST("/generate", middleware.RequireRole("admin", "vendor"), h.GenerateReport)
		reports.GET("", middleware.RequireRole("admin", "vendor"), h.GetReport)
		reports.GET("/range", middleware.RequireRole("admin", "vendor"), h.GetReportRange)
	}
}

// resolveVendorID decides which vendor the call targets. Admins may name any
// vendor; other callers default to their own store and may not name another.
func (h *ReportHandler) resolveVendorID(c *gin.Context, explicit string) (uuid.UUID, bool) {
	if middleware.IsAdmin(c) {
		if explicit == "" {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "vendor_id is required for admin requests"))
			return uuid.Nil, false
		}
		id, err := uuid.Parse(explicit)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid vendor_id"))
			return uuid.Nil, false
		}
		return id, true
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token subject"))
		return uuid.Nil, false
	}

	own, err := h.vendorService.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return uuid.Nil, false
	}

	id, err := uuid.Parse(own.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "corrupt vendor identity"))
		return uuid.Nil, false
	}

	// Compare parsed values, not raw strings: uuid accepts several spellings
	// of the same id and the caller's casing must not matter.
	if explicit != "" {
		requested, err := uuid.Parse(explicit)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid vendor_id"))
			return uuid.Nil, false
		}
		if requested != id {
			c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied for the requested vendor"))
			return uuid.Nil, false
		}
	}
	return id, true
}

// GenerateReport recomputes a vendor's daily snapshot
// @Summary      Generate a daily vendor report
// @Description  Aggregates orders, engagement events and reviews for one vendor and calendar date, replacing any previous row for that date
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      GenerateReportRequest  true  "Generate Payload"
// @Success      201      {object}  response.Response{data=service.ReportResponse}
// @Failure      400      {object}  response.Response "Invalid date"
// @Failure      403      {object}  response.Response "Another vendor's report requested"
// @Failure      404      {object}  response.Response "Vendor not found"
// @Router       /api/reports/generate [post]
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	vendorID, ok := h.resolveVendorID(c, req.VendorID)
	if !ok {
		return
	}

	report, err := h.reportService.Generate(c.Request.Context(), vendorID, req.Date)
	if err != nil {
		writeError(c, err)
		return
	}

	if actorID, ok := middleware.CurrentUserID(c); ok {
		h.auditService.Record(c.Request.Context(), &actorID, model.ActionGenerateReport,
			vendorID.String(), "report "+req.Date, gin.H{"date": req.Date})
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, report))
}

// GetReport fetches one stored report
// @Summary      Get a daily vendor report
// @Description  Returns the stored report row for the given date, if one was generated
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        date       query  string  true   "Report date (YYYY-MM-DD)"
// @Param        vendor_id  query  string  false  "Vendor id (admin only; defaults to caller's store)"
// @Success      200  {object}  response.Response{data=service.ReportResponse}
// @Failure      404  {object}  response.Response "No report for that date"
// @Router       /api/reports [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "date query parameter is required"))
		return
	}

	vendorID, ok := h.resolveVendorID(c, c.Query("vendor_id"))
	if !ok {
		return
	}

	report, err := h.reportService.GetByDate(c.Request.Context(), vendorID, date)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// GetReportRange fetches stored reports ordered by date
// @Summary      Get daily vendor reports for a date range
// @Description  Returns every stored report between start_date and end_date inclusive, ordered by date
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        start_date  query  string  true   "Start date (YYYY-MM-DD)"
// @Param        end_date    query  string  true   "End date (YYYY-MM-DD)"
// @Param        vendor_id   query  string  false  "Vendor id (admin only; defaults to caller's store)"
// @Success      200  {object}  response.Response{data=[]service.ReportResponse}
// @Failure      400  {object}  response.Response "Malformed dates or inverted range"
// @Router       /api/reports/range [get]
func (h *ReportHandler) GetReportRange(c *gin.Context) {
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")
	if startDate == "" || endDate == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "start_date and end_date query parameters are required"))
		return
	}

	vendorID, ok := h.resolveVendorID(c, c.Query("vendor_id"))
	if !ok {
		return
	}

	reports, err := h.reportService.GetRange(c.Request.Context(), vendorID, startDate, endDate)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, reports))
}
