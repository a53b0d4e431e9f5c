package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/model"
	"marketplace/internal/service"
	"marketplace/pkg/pagination"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SetVendorStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE SUSPENDED"`
}

type VendorHandler struct {
	vendorService service.VendorService
	auditService  service.AuditService
}

func NewVendorHandler(vendorService service.VendorService, auditService service.AuditService) *VendorHandler {
	return &VendorHandler{vendorService: vendorService, auditService: auditService}
}

func (h *VendorHandler) RegisterRoutes(router *gin.RouterGroup) {
	vendors := router.Group("/api/vendors")
	{
		vendors.POST("", middleware.RequireRole("customer", "vendor"), h.CreateVendor)
		vendors.GET("/me", middleware.RequireRole("vendor"), h.GetOwnVendor)
		vendors.GET("", middleware.RequireRole("admin"), h.ListVendors)
		vendors.GET("/:id", h.GetVendor)
		vendors.PATCH("/:id/status", middleware.RequireRole("admin"), h.SetVendorStatus)
	}
}

// CreateVendor opens a store for the authenticated user
// @Summary      Open a vendor store
// @Description  Creates a vendor profile for the caller and promotes their account role
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateVendorRequest  true  "Store Payload"
// @Success      201      {object}  response.Response{data=service.VendorResponse}
// @Failure      409      {object}  response.Response "Store exists already"
// @Router       /api/vendors [post]
func (h *VendorHandler) CreateVendor(c *gin.Context) {
	var req service.CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token subject"))
		return
	}

	vendor, err := h.vendorService.Create(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vendor))
}

// GetOwnVendor returns the caller's store
// @Summary      Current vendor profile
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.VendorResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/vendors/me [get]
func (h *VendorHandler) GetOwnVendor(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token subject"))
		return
	}

	vendor, err := h.vendorService.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendor))
}

// ListVendors pages through all stores
// @Summary      List vendors
// @Tags         vendors
// @Produce      json
// @Security     BearerAuth
// @Param        page   query  int  false  "Page"
// @Param        limit  query  int  false  "Limit"
// @Success      200  {object}  response.Response{data=response.Paginated}
// @Router       /api/vendors [get]
func (h *VendorHandler) ListVendors(c *gin.Context) {
	params := pagination.Parse(c)
	vendors, total, err := h.vendorService.List(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: vendors, Page: params.Page, Limit: params.Limit, Total: total,
	}))
}

// GetVendor returns one store by id
// @Summary      Get a vendor
// @Tags         vendors
// @Produce      json
// @Param        id   path      string  true  "Vendor id"
// @Success      200  {object}  response.Response{data=service.VendorResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/vendors/{id} [get]
func (h *VendorHandler) GetVendor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid vendor id"))
		return
	}

	vendor, err := h.vendorService.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendor))
}

// SetVendorStatus suspends or reactivates a store
// @Summary      Moderate a vendor
// @Description  Admin-only status change used for marketplace moderation
// @Tags         vendors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Vendor id"
// @Param        payload  body      SetVendorStatusRequest  true  "Status Payload"
// @Success      200      {object}  response.Response{data=service.VendorResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/vendors/{id}/status [patch]
func (h *VendorHandler) SetVendorStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid vendor id"))
		return
	}

	var req SetVendorStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	vendor, err := h.vendorService.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	if req.Status == model.VendorStatusSuspended {
		if actorID, ok := middleware.CurrentUserID(c); ok {
			h.auditService.Record(c.Request.Context(), &actorID, model.ActionSuspendVendor,
				vendor.ID, vendor.StoreName, nil)
		}
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendor))
}
