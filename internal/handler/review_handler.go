package handler

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/service"
	"marketplace/pkg/pagination"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReviewHandler struct {
	reviewService service.ReviewService
}

func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/products/:id/reviews", middleware.RequireRole("customer", "vendor", "admin"), h.CreateReview)
	router.GET("/api/products/:id/reviews", h.ListReviews)
}

// CreateReview rates a product
// @Summary      Review a product
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Product id"
// @Param        payload  body      service.CreateReviewRequest  true  "Review Payload"
// @Success      201      {object}  response.Response{data=service.ReviewResponse}
// @Failure      400      {object}  response.Response "Rating out of range"
// @Failure      404      {object}  response.Response
// @Router       /api/products/{id}/reviews [post]
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid product id"))
		return
	}

	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	customerID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token subject"))
		return
	}

	review, err := h.reviewService.Create(c.Request.Context(), customerID, productID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, review))
}

// ListReviews pages a product's reviews
// @Summary      List product reviews
// @Tags         reviews
// @Produce      json
// @Param        id     path   string  true   "Product id"
// @Param        page   query  int     false  "Page"
// @Param        limit  query  int     false  "Limit"
// @Success      200  {object}  response.Response{data=response.Paginated}
// @Router       /api/products/{id}/reviews [get]
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid product id"))
		return
	}

	params := pagination.Parse(c)
	reviews, total, err := h.reviewService.ListByProduct(c.Request.Context(), productID, params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, response.Paginated{
		Items: reviews, Page: params.Page, Limit: params.Limit, Total: total,
	}))
}
