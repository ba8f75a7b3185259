package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/sanket-rajput/agritraceDep/internal/apperrors"
	"github.com/sanket-rajput/agritraceDep/internal/middleware"
	"github.com/sanket-rajput/agritraceDep/internal/models"
)

// ListingHandler is plain marketplace CRUD; listings are browsed by everyone
// and created by their seller.
type ListingHandler struct {
	db *gorm.DB
}

func NewListingHandler(db *gorm.DB) *ListingHandler {
	return &ListingHandler{db: db}
}

// ListListings returns all listings, newest first.
func (h *ListingHandler) ListListings(c echo.Context) error {
	var listings []models.Listing
	if err := h.db.WithContext(c.Request().Context()).
		Order("created_at desc").
		Find(&listings).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch listings")
	}
	return c.JSON(http.StatusOK, listings)
}

// CreateListing publishes a listing owned by the authenticated user.
func (h *ListingHandler) CreateListing(c echo.Context) error {
	var req CreateListingRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid JSON payload")
	}
	if req.CropType == "" || req.Quantity <= 0 || req.Price <= 0 {
		return apperrors.Validation("crop type, quantity and price are required")
	}

	listing := models.Listing{
		SellerID:    middleware.UserUID(c),
		SellerName:  userName(c),
		CropType:    req.CropType,
		Quantity:    req.Quantity,
		Location:    req.Location,
		Price:       req.Price,
		Description: req.Description,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&listing).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create listing")
	}

	return c.JSON(http.StatusCreated, listing)
}

func userName(c echo.Context) string {
	if name, ok := c.Get("userName").(string); ok {
		return name
	}
	return ""
}
