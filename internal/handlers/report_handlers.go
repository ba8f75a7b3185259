package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/sanket-rajput/agritraceDep/internal/apperrors"
	"github.com/sanket-rajput/agritraceDep/internal/middleware"
	"github.com/sanket-rajput/agritraceDep/internal/models"
)

var wasteReportStatuses = map[models.WasteReportStatus]bool{
	models.WasteReportStatusReported:   true,
	models.WasteReportStatusCollected:  true,
	models.WasteReportStatusInTransit:  true,
	models.WasteReportStatusReceived:   true,
	models.WasteReportStatusProcessing: true,
	models.WasteReportStatusCompleted:  true,
}

// WasteReportHandler covers the farmer reporting flow: declare waste, track
// its collection status.
type WasteReportHandler struct {
	db *gorm.DB
}

func NewWasteReportHandler(db *gorm.DB) *WasteReportHandler {
	return &WasteReportHandler{db: db}
}

// ListReports returns the caller's reports newest first. Agents (?role=agent)
// see all reports.
func (h *WasteReportHandler) ListReports(c echo.Context) error {
	query := h.db.WithContext(c.Request().Context()).Order("created_at desc")
	if c.QueryParam("role") != "agent" {
		query = query.Where("farmer_id = ?", middleware.UserUID(c))
	}

	var reports []models.WasteReport
	if err := query.Find(&reports).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch waste reports")
	}
	return c.JSON(http.StatusOK, reports)
}

// CreateReport declares new crop waste for the authenticated farmer.
func (h *WasteReportHandler) CreateReport(c echo.Context) error {
	var req CreateWasteReportRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid JSON payload")
	}
	if req.CropType == "" || req.Quantity <= 0 {
		return apperrors.Validation("crop type and quantity are required")
	}

	report := models.WasteReport{
		FarmerID:   middleware.UserUID(c),
		FarmerName: req.FarmerName,
		CropType:   req.CropType,
		Quantity:   req.Quantity,
		Location:   req.Location,
		Status:     models.WasteReportStatusReported,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&report).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create waste report")
	}

	return c.JSON(http.StatusCreated, report)
}

// UpdateReportStatus moves a report along the collection lifecycle.
func (h *WasteReportHandler) UpdateReportStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid report ID")
	}

	var req UpdateWasteReportStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid JSON payload")
	}
	status := models.WasteReportStatus(req.Status)
	if !wasteReportStatuses[status] {
		return apperrors.Validationf("unknown status %q", req.Status)
	}

	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if req.CollectionAgent != "" {
		updates["collection_agent"] = req.CollectionAgent
		updates["collection_agent_id"] = middleware.UserUID(c)
	}

	res := h.db.WithContext(c.Request().Context()).
		Model(&models.WasteReport{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update waste report")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Waste report not found")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
