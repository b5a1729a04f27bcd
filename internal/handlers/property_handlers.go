package handlers

import (
	"context"
	"net/http"

	"rentalhub/internal/common"
	"rentalhub/internal/models"
	"rentalhub/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const maxImageSize = 10 << 20

// PropertyHandlers handles listings, the approval workflow and unit occupancy
type PropertyHandlers struct {
	propertyService services.PropertyService
}

func NewPropertyHandlers(propertyService services.PropertyService) *PropertyHandlers {
	return &PropertyHandlers{propertyService: propertyService}
}

// RejectRequest carries the reviewer's reason
type RejectRequest struct {
	Reason string `json:"reason"`
}

// AvailabilityRequest sets a manual availability state
type AvailabilityRequest struct {
	Availability string `json:"availability"`
}

// AddUnitsRequest appends units to a property
type AddUnitsRequest struct {
	Units []models.UnitInput `json:"units"`
}

// OccupyUnitRequest places a tenant into a unit
type OccupyUnitRequest struct {
	TenantID   string `json:"tenantId"`
	LeaseStart string `json:"leaseStart"`
	LeaseEnd   string `json:"leaseEnd"`
}

func propertyFilter(c echo.Context) (models.PropertyFilter, error) {
	limit, offset, err := pagination(c)
	if err != nil {
		return models.PropertyFilter{}, err
	}
	filter := models.PropertyFilter{
		City:           c.QueryParam("city"),
		PropertyType:   c.QueryParam("propertyType"),
		Availability:   c.QueryParam("availability"),
		ApprovalStatus: c.QueryParam("approvalStatus"),
		Limit:          limit,
		Offset:         offset,
	}
	if filter.MinRent, err = optionalFloat(c, "minRent"); err != nil {
		return filter, err
	}
	if filter.MaxRent, err = optionalFloat(c, "maxRent"); err != nil {
		return filter, err
	}
	return filter, nil
}

func sendProperties(c echo.Context, properties []*models.Property, filter models.PropertyFilter) error {
	if properties == nil {
		properties = []*models.Property{}
	}
	return common.SendSuccess(c, http.StatusOK, map[string]any{
		"properties": properties,
		"limit":      filter.Limit,
		"offset":     filter.Offset,
	})
}

// ListPublic returns approved properties
// @Summary      Browse properties
// @Tags         properties
// @Produce      json
// @Param        city          query     string  false  "City"
// @Param        propertyType  query     string  false  "Property type"
// @Param        minRent       query     number  false  "Minimum rent"
// @Param        maxRent       query     number  false  "Maximum rent"
// @Success      200           {object}  common.Response
// @Router       /properties [get]
func (h *PropertyHandlers) ListPublic(c echo.Context) error {
	filter, err := propertyFilter(c)
	if err != nil {
		return common.SendError(c, err)
	}
	properties, err := h.propertyService.ListPublic(c.Request().Context(), filter)
	if err != nil {
		return common.SendError(c, err)
	}
	return sendProperties(c, properties, filter)
}

// GetProperty serves approved properties to anyone and the rest to authorized actors.
func (h *PropertyHandlers) GetProperty(c echo.Context) error {
	id, err := pathUUID(c, "id", "property ID")
	if err != nil {
		return common.SendError(c, err)
	}
	actor, _ := actorFrom(c)

	property, err := h.propertyService.Get(c.Request().Context(), actor, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, property)
}

func (h *PropertyHandlers) CreateProperty(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var in services.CreatePropertyInput
	if err := c.Bind(&in); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	property, err := h.propertyService.Create(c.Request().Context(), actor, in)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusCreated, property)
}

func (h *PropertyHandlers) UpdateProperty(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathUUID(c, "id", "property ID")
	if err != nil {
		return common.SendError(c, err)
	}

	var patch models.PropertyPatch
	if err := c.Bind(&patch); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	property, err := h.propertyService.Update(c.Request().Context(), actor, id, patch)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, property)
}

func (h *PropertyHandlers) DeleteProperty(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathUUID(c, "id", "property ID")
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.propertyService.Delete(c.Request().Context(), actor, id); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, "Property deleted")
}

// Approve moves a pending property to approved
// @Summary      Approve property
// @Tags         properties
// @Produce      json
// @Param        id   path      string  true  "Property ID"
// @Success      200  {object}  common.Response
// @Failure      409  {object}  common.Response
// @Router       /properties/{id}/approve [patch]
func (h *PropertyHandlers) Approve(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathUUID(c, "id", "property ID")
	if err != nil {
		return common.SendError(c, err)
	}

	property, err := h.propertyService.Approve(c.Request().Context(), actor, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, property)
}

func (h *PropertyHandlers) Reject(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathUUID(c, "id", "property ID")
	if err != nil {
		return common.SendError(c, err)
	}

	var req RejectRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	property, err := h.propertyService.Reject(c.Request().Context(), actor, id, req.Reason)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, property)
}

func (h *PropertyHandlers) ListPending(c echo.Context) error {
	return h.listScoped(c, h.propertyService.ListPending)
}

func (h *PropertyHandlers) ListMine(c echo.Context) error {
	return h.listScoped(c, h.propertyService.ListMine)
}

func (h *PropertyHandlers) ListCompany(c echo.Context) error {
	return h.listScoped(c, h.propertyService.ListCompany)
}

type scopedLister func(ctx context.Context, actor *models.User, filter models.PropertyFilter) ([]*models.Property, error)

func (h *PropertyHandlers) listScoped(c echo.Context, list scopedLister) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	filter, err := propertyFilter(c)
	if err != nil {
		return common.SendError(c, err)
	}

	properties, err := list(c.Request().Context(), actor, filter)
	if err != nil {
		return common.SendError(c, err)
	}
	return sendProperties(c, properties, filter)
}

func (h *PropertyHandlers) Stats(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	stats, err := h.propertyService.Stats(c.Request().Context(), actor)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, stats)
}

func (h *PropertyHandlers) SetAvailability(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathUUID(c, "id", "property ID")
	if err != nil {
		return common.SendError(c, err)
	}

	var req AvailabilityRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	property, err := h.propertyService.SetAvailability(c.Request().Context(), actor, id, req.Availability)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, property)
}

// UploadImage stores the multipart "image" field against the property
func (h *PropertyHandlers) UploadImage(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathUUID(c, "id", "property ID")
	if err != nil {
		return common.SendError(c, err)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return common.SendValidationError(c, "image file is required")
	}
	if file.Size > maxImageSize {
		return common.SendValidationError(c, "image exceeds the 10MB limit")
	}
	src, err := file.Open()
	if err != nil {
		return common.SendValidationError(c, "image file could not be read")
	}
	defer src.Close()

	contentType := file.Header.Get(echo.HeaderContentType)
	url, err := h.propertyService.UploadImage(c.Request().Context(), actor, id, file.Filename, contentType, src, file.Size)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusCreated, map[string]string{"url": url})
}

func (h *PropertyHandlers) AddUnits(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathUUID(c, "id", "property ID")
	if err != nil {
		return common.SendError(c, err)
	}

	var req AddUnitsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	units, err := h.propertyService.AddUnits(c.Request().Context(), actor, id, req.Units)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusCreated, units)
}

func (h *PropertyHandlers) UpdateUnit(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, unitID, err := unitPath(c)
	if err != nil {
		return common.SendError(c, err)
	}

	var patch models.UnitPatch
	if err := c.Bind(&patch); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	unit, err := h.propertyService.UpdateUnit(c.Request().Context(), actor, id, unitID, patch)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, unit)
}

func (h *PropertyHandlers) DeleteUnit(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, unitID, err := unitPath(c)
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.propertyService.DeleteUnit(c.Request().Context(), actor, id, unitID); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, "Unit deleted")
}

// OccupyUnit moves an available unit to occupied for the given tenant and lease window
func (h *PropertyHandlers) OccupyUnit(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, unitID, err := unitPath(c)
	if err != nil {
		return common.SendError(c, err)
	}

	var req OccupyUnitRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	in, err := req.input()
	if err != nil {
		return common.SendError(c, err)
	}

	unit, err := h.propertyService.OccupyUnit(c.Request().Context(), actor, id, unitID, in)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, unit)
}

func (h *PropertyHandlers) VacateUnit(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, unitID, err := unitPath(c)
	if err != nil {
		return common.SendError(c, err)
	}

	unit, err := h.propertyService.VacateUnit(c.Request().Context(), actor, id, unitID)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, unit)
}

func (r OccupyUnitRequest) input() (services.OccupyUnitInput, error) {
	var (
		in  services.OccupyUnitInput
		err error
	)
	if in.TenantID, err = common.ValidateUUID(r.TenantID, "tenantId"); err != nil {
		return in, err
	}
	if in.LeaseStart, err = common.ParseDate(r.LeaseStart, "leaseStart"); err != nil {
		return in, err
	}
	if in.LeaseEnd, err = common.ParseDate(r.LeaseEnd, "leaseEnd"); err != nil {
		return in, err
	}
	return in, nil
}

func unitPath(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	id, err := pathUUID(c, "id", "property ID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	unitID, err := pathUUID(c, "unitId", "unit ID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return id, unitID, nil
}
