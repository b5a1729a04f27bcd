package handlers

import (
	"net/http"

	"rentalhub/internal/common"
	"rentalhub/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantHandlers handles tenant onboarding and tenancy records
type TenantHandlers struct {
	tenantService services.TenantService
}

func NewTenantHandlers(tenantService services.TenantService) *TenantHandlers {
	return &TenantHandlers{tenantService: tenantService}
}

// OnboardTenantRequest represents the onboarding payload. Exactly one of userId or userData is set.
type OnboardTenantRequest struct {
	UserID         *string                 `json:"userId"`
	UserData       *services.NewTenantUser `json:"userData"`
	Property       string                  `json:"property"`
	UnitID         *string                 `json:"unitId"`
	LeaseStartDate string                  `json:"leaseStartDate"`
	LeaseEndDate   string                  `json:"leaseEndDate"`
	RentAmount     float64                 `json:"rentAmount"`
	DepositAmount  float64                 `json:"depositAmount"`
	PaymentDueDay  int                     `json:"paymentDueDay"`
}

func (r OnboardTenantRequest) toService() (services.OnboardTenantRequest, error) {
	out := services.OnboardTenantRequest{
		UserData:      r.UserData,
		RentAmount:    r.RentAmount,
		DepositAmount: r.DepositAmount,
		PaymentDueDay: r.PaymentDueDay,
	}

	var err error
	if r.UserID != nil && *r.UserID != "" {
		id, err := common.ValidateUUID(*r.UserID, "userId")
		if err != nil {
			return out, err
		}
		out.UserID = &id
	}
	if r.UnitID != nil && *r.UnitID != "" {
		id, err := common.ValidateUUID(*r.UnitID, "unitId")
		if err != nil {
			return out, err
		}
		out.UnitID = &id
	}
	if out.PropertyID, err = common.ValidateUUID(r.Property, "property"); err != nil {
		return out, err
	}
	if out.LeaseStartDate, err = common.ParseDate(r.LeaseStartDate, "leaseStartDate"); err != nil {
		return out, err
	}
	if out.LeaseEndDate, err = common.ParseDate(r.LeaseEndDate, "leaseEndDate"); err != nil {
		return out, err
	}
	return out, nil
}

// CreateTenant onboards a user onto a property
// @Summary      Onboard tenant
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        request  body      OnboardTenantRequest  true  "Onboarding details"
// @Success      201      {object}  common.Response
// @Failure      409      {object}  common.Response
// @Router       /tenants [post]
func (h *TenantHandlers) CreateTenant(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req OnboardTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "Invalid request format")
	}
	onboard, err := req.toService()
	if err != nil {
		return common.SendError(c, err)
	}

	tenant, err := h.tenantService.Create(c.Request().Context(), actor, onboard)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusCreated, tenant)
}

// ListTenants returns the tenancies visible to the caller
func (h *TenantHandlers) ListTenants(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, offset, err := pagination(c)
	if err != nil {
		return common.SendError(c, err)
	}
	propertyID, err := optionalUUID(c, "property")
	if err != nil {
		return common.SendError(c, err)
	}

	tenants, err := h.tenantService.List(c.Request().Context(), actor, services.TenantListFilter{
		Status:     c.QueryParam("status"),
		PropertyID: propertyID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, map[string]any{
		"tenants": tenants,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *TenantHandlers) GetTenant(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathUUID(c, "id", "tenant ID")
	if err != nil {
		return common.SendError(c, err)
	}

	tenant, err := h.tenantService.Get(c.Request().Context(), actor, id)
	if err != nil {
		return common.SendError(c, err)
	}
	return common.SendSuccess(c, http.StatusOK, tenant)
}

// DeleteTenant terminates the tenancy and releases its occupancy
func (h *TenantHandlers) DeleteTenant(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := pathUUID(c, "id", "tenant ID")
	if err != nil {
		return common.SendError(c, err)
	}

	if err := h.tenantService.Terminate(c.Request().Context(), actor, id); err != nil {
		return common.SendError(c, err)
	}
	return common.SendMessage(c, "Tenancy terminated")
}
