package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/UnisoftSistemas/implantei-core/internal/api/metrics"
	"github.com/UnisoftSistemas/implantei-core/internal/api/middleware"
	"github.com/UnisoftSistemas/implantei-core/internal/core/domain"
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
)

// TenantHandler proxies tenant reads and mutations to the backend. Reads go
// through the cache; every mutation invalidates the affected entries so the
// next read re-fetches instead of serving a stale tenant.
type TenantHandler struct {
	tenants ports.TenantService
	cache   ports.TenantCache
	log     zerolog.Logger
}

func NewTenantHandler(tenants ports.TenantService, cache ports.TenantCache, log zerolog.Logger) *TenantHandler {
	return &TenantHandler{
		tenants: tenants,
		cache:   cache,
		log:     log.With().Str("component", "tenant_handler").Logger(),
	}
}

type tenantListResponse struct {
	Data []domain.Tenant `json:"data"`
}

// List returns every tenant. Global operators only.
//
// @Summary      List tenants
// @Tags         tenants
// @Produce      json
// @Success      200  {object}  tenantListResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /v1/tenants [get]
func (h *TenantHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if cached, err := h.cache.GetTenantList(ctx); err == nil {
		metrics.TenantCacheTotal.WithLabelValues("hit").Inc()
		return c.JSON(http.StatusOK, tenantListResponse{Data: cached})
	}
	metrics.TenantCacheTotal.WithLabelValues("miss").Inc()

	tenants, err := h.tenants.Tenants(ctx)
	if err != nil {
		return err
	}
	if err := h.cache.SetTenantList(ctx, tenants); err != nil {
		h.log.Warn().Err(err).Msg("tenant list cache write failed")
	}
	return c.JSON(http.StatusOK, tenantListResponse{Data: tenants})
}

// Get returns a single tenant. A global operator reaches any tenant; a
// scoped user only their own.
//
// @Summary      Get a tenant
// @Tags         tenants
// @Produce      json
// @Param        id   path      string  true  "Tenant id"
// @Success      200  {object}  domain.Tenant
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/tenants/{id} [get]
func (h *TenantHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if !middleware.GateFrom(c).CanAccessTenant(id) {
		return domain.ErrForbidden
	}

	ctx := c.Request().Context()
	if cached, err := h.cache.GetTenant(ctx, id); err == nil {
		metrics.TenantCacheTotal.WithLabelValues("hit").Inc()
		return c.JSON(http.StatusOK, cached)
	}
	metrics.TenantCacheTotal.WithLabelValues("miss").Inc()

	tenant, err := h.tenants.Tenant(ctx, id)
	if err != nil {
		return err
	}
	if err := h.cache.SetTenant(ctx, tenant); err != nil {
		h.log.Warn().Err(err).Str("tenant_id", id).Msg("tenant cache write failed")
	}
	return c.JSON(http.StatusOK, tenant)
}

// Create registers a new tenant company. Global operators only.
//
// @Summary      Create a tenant
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        body  body      createTenantRequest  true  "Tenant attributes"
// @Success      201   {object}  domain.Tenant
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/tenants [post]
func (h *TenantHandler) Create(c echo.Context) error {
	var req createTenantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	tenant, err := h.tenants.CreateTenant(ctx, req.toInput())
	if err != nil {
		return err
	}
	metrics.TenantMutationsTotal.WithLabelValues("create").Inc()
	h.invalidate(ctx, tenant.ID)

	return c.JSON(http.StatusCreated, tenant)
}

// Update replaces a tenant's mutable attributes. Global operators only.
//
// @Summary      Update a tenant
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Tenant id"
// @Param        body  body      updateTenantRequest  true  "Tenant attributes"
// @Success      200   {object}  domain.Tenant
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/tenants/{id} [put]
func (h *TenantHandler) Update(c echo.Context) error {
	var req updateTenantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	tenant, err := h.tenants.UpdateTenant(ctx, id, req.toInput())
	if err != nil {
		return err
	}
	metrics.TenantMutationsTotal.WithLabelValues("update").Inc()
	h.invalidate(ctx, id)

	return c.JSON(http.StatusOK, tenant)
}

// SetStatus activates or deactivates a tenant. Global operators only.
// Deactivation takes effect for the tenant's users on their next session
// evaluation; it does not revoke tokens already issued.
//
// @Summary      Toggle tenant status
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Tenant id"
// @Param        body  body      tenantStatusRequest  true  "New status"
// @Success      200   {object}  domain.Tenant
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/tenants/{id}/status [patch]
func (h *TenantHandler) SetStatus(c echo.Context) error {
	var req tenantStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	tenant, err := h.tenants.SetTenantActive(ctx, id, *req.Active)
	if err != nil {
		return err
	}
	metrics.TenantMutationsTotal.WithLabelValues("status").Inc()
	h.invalidate(ctx, id)

	return c.JSON(http.StatusOK, tenant)
}

// Delete removes a tenant. Global operators only.
//
// @Summary      Delete a tenant
// @Tags         tenants
// @Param        id  path  string  true  "Tenant id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /v1/tenants/{id} [delete]
func (h *TenantHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if err := h.tenants.DeleteTenant(ctx, id); err != nil {
		return err
	}
	metrics.TenantMutationsTotal.WithLabelValues("delete").Inc()
	h.invalidate(ctx, id)

	return c.NoContent(http.StatusNoContent)
}

// invalidate drops the mutated tenant and the list. Cached entries are never
// patched in place.
func (h *TenantHandler) invalidate(ctx context.Context, id string) {
	if err := h.cache.InvalidateTenant(ctx, id); err != nil && !errors.Is(err, ports.ErrCacheMiss) {
		h.log.Warn().Err(err).Str("tenant_id", id).Msg("tenant cache invalidation failed")
	}
	if err := h.cache.InvalidateTenantList(ctx); err != nil && !errors.Is(err, ports.ErrCacheMiss) {
		h.log.Warn().Err(err).Msg("tenant list cache invalidation failed")
	}
}
