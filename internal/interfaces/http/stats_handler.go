package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vkj/geofix-api/internal/application/usecase"
)

// StatsHandler estadísticas de usuarios.
type StatsHandler struct {
	uc *usecase.StatsUseCase
}

// NewStatsHandler construye el handler.
func NewStatsHandler(uc *usecase.StatsUseCase) *StatsHandler {
	return &StatsHandler{uc: uc}
}

// Summary godoc
// @Summary      Resumen de usuarios
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  dto.StatsResponse
// @Router       /admin/stats [get]
func (h *StatsHandler) Summary(c *fiber.Ctx) error {
	out, err := h.uc.Summary(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ActiveBetween godoc
// @Summary      Usuarios activos en un rango
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        from  query  string  true  "YYYY-MM-DD o RFC3339"
// @Param        to    query  string  true  "YYYY-MM-DD o RFC3339"
// @Success      200   {object}  dto.ActiveRangeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /admin/stats/active [get]
func (h *StatsHandler) ActiveBetween(c *fiber.Ctx) error {
	from, ok := parseDate(c.Query("from"), false)
	if !ok {
		return badRequest(c, "INVALID_DATE", "from inválido")
	}
	to, ok := parseDate(c.Query("to"), true)
	if !ok {
		return badRequest(c, "INVALID_DATE", "to inválido")
	}
	out, err := h.uc.ActiveBetween(c.UserContext(), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// parseDate acepta RFC3339 o fecha sola; con endOfDay la fecha sola cubre el día completo.
func parseDate(s string, endOfDay bool) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}
