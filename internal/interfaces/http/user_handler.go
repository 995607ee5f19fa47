package http

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/vkj/geofix-api/internal/application/dto"
	"github.com/vkj/geofix-api/internal/application/usecase"
)

// UserHandler administración de usuarios.
type UserHandler struct {
	uc *usecase.UserUseCase
}

// NewUserHandler construye el handler de administración.
func NewUserHandler(uc *usecase.UserUseCase) *UserHandler {
	return &UserHandler{uc: uc}
}

// List godoc
// @Summary      Listar usuarios
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        role    query  string  false  "rol"
// @Param        status  query  string  false  "estado"
// @Param        limit   query  int     false  "límite (por defecto 20)"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200   {object}  dto.UserListResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /admin/users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	in := dto.UserListRequest{
		PageRequest: pageFromQuery(c),
		Role:        c.Query("role"),
		Status:      c.Query("status"),
	}
	out, err := h.uc.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Pending godoc
// @Summary      Usuarios pendientes de aprobación
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  dto.UserListResponse
// @Router       /admin/users/pending [get]
func (h *UserHandler) Pending(c *fiber.Ctx) error {
	out, err := h.uc.Pending(c.UserContext(), pageFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener usuario
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "ID"
// @Success      200   {object}  dto.UserResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /admin/users/{id} [get]
func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int                      true  "ID"
// @Param        body  body  dto.UpdateStatusRequest  true  "status"
// @Success      200   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /admin/users/{id}/status [put]
func (h *UserHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	var in dto.UpdateStatusRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.UpdateStatus(c.UserContext(), id, in.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Approve godoc
// @Summary      Aprobar usuario (reject, activate y deactivate siguen el mismo patrón)
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "ID"
// @Success      200   {object}  dto.UserResponse
// @Router       /admin/users/{id}/approve [put]
func (h *UserHandler) Approve(c *fiber.Ctx) error { return h.statusShortcut(c, h.uc.Approve) }

func (h *UserHandler) Reject(c *fiber.Ctx) error { return h.statusShortcut(c, h.uc.Reject) }

func (h *UserHandler) Activate(c *fiber.Ctx) error { return h.statusShortcut(c, h.uc.Activate) }

func (h *UserHandler) Deactivate(c *fiber.Ctx) error { return h.statusShortcut(c, h.uc.Deactivate) }

// UpdateRoles godoc
// @Summary      Reemplazar roles (superadmin)
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int                     true  "ID"
// @Param        body  body  dto.UpdateRolesRequest  true  "roles"
// @Success      200   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /admin/users/{id}/roles [put]
func (h *UserHandler) UpdateRoles(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	var in dto.UpdateRolesRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.UpdateRoles(c.UserContext(), id, in.Roles)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar usuario (superadmin)
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  int  true  "ID"
// @Success      204
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /admin/users/{id} [delete]
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) statusShortcut(c *fiber.Ctx, fn func(ctx context.Context, id int64) (*dto.UserResponse, error)) error {
	id, ok := userID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	out, err := fn(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func userID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	return dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
}
