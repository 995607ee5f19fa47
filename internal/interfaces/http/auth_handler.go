package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/vkj/geofix-api/internal/application/auth"
	"github.com/vkj/geofix-api/internal/application/dto"
	"github.com/vkj/geofix-api/internal/domain"
	"github.com/vkj/geofix-api/internal/domain/entity"
	"github.com/vkj/geofix-api/pkg/logger"
)

// Partes multipart de registro y perfil.
const (
	partUserData    = "userData"
	partPhoto       = "photo"
	partAadharFront = "aadharFront"
	partAadharBack  = "aadharBack"
)

var documentParts = []struct{ field, docType string }{
	{partPhoto, entity.DocPhoto},
	{partAadharFront, entity.DocAadharFront},
	{partAadharBack, entity.DocAadharBack},
}

// AuthHandler maneja registro, login, perfil y sesión.
type AuthHandler struct {
	uc  *auth.AuthUseCase
	log *logger.Logger
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, log *logger.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, log: log}
}

// Signup godoc
// @Summary      Registrar usuario
// @Tags         auth
// @Accept       multipart/form-data
// @Produce      json
// @Param        userData     formData  string  true   "JSON con name, email, mobile, address, password, role"
// @Param        photo        formData  file    false  "foto (obligatoria para ROLE_ADMIN)"
// @Param        aadharFront  formData  file    false  "Aadhar frontal (obligatoria para ROLE_ADMIN)"
// @Param        aadharBack   formData  file    false  "Aadhar reverso (obligatoria para ROLE_ADMIN)"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var in dto.SignupRequest
	if err := readUserData(c, &in, true); err != nil {
		return badRequest(c, "INVALID_BODY", err.Error())
	}
	if err := validate.Struct(&in); err != nil {
		return badRequest(c, "VALIDATION", validationMessage(err))
	}
	uploads, closeAll, err := readUploads(c)
	if err != nil {
		return badRequest(c, "INVALID_FILE", "no se pudo leer el archivo adjunto")
	}
	defer closeAll()

	if _, err := h.uc.Signup(c.UserContext(), in, uploads); err != nil {
		if status, _ := errorStatus(err); status == fiber.StatusInternalServerError {
			h.log.Error().Err(err).Msg("signup")
		}
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Usuario registrado correctamente"})
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email o mobile, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.Login(c.UserContext(), in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrInvalidCredentials):
			loginAttempts.WithLabelValues("invalid_credentials").Inc()
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
		case errors.Is(err, domain.ErrAccountNotActive):
			loginAttempts.WithLabelValues("not_active").Inc()
		case errors.Is(err, domain.ErrInvalidRequest):
			loginAttempts.WithLabelValues("invalid_request").Inc()
		default:
			loginAttempts.WithLabelValues("error").Inc()
			h.log.Error().Err(err).Msg("login")
		}
		return writeError(c, err)
	}
	loginAttempts.WithLabelValues("success").Inc()
	return c.JSON(out)
}

// Logout godoc
// @Summary      Cerrar sesión
// @Tags         auth
// @Produce      json
// @Success      200   {object}  dto.MessageResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.uc.Logout(c.UserContext(), GetClaims(c)); err != nil {
		h.log.Warn().Err(err).Msg("no se pudo revocar el token")
	}
	return c.JSON(dto.MessageResponse{Message: "Logged out successfully"})
}

// Profile godoc
// @Summary      Perfil del usuario autenticado
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  dto.UserResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /auth/profile [get]
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	out, err := h.uc.GetProfile(c.UserContext(), GetEmail(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateProfile godoc
// @Summary      Actualizar perfil (parcial)
// @Tags         auth
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        userData     formData  string  false  "JSON parcial con name, mobile, address"
// @Param        photo        formData  file    false  "foto"
// @Param        aadharFront  formData  file    false  "Aadhar frontal"
// @Param        aadharBack   formData  file    false  "Aadhar reverso"
// @Success      200   {object}  dto.UpdateProfileResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /auth/update-profile [put]
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var in dto.UpdateProfileRequest
	if err := readUserData(c, &in, false); err != nil {
		return badRequest(c, "INVALID_BODY", err.Error())
	}
	if err := validate.Struct(&in); err != nil {
		return badRequest(c, "VALIDATION", validationMessage(err))
	}
	uploads, closeAll, err := readUploads(c)
	if err != nil {
		return badRequest(c, "INVALID_FILE", "no se pudo leer el archivo adjunto")
	}
	defer closeAll()

	out, err := h.uc.UpdateProfile(c.UserContext(), GetEmail(c), in, uploads)
	if err != nil {
		if status, _ := errorStatus(err); status == fiber.StatusInternalServerError {
			h.log.Error().Err(err).Msg("update profile")
			return badRequest(c, "PROCESSING_ERROR", "no se pudo actualizar el perfil")
		}
		return writeError(c, err)
	}
	return c.JSON(dto.UpdateProfileResponse{Message: "Perfil actualizado correctamente", User: out})
}

// ChangePassword godoc
// @Summary      Cambiar contraseña
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.ChangePasswordRequest  true  "oldPassword, newPassword"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var in dto.ChangePasswordRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	if err := h.uc.ChangePassword(c.UserContext(), GetEmail(c), in); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Contraseña actualizada correctamente"})
}

// readUserData acepta la parte userData como campo de texto o como archivo JSON.
func readUserData(c *fiber.Ctx, out any, required bool) error {
	raw := c.FormValue(partUserData)
	if raw == "" {
		if fh, err := c.FormFile(partUserData); err == nil {
			f, err := fh.Open()
			if err != nil {
				return err
			}
			defer f.Close()
			b, err := io.ReadAll(f)
			if err != nil {
				return err
			}
			raw = string(b)
		}
	}
	if raw == "" {
		if required {
			return errors.New("falta la parte userData")
		}
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return errors.New("userData no es un JSON válido")
	}
	return nil
}

// readUploads abre los documentos presentes. closeAll debe llamarse siempre.
func readUploads(c *fiber.Ctx) ([]auth.Upload, func(), error) {
	var (
		uploads []auth.Upload
		files   []multipart.File
	)
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	for _, p := range documentParts {
		fh, err := c.FormFile(p.field)
		if err != nil || fh == nil || fh.Size == 0 {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, f)
		uploads = append(uploads, auth.Upload{DocType: p.docType, Filename: fh.Filename, Content: f})
	}
	return uploads, closeAll, nil
}
