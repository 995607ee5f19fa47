package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vkj/geofix-api/internal/application/dto"
	"github.com/vkj/geofix-api/internal/application/otp"
	"github.com/vkj/geofix-api/internal/domain"
)

// OTPHandler solicitud, verificación y restablecimiento con código de un solo uso.
type OTPHandler struct {
	uc *otp.UseCase
}

// NewOTPHandler construye el handler de OTP.
func NewOTPHandler(uc *otp.UseCase) *OTPHandler {
	return &OTPHandler{uc: uc}
}

// Request godoc
// @Summary      Solicitar código OTP
// @Tags         otp
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OTPRequest  true  "email"
// @Success      200   {object}  dto.MessageResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /auth/otp/request [post]
func (h *OTPHandler) Request(c *fiber.Ctx) error {
	var in dto.OTPRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	if _, err := h.uc.Generate(c.UserContext(), in.Email); err != nil {
		return writeError(c, err)
	}
	otpEvents.WithLabelValues("issued").Inc()
	return c.JSON(dto.MessageResponse{Message: "Código enviado"})
}

// Verify godoc
// @Summary      Verificar código OTP
// @Tags         otp
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OTPVerifyRequest  true  "email, otp"
// @Success      200   {object}  dto.OTPVerifyResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /auth/otp/verify [post]
func (h *OTPHandler) Verify(c *fiber.Ctx) error {
	var in dto.OTPVerifyRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	ok, err := h.uc.Verify(c.UserContext(), in.Email, in.OTP)
	if err != nil {
		return writeError(c, err)
	}
	if ok {
		otpEvents.WithLabelValues("verified").Inc()
	} else {
		otpEvents.WithLabelValues("rejected").Inc()
	}
	return c.JSON(dto.OTPVerifyResponse{Verified: ok})
}

// ResetPassword godoc
// @Summary      Restablecer contraseña con OTP
// @Tags         otp
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ResetPasswordRequest  true  "email, otp, newPassword"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /auth/otp/reset-password [post]
func (h *OTPHandler) ResetPassword(c *fiber.Ctx) error {
	var in dto.ResetPasswordRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	if err := h.uc.ResetPassword(c.UserContext(), in.Email, in.OTP, in.NewPassword); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			otpEvents.WithLabelValues("rejected").Inc()
			return badRequest(c, "INVALID_OTP", "código inválido o vencido")
		}
		return writeError(c, err)
	}
	otpEvents.WithLabelValues("password_reset").Inc()
	return c.JSON(dto.MessageResponse{Message: "Contraseña restablecida correctamente"})
}
