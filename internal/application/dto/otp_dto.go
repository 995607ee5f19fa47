package dto

// OTPRequest solicitud de código para un email.
type OTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// OTPVerifyRequest verificación de un código.
type OTPVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// OTPVerifyResponse resultado de la verificación.
type OTPVerifyResponse struct {
	Verified bool `json:"verified"`
}

// ResetPasswordRequest restablecimiento de contraseña con código.
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}
