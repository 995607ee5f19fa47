package dto

import "time"

// SignupRequest parte JSON "userData" del registro multipart.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Mobile   string `json:"mobile" validate:"omitempty,numeric,min=10,max=15"`
	Address  string `json:"address" validate:"max=500"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty"`
}

// LoginRequest entrada de login: email o móvil (se prefiere email si vienen ambos).
type LoginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse token emitido más el ID y los roles del usuario.
type LoginResponse struct {
	Token  string   `json:"token"`
	UserID int64    `json:"userId"`
	Roles  []string `json:"roles"`
}

// UpdateProfileRequest parche parcial: solo los campos presentes se sobrescriben.
type UpdateProfileRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Mobile  *string `json:"mobile" validate:"omitempty,numeric,min=10,max=15"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

// UpdateProfileResponse respuesta de actualización de perfil.
type UpdateProfileResponse struct {
	Message string        `json:"message"`
	User    *UserResponse `json:"user"`
}

// ChangePasswordRequest cambio de contraseña con la actual.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

// UserResponse salida de un usuario (sin password ni OTP).
type UserResponse struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Mobile         *string    `json:"mobile"`
	Address        string     `json:"address"`
	Roles          []string   `json:"roles"`
	Status         string     `json:"status"`
	PhotoURL       *string    `json:"photoUrl"`
	AadharFrontURL *string    `json:"aadharFrontUrl"`
	AadharBackURL  *string    `json:"aadharBackUrl"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	LastLogin      *time.Time `json:"lastLogin"`
}

// UpdateStatusRequest cambio de estado por un administrador.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateRolesRequest reemplazo del conjunto de roles (solo superadmin).
type UpdateRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1"`
}

// UserListRequest filtros de listado administrativo.
type UserListRequest struct {
	PageRequest
	Role   string `query:"role"`
	Status string `query:"status"`
}

// UserListResponse página de usuarios.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
