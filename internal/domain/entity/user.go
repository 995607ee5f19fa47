package entity

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Role es uno de los roles cerrados del sistema.
type Role string

// Roles válidos para User.
const (
	RoleCitizen    Role = "ROLE_CITIZEN"
	RoleWorker     Role = "ROLE_WORKER"
	RoleContractor Role = "ROLE_CONTRACTOR"
	RoleAdmin      Role = "ROLE_ADMIN"
	RoleSuperAdmin Role = "ROLE_SUPERADMIN"
)

var allRoles = map[Role]struct{}{
	RoleCitizen:    {},
	RoleWorker:     {},
	RoleContractor: {},
	RoleAdmin:      {},
	RoleSuperAdmin: {},
}

// ParseRole convierte un string en Role. Devuelve error si el rol no existe.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := allRoles[r]; !ok {
		return "", fmt.Errorf("rol desconocido: %q", s)
	}
	return r, nil
}

// UnmarshalJSON acepta solo roles conocidos.
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleSet conjunto de roles: sin duplicados y sin orden.
type RoleSet map[Role]struct{}

// NewRoleSet construye un conjunto a partir de roles sueltos.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// ParseRoleSet construye un conjunto desde strings; falla ante cualquier rol desconocido.
func ParseRoleSet(names []string) (RoleSet, error) {
	s := make(RoleSet, len(names))
	for _, n := range names {
		r, err := ParseRole(n)
		if err != nil {
			return nil, err
		}
		s[r] = struct{}{}
	}
	return s, nil
}

// Has indica si el rol pertenece al conjunto.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// HasAny indica si al menos uno de los roles pertenece al conjunto.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Strings devuelve los nombres ordenados alfabéticamente (salida estable para JSON, tokens y DB).
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}

// MarshalJSON serializa el conjunto como lista ordenada.
func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON acepta una lista de nombres de rol.
func (s *RoleSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	parsed, err := ParseRoleSet(names)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Status estado de la cuenta.
type Status string

// Estados válidos para User.
const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// ParseStatus convierte un string en Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusActive, StatusInactive, StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("estado desconocido: %q", s)
}

// Tipos de documento admitidos en registro y perfil.
const (
	DocPhoto       = "photo"
	DocAadharFront = "aadhar_front"
	DocAadharBack  = "aadhar_back"
)

// User representa a un usuario de la plataforma (ciudadano, trabajador, contratista o administrador).
type User struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Mobile         *string    `json:"mobile"`
	Address        string     `json:"address"`
	PasswordHash   string     `json:"-"` // bcrypt, nunca se expone
	Roles          RoleSet    `json:"roles"`
	Status         Status     `json:"status"`
	OTP            *string    `json:"-"`
	OTPExpiresAt   *time.Time `json:"-"`
	PhotoURL       *string    `json:"photoUrl"`
	AadharFrontURL *string    `json:"aadharFrontUrl"`
	AadharBackURL  *string    `json:"aadharBackUrl"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	LastLogin      *time.Time `json:"lastLogin"`
}

// SetOTP fija el código y su vencimiento juntos.
func (u *User) SetOTP(code string, expiresAt time.Time) {
	u.OTP = &code
	u.OTPExpiresAt = &expiresAt
}

// ClearOTP borra el código y su vencimiento juntos.
func (u *User) ClearOTP() {
	u.OTP = nil
	u.OTPExpiresAt = nil
}

// SetDocument asigna la URL de un documento por tipo.
func (u *User) SetDocument(docType, url string) {
	switch docType {
	case DocPhoto:
		u.PhotoURL = &url
	case DocAadharFront:
		u.AadharFrontURL = &url
	case DocAadharBack:
		u.AadharBackURL = &url
	}
}

// NormalizeEmail recorta y pliega mayúsculas para búsquedas únicas por email.
// cases.Caser no es seguro entre goroutines: se crea uno por llamada.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}
