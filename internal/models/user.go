package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents caller roles in the system
type Role string

const (
	RoleCustomer Role = "customer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// Actions checked by HasPermission.
const (
	ActionViewAllRequests = "view_all_requests"
	ActionUpdateRequest   = "update_request"
	ActionViewAnyUser     = "view_any_user"
	ActionConfirmPayment  = "confirm_payment"
	ActionManageConfig    = "manage_config"
)

// User is a customer profile keyed by the auth provider's identifier.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SupabaseID    string             `bson:"supabase_id" json:"supabaseId"`
	Name          string             `bson:"name,omitempty" json:"name,omitempty"`
	Email         string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone         string             `bson:"phone,omitempty" json:"phone,omitempty"`
	VehicleNumber string             `bson:"vehicle_number,omitempty" json:"vehicleNumber,omitempty"`
	VehicleType   string             `bson:"vehicle_type,omitempty" json:"vehicleType,omitempty"`
	Role          Role               `bson:"role" json:"role"`
	Version       int64              `bson:"version" json:"version"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// UpsertUserInput is the body of POST /users. Empty fields leave the stored
// value untouched.
type UpsertUserInput struct {
	SupabaseID    string `json:"supabaseId" validate:"required,max=128"`
	Name          string `json:"name,omitempty" validate:"max=120"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string `json:"phone,omitempty" validate:"omitempty,max=32"`
	VehicleNumber string `json:"vehicleNumber,omitempty" validate:"max=32"`
	VehicleType   string `json:"vehicleType,omitempty" validate:"max=64"`
}

// StaffAccount is an operator or admin who signs in with a password.
type StaffAccount struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	IsActive     bool               `bson:"is_active" json:"isActive"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// LoginRequest represents a staff login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token string       `json:"token"`
	Staff StaffAccount `json:"staff"`
}

// Claims represents verified JWT claims
type Claims struct {
	Subject  string `json:"sub"`
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// IsStaff reports whether the caller acts on behalf of the business.
func (c *Claims) IsStaff() bool {
	return c.Role == RoleOperator || c.Role == RoleAdmin
}

// CanActFor reports whether the caller may read or write data owned by userID.
func (c *Claims) CanActFor(userID string) bool {
	return c.IsStaff() || c.Subject == userID
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleCustomer, RoleOperator, RoleAdmin:
		return true
	default:
		return false
	}
}

// HasPermission checks if a role grants a specific action
func (r Role) HasPermission(action string) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleOperator:
		return action == ActionViewAllRequests || action == ActionUpdateRequest ||
			action == ActionViewAnyUser
	default:
		return false
	}
}
