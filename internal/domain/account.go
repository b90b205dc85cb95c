package domain

import "time"

// Account es la única entidad persistida del servicio.
type Account struct {
	ID                     string     `json:"id" bson:"_id"`
	Email                  string     `json:"email" bson:"email"`
	Username               string     `json:"username" bson:"username"`
	PasswordHash           string     `json:"-" bson:"password_hash"`
	EmailEnabled           bool       `json:"email_enabled" bson:"email_enabled"`
	Credits                int64      `json:"credits" bson:"credits"`
	PremiumEndDate         *time.Time `json:"premium_end_date,omitempty" bson:"premium_end_date,omitempty"`
	ResetPasswordToken     *string    `json:"-" bson:"reset_password_token,omitempty"`
	ResetPasswordExpiresAt *time.Time `json:"-" bson:"reset_password_expires_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" bson:"updated_at"`
}

// OwnerProfile es la vista que recibe el propio titular de la cuenta.
type OwnerProfile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	EmailEnabled bool      `json:"email_enabled"`
	Credits      int64     `json:"credits"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicProfile es la vista visible para cualquier otro usuario.
type PublicProfile struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func (a Account) OwnerProfile() OwnerProfile {
	return OwnerProfile{
		ID:           a.ID,
		Email:        a.Email,
		Username:     a.Username,
		EmailEnabled: a.EmailEnabled,
		Credits:      a.Credits,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (a Account) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:        a.ID,
		CreatedAt: a.CreatedAt,
	}
}

// HasResetToken indica si la cuenta tiene un token de reseteo pendiente.
func (a Account) HasResetToken() bool {
	return a.ResetPasswordToken != nil && *a.ResetPasswordToken != ""
}
