package domain

import "time"

type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FullName       string     `json:"name"`
	Phone          string     `json:"phone,omitempty"`
	PasswordHash   string     `json:"-"`
	Active         bool       `json:"active"`
	ResetCodeHash  string     `json:"-"`
	ResetExpiresAt *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
}
