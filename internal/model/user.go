package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a mess member. Role: "member" | "admin".
// Members record their own meals and purchases; admins additionally author
// advance payments and due adjustments on anyone's behalf.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null;default:'member'"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
