package models

import (
	"strings"
	"time"
)

const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:191;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:32;not null;default:User"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) HasRole(role string) bool {
	return u != nil && strings.EqualFold(u.Role, role)
}
