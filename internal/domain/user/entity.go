// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents a customer or staff account
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Email       string     `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password    string     `gorm:"not null;size:255" json:"-"` // Don't return in JSON
	FullName    string     `gorm:"size:255" json:"full_name"`
	Phone       string     `gorm:"size:32" json:"phone"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	IsStaff     bool       `gorm:"default:false" json:"is_staff"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook to handle business logic before user creation
func (u *User) BeforeCreate(tx *gorm.DB) error {
	// Email should be lowercase
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}

// GetDisplayName returns display name (full name or email)
func (u *User) GetDisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	return u.Email
}
