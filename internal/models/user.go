package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account that can authenticate and rate movies.
type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username    string         `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email       string         `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password    string         `gorm:"not null" json:"-"`
	FirstName   string         `gorm:"size:100" json:"firstName"`
	LastName    string         `gorm:"size:100" json:"lastName"`
	Role        string         `gorm:"size:20;not null" json:"role"`
	IsActive    bool           `gorm:"not null" json:"isActive"`
	LastLoginAt *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}
