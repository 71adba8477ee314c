// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"gorm.io/gorm"
)

var AllModels []any

type User struct {
	ID       uint   `gorm:"primaryKey"`
	Username string `gorm:"size:80;not null;uniqueIndex"`
	Email    string `gorm:"size:120;not null;uniqueIndex"`
	Password string `gorm:"size:255;not null"`

	IsActive            bool `gorm:"not null;default:true"`
	IsAdmin             bool `gorm:"not null;default:false"`
	FailedLoginAttempts int  `gorm:"not null;default:0"`
	LastFailedLogin     *time.Time
	AccountLockedUntil  *time.Time
	LastLogin           *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func init() {
	AllModels = append(AllModels, &User{})
}
