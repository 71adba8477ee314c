// SPDX-License-Identifier: GPL-3.0-only

package migrations

import (
	"authgate-server/commons"
	"authgate-server/crypto"
	"authgate-server/models"
	"errors"
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func List() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "001_create_default_admin",
			Migrate: func(tx *gorm.DB) error {
				var admin models.User
				err := tx.Where("username = ?", "admin").First(&admin).Error
				if err == nil {
					return nil
				}
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("failed to look up admin user: %w", err)
				}

				newCrypto := crypto.NewCrypto()
				hash, err := newCrypto.HashPassword(commons.GetEnv("ADMIN_PASSWORD", "changeme123"))
				if err != nil {
					return fmt.Errorf("failed to hash admin password: %w", err)
				}

				admin = models.User{
					Username: "admin",
					Email:    commons.GetEnv("ADMIN_EMAIL", "admin@example.com"),
					Password: hash,
					IsActive: true,
					IsAdmin:  true,
				}
				if err := tx.Create(&admin).Error; err != nil {
					return fmt.Errorf("failed to create admin user: %w", err)
				}
				commons.Logger.Warn("Default admin user created. Please change the password!")
				return nil
			},
			Rollback: func(tx *gorm.DB) error { return nil },
		},
	}
}
