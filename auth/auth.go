// SPDX-License-Identifier: GPL-3.0-only

// Package auth resolves login credentials into user identities. Both the
// session login and the API-key issuance endpoint go through Authenticate so
// the lockout policy applies identically to both.
package auth

import (
	"authgate-server/crypto"
	"authgate-server/lockout"
	"authgate-server/models"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInvalidCredentials covers both "no such user" and "wrong password"
	// so callers cannot be used as a username oracle.
	ErrInvalidCredentials = errors.New("invalid username/email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrAccountDeactivated = errors.New("account has been deactivated")
)

// Authenticate resolves a username or email plus password into a user.
// The lock check runs before the password check, a failed password records a
// failure, and a success resets the counters. Everything happens in one
// transaction holding a row lock on the user, so concurrent attempts against
// the same account cannot race the counter past the threshold.
func Authenticate(conn *gorm.DB, identifier, password string) (*models.User, error) {
	var user models.User
	var authErr error

	err := conn.Transaction(func(tx *gorm.DB) error {
		q := tx
		// SQLite has no SELECT ... FOR UPDATE. Two deferred transactions
		// there can still read the same counter, so RecordFailure
		// increments it in SQL rather than from the loaded struct.
		if tx.Dialector.Name() != "sqlite" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
			First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				authErr = ErrInvalidCredentials
				return nil
			}
			return err
		}

		now := time.Now()
		locked, err := lockout.Check(tx, &user, now)
		if err != nil {
			return err
		}
		if locked {
			authErr = ErrAccountLocked
			return nil
		}

		newCrypto := crypto.NewCrypto()
		if err := newCrypto.VerifyPassword(password, user.Password); err != nil {
			if err := lockout.RecordFailure(tx, &user, now); err != nil {
				return err
			}
			authErr = ErrInvalidCredentials
			return nil
		}

		if !user.IsActive {
			authErr = ErrAccountDeactivated
			return nil
		}

		return lockout.RecordSuccess(tx, &user, now)
	})
	if err != nil {
		return nil, err
	}
	if authErr != nil {
		return nil, authErr
	}
	return &user, nil
}
