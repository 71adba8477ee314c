// SPDX-License-Identifier: GPL-3.0-only

// Package lockout implements the failed-login accounting for user accounts:
// five consecutive failures lock an account for thirty minutes, and an
// elapsed lock is cleared lazily the next time it is checked.
package lockout

import (
	"authgate-server/models"
	"time"

	"gorm.io/gorm"
)

const (
	MaxFailedAttempts = 5
	LockDuration      = 30 * time.Minute
)

// Check reports whether the account is locked at now. When the lock window
// has already elapsed it also clears the lock and resets the failure counter
// before reporting unlocked, so callers must run it inside a transaction that
// they commit even on a rejected login.
func Check(tx *gorm.DB, user *models.User, now time.Time) (bool, error) {
	if user.AccountLockedUntil == nil {
		return false, nil
	}
	if now.Before(*user.AccountLockedUntil) {
		return true, nil
	}

	if err := tx.Model(user).Updates(map[string]any{
		"account_locked_until":  nil,
		"failed_login_attempts": 0,
	}).Error; err != nil {
		return false, err
	}
	user.AccountLockedUntil = nil
	user.FailedLoginAttempts = 0
	return false, nil
}

// RecordFailure increments the failure counter and arms the lock when the
// counter crosses the threshold. An already armed lock is never extended.
// The increment and the lock transition both happen in SQL, so two attempts
// that loaded the same stale counter still land as two failures.
func RecordFailure(tx *gorm.DB, user *models.User, now time.Time) error {
	if err := tx.Model(user).Updates(map[string]any{
		"failed_login_attempts": gorm.Expr("failed_login_attempts + 1"),
		"last_failed_login":     now,
	}).Error; err != nil {
		return err
	}

	until := now.Add(LockDuration)
	if err := tx.Model(&models.User{}).
		Where("id = ? AND failed_login_attempts >= ? AND account_locked_until IS NULL",
			user.ID, MaxFailedAttempts).
		Update("account_locked_until", until).Error; err != nil {
		return err
	}

	return tx.First(user, user.ID).Error
}

// RecordSuccess resets the failure accounting and stamps the login time.
func RecordSuccess(tx *gorm.DB, user *models.User, now time.Time) error {
	if err := tx.Model(user).Updates(map[string]any{
		"failed_login_attempts": 0,
		"last_failed_login":     nil,
		"account_locked_until":  nil,
		"last_login":            now,
	}).Error; err != nil {
		return err
	}
	user.FailedLoginAttempts = 0
	user.LastFailedLogin = nil
	user.AccountLockedUntil = nil
	user.LastLogin = &now
	return nil
}
