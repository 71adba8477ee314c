// SPDX-License-Identifier: GPL-3.0-only

package crypto

import (
	"authgate-server/commons"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// envInt reads a positive integer from the environment, falling back to the
// default when the value is missing, malformed or non-positive. A zero argon
// parameter would make hashing panic, so bad values never get through.
func envInt(key string, fallback int) int {
	if i, err := strconv.Atoi(commons.GetEnv(key)); err == nil && i > 0 {
		return i
	}
	return fallback
}

func NewCrypto() *Crypto {
	return &Crypto{
		BcryptCost:   envInt("BCRYPT_COST", 12),
		ArgonTime:    uint32(envInt("ARGON2_TIME", 1)),
		ArgonMemory:  uint32(envInt("ARGON2_MEMORY", 65536)),
		ArgonThreads: uint8(envInt("ARGON2_THREADS", 2)),
		ArgonKeyLen:  uint32(envInt("ARGON2_KEYLEN", 32)),
		ArgonSaltLen: uint32(envInt("ARGON2_SALTLEN", 16)),
	}
}

func (c *Crypto) HashPassword(password string) (string, error) {
	commons.Logger.Debug("Hashing password")
	cost := c.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	commons.Logger.Debug("Password hashed")
	return string(hash), nil
}

func (c *Crypto) VerifyPassword(password, encodedHash string) error {
	commons.Logger.Debug("Verifying password")
	if err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)); err != nil {
		return fmt.Errorf("password verification failed")
	}
	return nil
}

func (c *Crypto) HashAPIKey(rawKey string) (string, error) {
	params := &argon2id.Params{
		Memory:      c.ArgonMemory,
		Iterations:  c.ArgonTime,
		Parallelism: c.ArgonThreads,
		SaltLength:  c.ArgonSaltLen,
		KeyLength:   c.ArgonKeyLen,
	}
	hash, err := argon2id.CreateHash(rawKey, params)
	if err != nil {
		return "", err
	}
	return hash, nil
}

func (c *Crypto) VerifyAPIKey(rawKey, encodedHash string) error {
	match, err := argon2id.ComparePasswordAndHash(rawKey, encodedHash)
	if err != nil {
		return err
	}
	if !match {
		return fmt.Errorf("api key verification failed")
	}
	return nil
}

func GenerateRandomString(prefix string, length int, encoding string) (string, error) {
	supportedEncodings := []string{"hex", "base64"}

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	switch encoding {
	case "hex":
		return prefix + hex.EncodeToString(b), nil
	case "base64":
		return prefix + base64.StdEncoding.EncodeToString(b), nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s, Supported encodings are: %s", encoding, supportedEncodings)
	}
}
