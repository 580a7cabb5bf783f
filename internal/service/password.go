package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher: bcrypt. dummyHash нужен, чтобы вход с несуществующим username
// стоил столько же, сколько вход с неверным паролем.
type PasswordHasher struct {
	cost      int
	dummyHash []byte
}

func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), cost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	return &PasswordHasher{cost: cost, dummyHash: dummy}, nil
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Matches: constant-time сравнение bcrypt.
func (h *PasswordHasher) Matches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// burn выполняет одно сравнение с фиктивным хэшем; результат не важен.
func (h *PasswordHasher) burn(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
}
