package model

import "time"

// Session: одна активная авторизация. ID — сам refresh-токен, AccessToken — единственный
// access-токен, который сейчас принимается для этой сессии.
type Session struct {
	ID          string    `json:"-"`
	ClientID    string    `json:"client_id"`
	AccessToken string    `json:"-"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired: refresh-токен сессии истёк (строка ещё может лежать в таблице до очистки).
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
