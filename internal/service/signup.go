package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projectcancer/internal/logger"
	"github.com/projectcancer/internal/model"
	"github.com/projectcancer/internal/repository"
)

const minPasswordLen = 8

var usernameRegexp = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,50}$`)

type SignupRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	FirstName     string `json:"fname"`
	LastName      string `json:"lname"`
	Suffix        string `json:"suffix"`
	ContactNumber string `json:"contact_number"`
	// DateOfBirth: "2006-01-02" или пусто.
	DateOfBirth string `json:"date_of_birth"`
	RoleID      *int   `json:"role_id"`
}

type SignupService struct {
	clients ClientStore
	hasher  *PasswordHasher
	now     func() time.Time
}

func NewSignupService(clients ClientStore, hasher *PasswordHasher) *SignupService {
	return &SignupService{clients: clients, hasher: hasher, now: time.Now}
}

// Signup создаёт учётную запись. Текстовые поля экранируются как HTML,
// email приводится к нижнему регистру.
func (s *SignupService) Signup(ctx context.Context, req SignupRequest) (*model.Client, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrBadRequest)
	}
	if !usernameRegexp.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-50 letters, digits, '.', '_' or '-'", ErrBadRequest)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: invalid email", ErrBadRequest)
	}
	if len(req.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrBadRequest, minPasswordLen)
	}
	var dob *time.Time
	if d := strings.TrimSpace(req.DateOfBirth); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return nil, fmt.Errorf("%w: date_of_birth must be YYYY-MM-DD", ErrBadRequest)
		}
		dob = &t
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	c := &model.Client{
		ID:            uuid.New().String(),
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		FirstName:     escape(req.FirstName),
		LastName:      escape(req.LastName),
		Suffix:        escape(req.Suffix),
		ContactNumber: escape(req.ContactNumber),
		DateOfBirth:   dob,
		RoleID:        req.RoleID,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.clients.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: username or email already registered", ErrConflict)
		}
		return nil, fmt.Errorf("signup: %w", err)
	}
	logger.Infof("signup: client=%s", c.ID)
	return c, nil
}

func escape(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
