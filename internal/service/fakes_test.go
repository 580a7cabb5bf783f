package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/projectcancer/internal/model"
	"github.com/projectcancer/internal/repository"
	"github.com/projectcancer/internal/service/servicetest"
	"github.com/projectcancer/internal/token"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errStoreDown = errors.New("connection refused")

var (
	_ ClientStore  = (*repository.ClientRepository)(nil)
	_ SessionStore = (*repository.SessionRepository)(nil)
	_ ClientStore  = (*servicetest.Clients)(nil)
	_ SessionStore = (*servicetest.Sessions)(nil)
)

type fixture struct {
	clients  *servicetest.Clients
	sessions *servicetest.Sessions
	hasher   *PasswordHasher
	manager  *SessionManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hasher, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	codec := token.NewCodec("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	f := &fixture{clients: servicetest.NewClients(), sessions: servicetest.NewSessions(), hasher: hasher}
	f.manager = NewSessionManager(f.clients, f.sessions, codec, hasher, nil)
	return f
}

// addClient регистрирует клиента с паролем password.
func (f *fixture) addClient(t *testing.T, id, username, password string) {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	require.NoError(t, f.clients.Create(context.Background(), &model.Client{
		ID: id, Username: username, Email: username + "@example.com", PasswordHash: hash,
	}))
}
