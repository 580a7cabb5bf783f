package service

import (
	"context"
	"testing"
	"time"

	"github.com/projectcancer/internal/model"
	"github.com/projectcancer/internal/storage/memory"
	"github.com/projectcancer/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginThenValidate(t *testing.T) {
	f := newFixture(t)
	f.addClient(t, "c-1", "alice", "password1")
	ctx := context.Background()

	res, err := f.manager.Login(ctx, "alice", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "c-1", res.Client.ID)
	assert.Equal(t, 1, f.sessions.Count())

	id, err := f.manager.Validate(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "c-1", id.ClientID)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.Equal(t, res.AccessToken, id.AccessToken)
}

func TestLoginStoresSessionKeyedByRefreshToken(t *testing.T) {
	f := newFixture(t)
	f.addClient(t, "c-1", "alice", "password1")
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.manager.now = func() time.Time { return fixed }

	res, err := f.manager.Login(context.Background(), "alice", "password1")
	require.NoError(t, err)

	row, err := f.sessions.GetByID(context.Background(), res.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "c-1", row.ClientID)
	assert.Equal(t, res.AccessToken, row.AccessToken)
	assert.Equal(t, fixed, row.IssuedAt)
	assert.Equal(t, fixed.Add(7*24*time.Hour), row.ExpiresAt)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	f.addClient(t, "c-1", "alice", "password1")
	ctx := context.Background()

	_, err := f.manager.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.manager.Login(ctx, "bob", "password1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.manager.Login(ctx, "", "password1")
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = f.manager.Login(ctx, "alice", "")
	assert.ErrorIs(t, err, ErrBadRequest)

	assert.Zero(t, f.sessions.Count(), "failed logins must not create sessions")
}

func TestLoginStoreFailureIsNotSentinel(t *testing.T) {
	f := newFixture(t)
	f.clients.Err = errStoreDown

	_, err := f.manager.Login(context.Background(), "alice", "password1")
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestParallelLoginsAreIndependent(t *testing.T) {
	f := newFixture(t)
	f.addClient(t, "c-1", "alice", "password1")
	ctx := context.Background()

	a, err := f.manager.Login(ctx, "alice", "password1")
	require.NoError(t, err)
	b, err := f.manager.Login(ctx, "alice", "password1")
	require.NoError(t, err)
	assert.NotEqual(t, a.RefreshToken, b.RefreshToken)

	n, err := f.manager.ActiveSessions(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, f.manager.Logout(ctx, a.RefreshToken))
	_, err = f.manager.Validate(ctx, b.AccessToken)
	assert.NoError(t, err, "logout of one device keeps the other session")
}

func TestRefreshRotatesAccessToken(t *testing.T) {
	f := newFixture(t)
	f.addClient(t, "c-1", "alice", "password1")
	ctx := context.Background()

	res, err := f.manager.Login(ctx, "alice", "password1")
	require.NoError(t, err)

	a1, err := f.manager.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.AccessToken, a1)

	_, err = f.manager.Validate(ctx, res.AccessToken)
	assert.ErrorIs(t, err, ErrForbidden)
	id, err := f.manager.Validate(ctx, a1)
	require.NoError(t, err)
	assert.Equal(t, "c-1", id.ClientID)
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newFixture(t)
	f.addClient(t, "c-1", "alice", "password1")
	ctx := context.Background()

	res, err := f.manager.Login(ctx, "alice", "password1")
	require.NoError(t, err)
	require.NoError(t, f.manager.Logout(ctx, res.RefreshToken))

	_, err = f.manager.Validate(ctx, res.AccessToken)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.manager.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.manager.Logout(ctx, "no-such-session"))
	assert.NoError(t, f.manager.Logout(ctx, "no-such-session"))
	assert.ErrorIs(t, f.manager.Logout(ctx, ""), ErrBadRequest)
}

func TestAliceScenario(t *testing.T) {
	f := newFixture(t)
	f.addClient(t, "c-alice", "alice", "pw-alice-1")
	ctx := context.Background()

	res, err := f.manager.Login(ctx, "alice", "pw-alice-1")
	require.NoError(t, err)
	a0, r := res.AccessToken, res.RefreshToken

	a1, err := f.manager.Refresh(ctx, r)
	require.NoError(t, err)

	_, err = f.manager.Validate(ctx, a0)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.manager.Validate(ctx, a1)
	require.NoError(t, err)

	require.NoError(t, f.manager.Logout(ctx, r))
	_, err = f.manager.Validate(ctx, a1)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestValidateRejects(t *testing.T) {
	f := newFixture(t)
	f.addClient(t, "c-1", "alice", "password1")
	ctx := context.Background()
	res, err := f.manager.Login(ctx, "alice", "password1")
	require.NoError(t, err)

	_, err = f.manager.Validate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.manager.Validate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrForbidden)

	// refresh-токен не принимается как bearer
	_, err = f.manager.Validate(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrForbidden)

	f.sessions.Err = errStoreDown
	_, err = f.manager.Validate(ctx, res.AccessToken)
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, ErrForbidden)
}

func TestRefreshRejects(t *testing.T) {
	f := newFixture(t)
	f.addClient(t, "c-1", "alice", "password1")
	ctx := context.Background()
	res, err := f.manager.Login(ctx, "alice", "password1")
	require.NoError(t, err)

	_, err = f.manager.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.manager.Refresh(ctx, "unknown")
	assert.ErrorIs(t, err, ErrForbidden)

	// строка с таким ключом есть, но подпись не сходится: строку не трогаем
	_, err = f.manager.Refresh(ctx, res.AccessToken)
	assert.ErrorIs(t, err, ErrForbidden)
	other := token.NewCodec("other-access", "other-refresh", time.Minute, time.Hour)
	forged, err := other.IssueRefresh(token.Claims{ClientID: "c-1", Email: "alice@example.com"})
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, f.sessions.Create(ctx, &model.Session{
		ID: forged, ClientID: "c-1", AccessToken: "stale", IssuedAt: now, ExpiresAt: now.Add(time.Hour),
	}))
	_, err = f.manager.Refresh(ctx, forged)
	assert.ErrorIs(t, err, ErrForbidden)
	row, err := f.sessions.GetByID(ctx, forged)
	require.NoError(t, err)
	assert.Equal(t, "stale", row.AccessToken)

	f.sessions.Err = errStoreDown
	_, err = f.manager.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestSweepExpired(t *testing.T) {
	f := newFixture(t)
	f.addClient(t, "c-1", "alice", "password1")
	ctx := context.Background()

	start := time.Now()
	f.manager.now = func() time.Time { return start }
	_, err := f.manager.Login(ctx, "alice", "password1")
	require.NoError(t, err)

	n, err := f.manager.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.manager.now = func() time.Time { return start.Add(8 * 24 * time.Hour) }
	n, err = f.manager.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Zero(t, f.sessions.Count())
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.manager.RunSweeper(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}

	// interval 0: выключено
	f.manager.RunSweeper(context.Background(), 0)
}

func TestLoginThrottle(t *testing.T) {
	f := newFixture(t)
	f.addClient(t, "c-1", "alice", "password1")
	f.manager.limiter = memory.New(2, time.Minute)
	stranger := WithClientIP(context.Background(), "203.0.113.7")
	owner := WithClientIP(context.Background(), "198.51.100.2")

	_, err := f.manager.Login(stranger, "alice", "bad-1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.manager.Login(stranger, "ALICE", "bad-2")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.manager.Login(stranger, "alice", "password1")
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	// чужие неудачи не блокируют владельца с другого адреса
	for i := 0; i < 10; i++ {
		_, err = f.manager.Login(stranger, "alice", "attacker")
		assert.ErrorIs(t, err, ErrTooManyAttempts)
	}
	res, err := f.manager.Login(owner, "alice", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
}

func TestLoginKey(t *testing.T) {
	ctx := WithClientIP(context.Background(), "10.0.0.1")
	assert.Equal(t, "10.0.0.1|alice", loginKey(ctx, " ALICE"))
	assert.Equal(t, "|alice", loginKey(context.Background(), "alice"))
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	f.addClient(t, "c-1", "alice", "password1")
	ctx := context.Background()

	pub, err := f.manager.Profile(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", pub.Username)

	_, err = f.manager.Profile(ctx, "c-404")
	assert.ErrorIs(t, err, ErrForbidden)

	f.clients.Err = errStoreDown
	_, err = f.manager.Profile(ctx, "c-1")
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, ErrForbidden)
}

func TestLoginSuccessResetsThrottle(t *testing.T) {
	f := newFixture(t)
	f.addClient(t, "c-1", "alice", "password1")
	f.manager.limiter = memory.New(2, time.Minute)
	ctx := context.Background()

	_, err := f.manager.Login(ctx, "alice", "bad-1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.manager.Login(ctx, "alice", "password1")
	require.NoError(t, err)
	_, err = f.manager.Login(ctx, "alice", "bad-2")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.manager.Login(ctx, "alice", "password1")
	assert.NoError(t, err)
}

func TestNormalizeLoginKey(t *testing.T) {
	assert.Equal(t, "alice", normalizeLoginKey("  ALICE "))
	// кириллические «а» и «е»
	assert.Equal(t, "alice", normalizeLoginKey("аlicе"))
}
