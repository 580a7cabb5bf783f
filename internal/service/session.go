package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/projectcancer/internal/logger"
	"github.com/projectcancer/internal/model"
	"github.com/projectcancer/internal/repository"
	"github.com/projectcancer/internal/storage"
	"github.com/projectcancer/internal/token"
)

// ClientStore: то, что менеджеру сессий нужно от таблицы clients.
type ClientStore interface {
	GetByID(ctx context.Context, id string) (*model.Client, error)
	GetByUsername(ctx context.Context, username string) (*model.Client, error)
	Create(ctx context.Context, c *model.Client) error
}

// SessionStore: таблица sessions. Отсутствие строки — repository.ErrNotFound.
type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	GetByID(ctx context.Context, sessionID string) (*model.Session, error)
	GetByAccessToken(ctx context.Context, accessToken string) (*model.Session, error)
	UpdateAccessToken(ctx context.Context, sessionID, accessToken string) (bool, error)
	Delete(ctx context.Context, sessionID string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountByClientID(ctx context.Context, clientID string) (int, error)
}

// Identity: проверенный клиент запроса. Пароль и его хэш сюда не попадают.
type Identity struct {
	ClientID    string `json:"id"`
	Email       string `json:"email"`
	AccessToken string `json:"-"`
}

type LoginResult struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	Client       model.ClientPublic `json:"user"`
}

// SessionManager: вход, проверка bearer-токена, ротация access-токена и выход.
// Сессия живёт в таблице sessions: ключ — refresh-токен, в строке — единственный действующий access-токен.
type SessionManager struct {
	clients  ClientStore
	sessions SessionStore
	codec    *token.Codec
	hasher   *PasswordHasher
	limiter  storage.LoginLimiter
	now      func() time.Time
}

// NewSessionManager: limiter может быть nil — тогда попытки входа не ограничиваются.
func NewSessionManager(clients ClientStore, sessions SessionStore, codec *token.Codec, hasher *PasswordHasher, limiter storage.LoginLimiter) *SessionManager {
	return &SessionManager{
		clients:  clients,
		sessions: sessions,
		codec:    codec,
		hasher:   hasher,
		limiter:  limiter,
		now:      time.Now,
	}
}

// Login проверяет пароль и открывает новую сессию. Каждый вход — отдельная строка,
// параллельные входы с разных устройств друг друга не отменяют.
func (m *SessionManager) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrBadRequest)
	}
	key := loginKey(ctx, username)
	if m.limiter != nil {
		allowed, err := m.limiter.Allow(ctx, key)
		if err != nil {
			// счётчик недоступен — вход не блокируем
			logger.Errorf("login: limiter: %v", err)
		} else if !allowed {
			logger.Infof("login: too many attempts for %q", key)
			return nil, ErrTooManyAttempts
		}
	}

	client, err := m.clients.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("login: %w", err)
		}
		m.hasher.burn(password)
		return nil, ErrUnauthorized
	}
	if !m.hasher.Matches(client.PasswordHash, password) {
		return nil, ErrUnauthorized
	}

	claims := token.Claims{ClientID: client.ID, Email: client.Email, Username: client.Username}
	access, err := m.codec.IssueAccess(claims)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	refresh, err := m.codec.IssueRefresh(claims)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	now := m.now().UTC()
	sess := &model.Session{
		ID:          refresh,
		ClientID:    client.ID,
		AccessToken: access,
		IssuedAt:    now,
		ExpiresAt:   now.Add(m.codec.RefreshTTL()),
	}
	if err := m.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if m.limiter != nil {
		if err := m.limiter.Reset(ctx, key); err != nil {
			logger.Errorf("login: limiter reset: %v", err)
		}
	}
	logger.Infof("login: client=%s session=%s", client.ID, logger.MaskToken(refresh))
	return &LoginResult{AccessToken: access, RefreshToken: refresh, Client: client.ToPublic()}, nil
}

// Validate: проверка bearer-токена: подпись и срок, затем наличие токена в sessions.
// Пустой токен — ErrUnauthorized; всё остальное, включая отозванный токен, — ErrForbidden.
func (m *SessionManager) Validate(ctx context.Context, bearer string) (*Identity, error) {
	if bearer == "" {
		return nil, ErrUnauthorized
	}
	claims, err := m.codec.Verify(bearer, token.Access)
	if err != nil {
		logger.Debugf("validate: %v token=%s", err, logger.MaskToken(bearer))
		return nil, ErrForbidden
	}
	sess, err := m.sessions.GetByAccessToken(ctx, bearer)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Debugf("validate: revoked token=%s", logger.MaskToken(bearer))
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("validate: %w", err)
	}
	if sess.ClientID != claims.ClientID {
		return nil, ErrForbidden
	}
	return &Identity{ClientID: claims.ClientID, Email: claims.Email, AccessToken: bearer}, nil
}

// Refresh выпускает новый access-токен для сессии refreshToken и делает его единственным действующим.
// Строка ищется до проверки подписи: отсутствие строки и битая подпись одинаково дают ErrForbidden.
func (m *SessionManager) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrUnauthorized
	}
	sess, err := m.sessions.GetByID(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrForbidden
		}
		return "", fmt.Errorf("refresh: %w", err)
	}
	claims, err := m.codec.Verify(refreshToken, token.Refresh)
	if err != nil {
		logger.Debugf("refresh: %v session=%s", err, logger.MaskToken(refreshToken))
		return "", ErrForbidden
	}
	access, err := m.codec.IssueAccess(token.Claims{ClientID: claims.ClientID, Email: claims.Email})
	if err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}
	ok, err := m.sessions.UpdateAccessToken(ctx, sess.ID, access)
	if err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}
	if !ok {
		// сессию завершили между чтением и обновлением
		return "", ErrForbidden
	}
	return access, nil
}

// Logout удаляет сессию refreshToken. Повторный выход и неизвестный токен — тоже успех.
func (m *SessionManager) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return fmt.Errorf("%w: refresh token is required", ErrBadRequest)
	}
	deleted, err := m.sessions.Delete(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if !deleted {
		logger.Debugf("logout: no session=%s", logger.MaskToken(refreshToken))
	}
	return nil
}

// Profile: публичные поля клиента из bearer-сессии. Удалённый клиент — ErrForbidden.
func (m *SessionManager) Profile(ctx context.Context, clientID string) (*model.ClientPublic, error) {
	c, err := m.clients.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("profile: %w", err)
	}
	pub := c.ToPublic()
	return &pub, nil
}

// ActiveSessions: число открытых сессий клиента.
func (m *SessionManager) ActiveSessions(ctx context.Context, clientID string) (int, error) {
	n, err := m.sessions.CountByClientID(ctx, clientID)
	if err != nil {
		return 0, fmt.Errorf("active sessions: %w", err)
	}
	return n, nil
}

// SweepExpired удаляет строки, у которых истёк refresh-токен.
func (m *SessionManager) SweepExpired(ctx context.Context) (int64, error) {
	n, err := m.sessions.DeleteExpired(ctx, m.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep: %w", err)
	}
	if n > 0 {
		logger.Infof("sweep: removed %d expired sessions", n)
	}
	return n, nil
}

// RunSweeper вызывает SweepExpired каждые interval до отмены ctx. interval <= 0 — сразу выходит.
func (m *SessionManager) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.SweepExpired(ctx); err != nil && ctx.Err() == nil {
				logger.Errorf("sweep: %v", err)
			}
		}
	}
}

// normalizeLoginKey приводит username к одному виду для счётчика попыток: нижний регистр,
// кириллические буквы-двойники заменены латинскими (иначе счётчик обходится подменой букв).
func normalizeLoginKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.TrimSpace(strings.ToLower(s)) {
		switch r {
		case 'о':
			b.WriteByte('o')
		case 'а':
			b.WriteByte('a')
		case 'е':
			b.WriteByte('e')
		case 'р':
			b.WriteByte('p')
		case 'с':
			b.WriteByte('c')
		case 'х':
			b.WriteByte('x')
		case 'у':
			b.WriteByte('y')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

type clientIPKey struct{}

// WithClientIP кладёт адрес клиента в контекст: счётчик попыток входа ведётся по паре адрес + username,
// чтобы чужие неудачные попытки не блокировали вход владельца с его адреса.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func loginKey(ctx context.Context, username string) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip + "|" + normalizeLoginKey(username)
}
