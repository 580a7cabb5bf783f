// Package servicetest: in-memory реализации ClientStore и SessionStore для тестов.
package servicetest

import (
	"context"
	"sync"
	"time"

	"github.com/projectcancer/internal/model"
	"github.com/projectcancer/internal/repository"
)

// Clients: таблица clients в памяти. Err, если задан, возвращается из каждого метода.
type Clients struct {
	mu     sync.Mutex
	byName map[string]*model.Client
	Err    error
}

func NewClients() *Clients {
	return &Clients{byName: make(map[string]*model.Client)}
}

func (f *Clients) GetByID(ctx context.Context, id string) (*model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for _, c := range f.byName {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *Clients) GetByUsername(ctx context.Context, username string) (*model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	c, ok := f.byName[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *Clients) Create(ctx context.Context, c *model.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	for _, x := range f.byName {
		if x.Email == c.Email {
			return repository.ErrDuplicate
		}
	}
	if _, ok := f.byName[c.Username]; ok {
		return repository.ErrDuplicate
	}
	cp := *c
	f.byName[c.Username] = &cp
	return nil
}

// Sessions: таблица sessions в памяти.
type Sessions struct {
	mu   sync.Mutex
	rows map[string]*model.Session
	Err  error
}

func NewSessions() *Sessions {
	return &Sessions{rows: make(map[string]*model.Session)}
}

func (f *Sessions) Create(ctx context.Context, s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *Sessions) GetByID(ctx context.Context, id string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	s, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *Sessions) GetByAccessToken(ctx context.Context, tok string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for _, s := range f.rows {
		if s.AccessToken == tok {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *Sessions) UpdateAccessToken(ctx context.Context, id, tok string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	s, ok := f.rows[id]
	if !ok {
		return false, nil
	}
	s.AccessToken = tok
	return true, nil
}

func (f *Sessions) Delete(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	_, ok := f.rows[id]
	delete(f.rows, id)
	return ok, nil
}

func (f *Sessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	var n int64
	for id, s := range f.rows {
		if s.Expired(now) {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

func (f *Sessions) CountByClientID(ctx context.Context, clientID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	n := 0
	for _, s := range f.rows {
		if s.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

// Count: число строк.
func (f *Sessions) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}
