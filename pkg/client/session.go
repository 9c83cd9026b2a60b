package client

import (
	"sync"

	"hotelbooking/internal/domain/auth"
)

// SearchFilters are the hotel search inputs kept across screens.
type SearchFilters struct {
	City     string
	CheckIn  string
	CheckOut string
	Adults   int
	Children int
}

// Session holds the signed-in user and search filters. Create one at startup,
// Init it after login and Clear it on logout.
type Session struct {
	mu      sync.RWMutex
	token   string
	user    *auth.User
	filters SearchFilters
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Init(token string, user *auth.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.filters = SearchFilters{}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *auth.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) SignedIn() bool {
	return s.Token() != ""
}

func (s *Session) IsAdmin() bool {
	u := s.User()
	return u != nil && u.IsAdmin()
}

func (s *Session) Filters() SearchFilters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

func (s *Session) SetFilters(f SearchFilters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f
}
