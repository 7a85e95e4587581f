// Package security holds the download strategies guarding media downloads.
package security

import (
	"net/http"
	"strings"
	"sync"

	gomedia "github.com/shoraid/go-mediaprovider"
)

// Forbidden denies every download.
type Forbidden struct{}

var _ gomedia.DownloadStrategy = Forbidden{}

func (Forbidden) IsGranted(*gomedia.Media, *http.Request) bool { return false }

func (Forbidden) Description() string { return "No one can download the media" }

// Public grants every download.
type Public struct{}

var _ gomedia.DownloadStrategy = Public{}

func (Public) IsGranted(*gomedia.Media, *http.Request) bool { return true }

func (Public) Description() string { return "Everyone can download the media" }

// RoleChecker reports whether the caller of r holds role.
type RoleChecker func(r *http.Request, role string) bool

// Roles grants downloads to callers holding at least one of the roles.
type Roles struct {
	roles   []string
	checker RoleChecker
}

var _ gomedia.DownloadStrategy = (*Roles)(nil)

func NewRoles(checker RoleChecker, roles ...string) *Roles {
	return &Roles{roles: roles, checker: checker}
}

func (s *Roles) IsGranted(_ *gomedia.Media, r *http.Request) bool {
	if s.checker == nil || r == nil {
		return false
	}

	for _, role := range s.roles {
		if s.checker(r, role) {
			return true
		}
	}
	return false
}

func (s *Roles) Description() string {
	return "Users with one of these roles can download the media: " + strings.Join(s.roles, ", ")
}

// SessionIDFunc extracts the session of a request, an empty string means
// no session.
type SessionIDFunc func(r *http.Request) string

// Session limits how many times one session can download the same media.
type Session struct {
	times     int
	sessionID SessionIDFunc

	mu     sync.Mutex
	counts map[string]map[int64]int
}

var _ gomedia.DownloadStrategy = (*Session)(nil)

func NewSession(times int, sessionID SessionIDFunc) *Session {
	return &Session{times: times, sessionID: sessionID, counts: map[string]map[int64]int{}}
}

// IsGranted counts the download when it is granted.
func (s *Session) IsGranted(m *gomedia.Media, r *http.Request) bool {
	if s.sessionID == nil || r == nil {
		return false
	}

	id := s.sessionID(r)
	if id == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perMedia, ok := s.counts[id]
	if !ok {
		perMedia = map[int64]int{}
		s.counts[id] = perMedia
	}

	if perMedia[m.ID] >= s.times {
		return false
	}

	perMedia[m.ID]++
	return true
}

func (s *Session) Description() string {
	return "The session can download the media a limited number of times"
}

// Forget drops the counters of a session, typically on logout.
func (s *Session) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.counts, sessionID)
}
