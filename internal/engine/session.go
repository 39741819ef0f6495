package engine

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/gosimple/slug"
)

// DefaultStagingPrefix starts every staged result name.
const DefaultStagingPrefix = "stage"

// maxSlugLength bounds the readable suffix of a staged name.
const maxSlugLength = 48

// Session owns the staged results of one engine: it numbers them with a
// monotonic counter and records which are still live so they can be dropped.
type Session struct {
	mu     sync.Mutex
	id     string
	tag    string
	prefix string
	clock  *Clock
	live   []string
}

// NewSession creates a session. An empty prefix selects DefaultStagingPrefix.
func NewSession(id, prefix string) *Session {
	prefix = identifierPart(prefix)
	if prefix == "" {
		prefix = DefaultStagingPrefix
	}
	if prefix[0] >= '0' && prefix[0] <= '9' {
		prefix = "s" + prefix
	}
	return &Session{
		id:     id,
		tag:    sessionTag(id),
		prefix: prefix,
		clock:  NewClock(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// NextStageName returns a fresh staged result name:
//
//	<prefix>_<session tag>_<NNNN>_<slug of the sorted attributes>
//
// The name is a valid unquoted SQL identifier.
func (s *Session) NextStageName(attributes []string) string {
	n := s.clock.Next()

	sorted := slices.Clone(attributes)
	sort.Strings(sorted)
	suffix := identifierPart(strings.ReplaceAll(slug.Make(strings.Join(sorted, " ")), "-", "_"))
	if len(suffix) > maxSlugLength {
		suffix = strings.TrimRight(suffix[:maxSlugLength], "_")
	}
	if suffix == "" {
		suffix = "query"
	}
	return fmt.Sprintf("%s_%s_%04d_%s", s.prefix, s.tag, n, suffix)
}

// Staged returns the number of staged results created so far.
func (s *Session) Staged() int64 {
	return s.clock.Current()
}

// track records name as live.
func (s *Session) track(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = append(s.live, name)
}

// release forgets name.
func (s *Session) release(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = slices.DeleteFunc(s.live, func(l string) bool { return l == name })
}

// Live returns the staged results not yet dropped, oldest first.
func (s *Session) Live() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.live)
}

// sessionTag is the first 8 identifier characters of id.
func sessionTag(id string) string {
	tag := identifierPart(strings.ReplaceAll(id, "-", ""))
	if len(tag) > 8 {
		tag = tag[:8]
	}
	if tag == "" {
		tag = "session"
	}
	return tag
}

// identifierPart lower-cases s and drops everything but [a-z0-9_].
func identifierPart(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
