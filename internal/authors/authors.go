// Package authors maps wiki usernames to commit identities.
package authors

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultDomain is used to synthesize e-mail addresses for unmapped users.
const DefaultDomain = "wiki.local"

// Identity is a display name and e-mail address.
type Identity struct {
	Name  string `yaml:"name,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// Store resolves usernames case-insensitively. Entries may be nil, which
// marks a known user without a mapped identity.
type Store struct {
	domain  string
	entries map[string]*Identity
}

// New builds a Store from entries keyed by login.
func New(entries map[string]*Identity, domain string) *Store {
	if domain == "" {
		domain = DefaultDomain
	}
	s := &Store{domain: domain, entries: make(map[string]*Identity, len(entries))}
	for login, id := range entries {
		s.entries[normalize(login)] = id
	}
	return s
}

// Load reads a YAML file of login: {name, email} entries. An empty path
// yields an empty store.
func Load(path, domain string) (*Store, error) {
	if path == "" {
		return New(nil, domain), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("authors: read %s: %w", path, err)
	}
	var entries map[string]*Identity
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("authors: parse %s: %w", path, err)
	}
	return New(entries, domain), nil
}

// Len returns the number of known logins.
func (s *Store) Len() int { return len(s.entries) }

// identCrudRe matches characters git refuses inside an ident.
var identCrudRe = regexp.MustCompile(`[<>\p{Cc}]+`)

func normalize(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// Resolve returns the identity for username. Blank mapped fields fall back
// to the username and to username@domain, keeping the username's case.
func (s *Store) Resolve(username string) Identity {
	username = strings.TrimSpace(username)
	if username == "" {
		username = "unknown"
	}
	var id Identity
	if mapped := s.entries[normalize(username)]; mapped != nil {
		id = *mapped
	}
	if strings.TrimSpace(id.Name) == "" {
		id.Name = username
	}
	if strings.TrimSpace(id.Email) == "" {
		local := strings.TrimSpace(identCrudRe.ReplaceAllString(username, "_"))
		if local == "" {
			local = "unknown"
		}
		id.Email = local + "@" + s.domain
	}
	return id
}
