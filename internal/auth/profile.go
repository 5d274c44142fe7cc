package auth

import (
	"errors"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

var ErrEmptyProfileName = errors.New("auth: profile name is required")

// Profile is the display identity shown in the header.
type Profile struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Initials string `json:"initials"`
}

// Profiles holds the in-memory profile. It is not persisted.
type Profiles struct {
	mu sync.RWMutex
	p  Profile
}

func NewProfiles(name, title string) *Profiles {
	return &Profiles{p: Profile{Name: name, Title: title, Initials: Initials(name)}}
}

func (s *Profiles) Get() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p
}

// Update replaces name and title and recomputes the initials.
func (s *Profiles) Update(name, title string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Profile{}, ErrEmptyProfileName
	}
	p := Profile{Name: name, Title: strings.TrimSpace(title), Initials: Initials(name)}

	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
	return p, nil
}

// Initials takes the first letter of the first two words, upper-cased:
// "Nanin Sudiar, A.P." -> "NS".
func Initials(name string) string {
	var b strings.Builder
	for i, w := range strings.Fields(name) {
		if i == 2 {
			break
		}
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
