package chatters

import (
	"strings"

	"github.com/edgard/chanbot/internal/user"
)

// Index resolves usernames, display names and ids to known users.
// Entries are never removed; renames re-key them. Index is not
// synchronized; Registry guards it.
type Index struct {
	users      []user.User
	byUsername map[string]int
	byDisplay  map[string]int
	byID       map[int64]int
}

func newIndex() *Index {
	return &Index{
		byUsername: make(map[string]int),
		byDisplay:  make(map[string]int),
		byID:       make(map[int64]int),
	}
}

func fold(name string) string {
	return strings.ToLower(name)
}

// Observe records u and returns its canonical record. Resolution prefers
// the numeric id, then the username.
func (x *Index) Observe(u user.User) user.User {
	i, ok := x.resolve(u)
	if !ok {
		x.users = append(x.users, u)
		i = len(x.users) - 1
		x.setKey(x.byUsername, u.Username, i)
		x.setKey(x.byDisplay, u.DisplayName, i)
		if u.HasID() {
			x.byID[u.ID] = i
		}
		return u
	}

	old := x.users[i]
	if old.Username != u.Username {
		x.dropKey(x.byUsername, old.Username, i)
		x.setKey(x.byUsername, u.Username, i)
	}
	if old.DisplayName != u.DisplayName {
		x.dropKey(x.byDisplay, old.DisplayName, i)
		x.setKey(x.byDisplay, u.DisplayName, i)
	}
	merged := u
	if !merged.HasID() {
		merged.ID = old.ID
	}
	if !old.HasID() && merged.HasID() {
		x.byID[merged.ID] = i
	}
	x.users[i] = merged
	return merged
}

func (x *Index) resolve(u user.User) (int, bool) {
	if u.HasID() {
		if i, ok := x.byID[u.ID]; ok {
			return i, true
		}
		// Adopt a record seen before its id was known.
		if i, ok := x.byUsername[fold(u.Username)]; ok && !x.users[i].HasID() {
			return i, true
		}
		return 0, false
	}
	i, ok := x.byUsername[fold(u.Username)]
	return i, ok
}

func (x *Index) setKey(m map[string]int, name string, i int) {
	if name == "" {
		return
	}
	m[fold(name)] = i
}

// dropKey removes name only while it still points at i; another user may
// have taken the name since.
func (x *Index) dropKey(m map[string]int, name string, i int) {
	if name == "" {
		return
	}
	if j, ok := m[fold(name)]; ok && j == i {
		delete(m, fold(name))
	}
}

// Lookup resolves a username or display name, case-insensitively.
func (x *Index) Lookup(name string) (user.User, bool) {
	key := fold(strings.TrimPrefix(name, "@"))
	if i, ok := x.byUsername[key]; ok {
		return x.users[i], true
	}
	if i, ok := x.byDisplay[key]; ok {
		return x.users[i], true
	}
	return user.User{}, false
}

// LookupID resolves a numeric id.
func (x *Index) LookupID(id int64) (user.User, bool) {
	i, ok := x.byID[id]
	if !ok {
		return user.User{}, false
	}
	return x.users[i], true
}

// Len returns the number of known identities.
func (x *Index) Len() int {
	return len(x.users)
}
