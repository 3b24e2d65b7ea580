// Package user defines chat user identities and the "@name" user argument.
package user

import "strings"

// User identifies a chat participant. ID is 0 when the transport did not
// provide a stable numeric id.
type User struct {
	Username    string `yaml:"username"`
	DisplayName string `yaml:"display_name,omitempty"`
	ID          int64  `yaml:"id,omitempty"`
}

// New returns a user with every field set.
func New(username, displayName string, id int64) User {
	return User{Username: username, DisplayName: displayName, ID: id}
}

// FromUsername returns a user known only by its login name.
func FromUsername(username string) User {
	return User{Username: username}
}

// HasID reports whether the user carries a stable numeric id.
func (u User) HasID() bool {
	return u.ID != 0
}

// Equal compares ids when both users have one and usernames otherwise.
func (u User) Equal(other User) bool {
	if u.HasID() && other.HasID() {
		return u.ID == other.ID
	}
	return u.Username == other.Username
}

// Name returns the display name, falling back to the username.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Mention formats the user the way chat replies address people.
func (u User) Mention() string {
	return "@" + u.Name()
}

func (u User) String() string {
	return u.Name()
}

// Argument is a user reference typed by a chatter, such as "@name".
type Argument string

// ParseArgument strips a single leading '@'.
func ParseArgument(s string) Argument {
	return Argument(strings.TrimPrefix(s, "@"))
}

// ArgumentFor returns the argument that addresses u by its display name.
func ArgumentFor(u User) Argument {
	return Argument(u.Name())
}

// Name returns the bare name without the '@'.
func (a Argument) Name() string {
	return string(a)
}

func (a Argument) String() string {
	return "@" + string(a)
}

// Matches reports whether the argument names u by username or display name.
func (a Argument) Matches(u User) bool {
	name := string(a)
	return name == u.Username || (u.DisplayName != "" && name == u.DisplayName)
}
