// Package session implements one virtual user: its identity, its
// authentication token lifecycle, and the per-iteration browsing flow it
// replays against the API.
package session

import (
	"fmt"
	"net/url"
)

// User is one simulated end-user identity, created once per worker slot and
// reused for every iteration that worker runs. The cached token is owned
// exclusively by this user; at most one token is current at any time.
type User struct {
	Email    string
	Password string

	token string
}

// NewUser derives the deterministic test identity for a worker slot. The
// pool offset lets independently-scaled harness instances avoid logging in
// with the same accounts; indices cycle through the pool size.
func NewUser(prefix, domain, password string, poolSize, offset, index int) *User {
	if poolSize <= 0 {
		poolSize = 1
	}
	n := (offset+index)%poolSize + 1
	return &User{
		Email:    fmt.Sprintf("%s%d@%s", prefix, n, domain),
		Password: password,
	}
}

// HasToken reports whether a login token is cached.
func (u *User) HasToken() bool {
	return u.token != ""
}

// Token returns the cached token, empty when logged out.
func (u *User) Token() string {
	return u.token
}

func (u *User) setToken(token string) {
	u.token = token
}

func (u *User) clearToken() {
	u.token = ""
}

// API path builders, shared by the orchestrator and the thin guest flow.

func LatestURL(base string) string {
	return base + "/api/feed/latest"
}

func LatestAfterURL(base, cursor string) string {
	return base + "/api/feed/latest?after=" + url.QueryEscape(cursor)
}

func LoginURL(base string) string {
	return base + "/api/auth/login"
}

func MeURL(base string) string {
	return base + "/api/users/me"
}

func UserTeamsURL(base string) string {
	return base + "/api/users/me/teams"
}

func TeamFeedURL(base string, teamID int) string {
	return fmt.Sprintf("%s/api/teams/%d/feed", base, teamID)
}

func TeamFeedAfterURL(base string, teamID int, cursor string) string {
	return fmt.Sprintf("%s/api/teams/%d/feed?after=%s", base, teamID, url.QueryEscape(cursor))
}

func GamesScreenURL(base string, teamID int) string {
	return fmt.Sprintf("%s/api/teams/%d/games", base, teamID)
}

func TeamTopURL(base string, teamID int) string {
	return fmt.Sprintf("%s/api/teams/%d/top", base, teamID)
}

func TeamSummaryURL(base string, teamID int) string {
	return fmt.Sprintf("%s/api/teams/%d/summary", base, teamID)
}

func CommentsURL(base string, itemID int64) string {
	return fmt.Sprintf("%s/api/feed/items/%d/comments", base, itemID)
}
