package session

import (
	"context"

	"github.com/dscott-devops/chunky-loadgen/internal/feed"
	"github.com/dscott-devops/chunky-loadgen/internal/metrics"
	"github.com/dscott-devops/chunky-loadgen/internal/transport"
)

// ProbeOutcome is the result of the who-am-I probe.
type ProbeOutcome int

const (
	// ProbeOK: the cached token is good, the caller may proceed.
	ProbeOK ProbeOutcome = iota
	// ProbeInvalid: the API rejected the token (401/403). The token has been
	// discarded and the caller must abort the iteration; the next iteration
	// re-logins.
	ProbeInvalid
	// ProbeSoftFail: the probe failed for a reason that says nothing about
	// the token (5xx, transport error). The token stays cached. Re-logging
	// in here would flood the login endpoint and distort its numbers.
	ProbeSoftFail
)

// Credentials manages the login/probe lifecycle for virtual users. It is
// stateless itself; all token state lives on the User.
type Credentials struct {
	client  transport.Doer
	reg     *metrics.Registry
	baseURL string
}

func NewCredentials(client transport.Doer, reg *metrics.Registry, baseURL string) *Credentials {
	return &Credentials{
		client:  client,
		reg:     reg,
		baseURL: baseURL,
	}
}

// EnsureToken logs the user in if no token is cached. Returns false when the
// login failed (non-2xx, or 2xx without a token in the body); the user stays
// logged out and the caller aborts the iteration. There is no retry within
// an iteration.
func (c *Credentials) EnsureToken(ctx context.Context, user *User) bool {
	if user.HasToken() {
		return true
	}

	resp, err := c.client.Post(ctx, LoginURL(c.baseURL), nil, map[string]string{
		"email":    user.Email,
		"password": user.Password,
	})
	sample := transport.Sample(resp)
	c.reg.Record(metrics.EndpointLogin, sample)
	if err != nil || sample.Failed() {
		return false
	}

	payload, ok := feed.Parse(resp.Body)
	if !ok {
		return false
	}
	token, _ := payload["token"].(string)
	if token == "" {
		return false
	}

	user.setToken(token)
	return true
}

// Probe issues the lightweight who-am-I call with the cached token. Only
// 401/403 invalidates the token; any other failure is soft.
func (c *Credentials) Probe(ctx context.Context, user *User) ProbeOutcome {
	resp, err := c.client.Get(ctx, MeURL(c.baseURL), BearerHeaders(user))
	sample := transport.Sample(resp)
	c.reg.Record(metrics.EndpointMe, sample)

	if err != nil {
		return ProbeSoftFail
	}
	switch {
	case !sample.Failed():
		return ProbeOK
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		user.clearToken()
		return ProbeInvalid
	default:
		return ProbeSoftFail
	}
}

// BearerHeaders builds the Authorization header for the user's cached token.
func BearerHeaders(user *User) map[string]string {
	if !user.HasToken() {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + user.Token()}
}
