package tenant

import (
	"net/http"

	"github.com/simplycrm/simplycrm/pkg/orgs"
)

// SessionData is the slice of session behavior the resolver needs: a mutable
// string map persisted across requests of one authenticated session.
type SessionData interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// ClientContext exposes the request signals the resolver reads. Keeping it an
// interface keeps resolution framework-agnostic and unit-testable without an
// HTTP server.
type ClientContext interface {
	// Header returns the named request header, or "".
	Header(name string) string
	// QueryParam returns the named query parameter, or "".
	QueryParam(name string) string
	// Session returns the caller's session, or nil for sessionless requests.
	Session() SessionData
	// Principal returns the authenticated user, or nil.
	Principal() *orgs.User
}

// httpClient adapts an *http.Request to ClientContext.
type httpClient struct {
	r         *http.Request
	session   SessionData
	principal *orgs.User
}

// NewHTTPClient wraps an HTTP request with its session and principal.
// Either may be nil.
func NewHTTPClient(r *http.Request, session SessionData, principal *orgs.User) ClientContext {
	return &httpClient{r: r, session: session, principal: principal}
}

func (c *httpClient) Header(name string) string {
	return c.r.Header.Get(name)
}

func (c *httpClient) QueryParam(name string) string {
	return c.r.URL.Query().Get(name)
}

func (c *httpClient) Session() SessionData {
	return c.session
}

func (c *httpClient) Principal() *orgs.User {
	return c.principal
}
