package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplycrm/simplycrm/pkg/audit"
	"github.com/simplycrm/simplycrm/pkg/auth"
	"github.com/simplycrm/simplycrm/pkg/contacts"
	"github.com/simplycrm/simplycrm/pkg/kv"
	"github.com/simplycrm/simplycrm/pkg/observability"
	"github.com/simplycrm/simplycrm/pkg/orgs"
	"github.com/simplycrm/simplycrm/pkg/security"
	"github.com/simplycrm/simplycrm/pkg/session"
	"github.com/simplycrm/simplycrm/pkg/shield"
	"github.com/simplycrm/simplycrm/pkg/tenant"
)

// fixture is a fully wired server over in-memory backends.
type fixture struct {
	server *Server
	dir    *orgs.MemoryDirectory
	repo   *contacts.MemoryRepository
	store  kv.Store
	audit  *audit.MemoryRecorder
	cookie *http.Cookie
}

func passwordHash(t *testing.T) string {
	t.Helper()
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	return hash
}

func newFixture(t *testing.T, withShield bool) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := kv.NewRedisStore(kv.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	hash := passwordHash(t)
	dir := orgs.NewMemoryDirectory()
	dir.AddOrganization(&orgs.Organization{ID: 1, Name: "Acme", Slug: "acme", IsActive: true})
	dir.AddOrganization(&orgs.Organization{ID: 2, Name: "Globex", Slug: "globex", IsActive: true})
	dir.AddUser(&orgs.User{ID: 10, Username: "alice", PasswordHash: hash, IsActive: true, OrganizationID: 1})
	dir.AddUser(&orgs.User{ID: 11, Username: "bob", PasswordHash: hash, IsActive: true, OrganizationID: 2})
	dir.AddUser(&orgs.User{ID: 12, Username: "root", PasswordHash: hash, IsActive: true, IsStaff: true, OrganizationID: 1})
	dir.AddUser(&orgs.User{ID: 13, Username: "orphan", PasswordHash: hash, IsActive: true})
	dir.AddUser(&orgs.User{ID: 14, Username: "ghost", PasswordHash: hash, IsActive: false, OrganizationID: 1})

	repo := contacts.NewMemoryRepository()
	seed := []*contacts.Contact{
		{OrganizationID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@acme.test"},
		{OrganizationID: 1, FirstName: "Alan", LastName: "Turing", Email: "alan@acme.test"},
		{OrganizationID: 2, FirstName: "Grace", LastName: "Hopper", Email: "grace@globex.test"},
	}
	for _, c := range seed {
		require.NoError(t, repo.Create(context.Background(), c))
	}

	sessions := session.NewManager(store, session.Config{TTL: time.Hour}, nil)
	authn := auth.NewAuthenticator(dir, store, security.Config{
		MaxAttempts:   3,
		AttemptWindow: 15 * time.Minute,
		LockoutPeriod: 15 * time.Minute,
		Salt:          "test-salt",
	}, nil, nil)

	var sh *shield.Shield
	if withShield {
		sh = shield.New(store, shield.StaticProvider(shield.Config{
			Enabled:           true,
			Window:            10 * time.Second,
			BurstLimit:        5,
			Penalty:           60 * time.Second,
			SignatureTTL:      15 * time.Second,
			ProtectedPrefixes: []string{"/api/"},
		}), nil, nil)
	}

	recorder := audit.NewMemoryRecorder()
	server := NewServer(Options{
		Sessions:      sessions,
		Directory:     dir,
		Contacts:      repo,
		Authenticator: authn,
		Tokens:        auth.NewMemoryTokenRegistry(),
		Shield:        sh,
		Audit:         recorder,
		Metrics:       observability.NewMetrics(prometheus.NewRegistry()),
	})

	return &fixture{server: server, dir: dir, repo: repo, store: store, audit: recorder}
}

// do runs a request against the server, carrying the fixture's session cookie.
func (f *fixture) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	if f.cookie != nil {
		r.AddCookie(f.cookie)
	}
	for k, v := range header {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, r)

	for _, c := range w.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			if c.MaxAge < 0 {
				f.cookie = nil
			} else {
				f.cookie = c
			}
		}
	}
	return w
}

func (f *fixture) login(t *testing.T, username string) *httptest.ResponseRecorder {
	t.Helper()
	w := f.do("POST", "/api/auth/login", `{"username":"`+username+`","password":"correct horse"}`, nil)
	require.Equal(t, 200, w.Code, w.Body.String())
	return w
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	return list
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)
	w := f.do("GET", "/healthz", "", nil)
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, false)
	f.do("GET", "/healthz", "", nil)
	w := f.do("GET", "/metrics", "", nil)
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "simplycrm_http_requests_total")
}

func TestLoginLogout(t *testing.T) {
	f := newFixture(t, false)

	w := f.login(t, "alice")
	var user map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "alice", user["username"])
	require.NotNil(t, f.cookie, "login sets the session cookie")

	w = f.do("GET", "/api/me", "", nil)
	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
	assert.Contains(t, w.Body.String(), `"slug":"acme"`)

	w = f.do("POST", "/api/auth/logout", "", nil)
	assert.Equal(t, 204, w.Code)

	w = f.do("GET", "/api/me", "", nil)
	assert.Equal(t, 401, w.Code, "session is gone after logout")
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t, false)

	w := f.do("POST", "/api/auth/login", `{"username":"alice","password":"wrong"}`, nil)
	assert.Equal(t, 401, w.Code)
	assert.Contains(t, w.Body.String(), "invalid credentials")

	w = f.do("POST", "/api/auth/login", `{"username":"ghost","password":"correct horse"}`, nil)
	assert.Equal(t, 403, w.Code)
	assert.Contains(t, w.Body.String(), "account disabled")

	w = f.do("POST", "/api/auth/login", `{"username":"alice"}`, nil)
	assert.Equal(t, 400, w.Code)
}

func TestLoginLockout(t *testing.T) {
	f := newFixture(t, false)

	f.do("POST", "/api/auth/login", `{"username":"alice","password":"wrong"}`, nil)
	f.do("POST", "/api/auth/login", `{"username":"alice","password":"wrong"}`, nil)

	w := f.do("POST", "/api/auth/login", `{"username":"alice","password":"wrong"}`, nil)
	require.Equal(t, 423, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 900, body["retry_after"], 5)

	// The right password is rejected while the lock stands.
	w = f.do("POST", "/api/auth/login", `{"username":"alice","password":"correct horse"}`, nil)
	assert.Equal(t, 423, w.Code)
}

func TestProtectedEndpointsRequireAuth(t *testing.T) {
	f := newFixture(t, false)

	for _, path := range []string{"/api/me", "/api/organization", "/api/contacts"} {
		w := f.do("GET", path, "", nil)
		assert.Equal(t, 401, w.Code, path)
	}
}

func TestContactsScopedToHomeOrganization(t *testing.T) {
	f := newFixture(t, false)
	f.login(t, "alice")

	w := f.do("GET", "/api/contacts", "", nil)
	require.Equal(t, 200, w.Code)
	list := decodeList(t, w)
	require.Len(t, list, 2)
	for _, c := range list {
		assert.EqualValues(t, 1, c["organization_id"])
	}

	f.cookie = nil
	f.login(t, "bob")
	w = f.do("GET", "/api/contacts", "", nil)
	list = decodeList(t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Hopper", list[0]["last_name"])
}

func TestContactsEmptyForUnresolvedOrganization(t *testing.T) {
	f := newFixture(t, false)
	f.login(t, "orphan")

	// No home organization resolves; the response is empty, not all-tenant.
	w := f.do("GET", "/api/contacts", "", nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	w = f.do("GET", "/api/organization", "", nil)
	assert.Equal(t, 404, w.Code)

	w = f.do("POST", "/api/contacts", `{"first_name":"X","last_name":"Y","email":"x@y.test"}`, nil)
	assert.Equal(t, 403, w.Code, "writes are refused without an organization")
}

func TestContactCreateAndFetch(t *testing.T) {
	f := newFixture(t, false)
	f.login(t, "alice")

	w := f.do("POST", "/api/contacts", `{"first_name":"Edsger","last_name":"Dijkstra","email":"ed@acme.test"}`, nil)
	require.Equal(t, 201, w.Code)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.EqualValues(t, 1, created["organization_id"], "ownership comes from the binding, not the payload")

	id := int64(created["id"].(float64))
	w = f.do("GET", "/api/contacts/"+strconv.FormatInt(id, 10), "", nil)
	assert.Equal(t, 200, w.Code)

	// The new contact is invisible to another organization.
	f.cookie = nil
	f.login(t, "bob")
	w = f.do("GET", "/api/contacts/"+strconv.FormatInt(id, 10), "", nil)
	assert.Equal(t, 404, w.Code)
}

func TestAdminImpersonationFlow(t *testing.T) {
	f := newFixture(t, false)
	f.login(t, "root")

	// Home organization first.
	w := f.do("GET", "/api/organization", "", nil)
	assert.Contains(t, w.Body.String(), `"slug":"acme"`)

	// Impersonate by slug header; contacts switch to the target tenant.
	w = f.do("GET", "/api/contacts", "", map[string]string{tenant.HeaderOrganizationSlug: "globex"})
	list := decodeList(t, w)
	require.Len(t, list, 1)
	assert.EqualValues(t, 2, list[0]["organization_id"])

	// The override persists on a bare follow-up request.
	w = f.do("GET", "/api/organization", "", nil)
	assert.Contains(t, w.Body.String(), `"slug":"globex"`)

	// Naming the home organization clears the override.
	w = f.do("GET", "/api/organization", "", map[string]string{tenant.HeaderOrganizationSlug: "acme"})
	assert.Contains(t, w.Body.String(), `"slug":"acme"`)
	w = f.do("GET", "/api/organization", "", nil)
	assert.Contains(t, w.Body.String(), `"slug":"acme"`)
}

func TestNonAdminImpersonationIgnored(t *testing.T) {
	f := newFixture(t, false)
	f.login(t, "alice")

	w := f.do("GET", "/api/contacts", "", map[string]string{tenant.HeaderOrganizationID: "2"})
	list := decodeList(t, w)
	require.Len(t, list, 2)
	for _, c := range list {
		assert.EqualValues(t, 1, c["organization_id"], "non-admin stays on the home organization")
	}
}

func TestSecurityEventsRecorded(t *testing.T) {
	f := newFixture(t, false)

	f.do("POST", "/api/auth/login", `{"username":"alice","password":"wrong"}`, nil)
	f.login(t, "alice")
	f.do("POST", "/api/auth/logout", "", nil)

	assert.Len(t, f.audit.ByType(audit.EventLoginFailure), 1)
	assert.Len(t, f.audit.ByType(audit.EventLoginSuccess), 1)
	assert.Len(t, f.audit.ByType(audit.EventLogout), 1)

	success := f.audit.ByType(audit.EventLoginSuccess)[0]
	assert.Equal(t, "alice", success.Username)
	assert.Equal(t, "1.2.3.4", success.ClientIP)
	assert.NotEmpty(t, success.RequestID)
}

func TestImpersonationRecorded(t *testing.T) {
	f := newFixture(t, false)
	f.login(t, "root")

	f.do("GET", "/api/organization", "", map[string]string{tenant.HeaderOrganizationSlug: "globex"})

	events := f.audit.ByType(audit.EventImpersonation)
	require.NotEmpty(t, events)
	assert.Equal(t, "root", events[0].Username)
	require.NotNil(t, events[0].OrganizationID)
	assert.EqualValues(t, 2, *events[0].OrganizationID)
}

func TestShieldIntegration(t *testing.T) {
	f := newFixture(t, true)
	f.login(t, "alice")

	// Duplicate suppression on mutating requests.
	body := `{"first_name":"Only","last_name":"Once","email":"once@acme.test"}`
	sig := map[string]string{shield.SignatureHeader: "create-once"}
	w := f.do("POST", "/api/contacts", body, sig)
	require.Equal(t, 201, w.Code)
	w = f.do("POST", "/api/contacts", body, sig)
	assert.Equal(t, 409, w.Code)

	// Exhaust the burst; further requests get 429 with Retry-After.
	var last *httptest.ResponseRecorder
	for i := 0; i < 8; i++ {
		last = f.do("GET", "/api/contacts", "", nil)
	}
	require.Equal(t, 429, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))

	// Unprotected paths stay reachable for the penalized client.
	w = f.do("GET", "/healthz", "", nil)
	assert.Equal(t, 200, w.Code)
}

