package session

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplycrm/simplycrm/pkg/kv"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := kv.NewRedisStore(kv.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewManager(store, Config{TTL: time.Hour}, nil), mr
}

func TestManager_LoadWithoutCookieIssuesFreshSession(t *testing.T) {
	m, _ := newTestManager(t)

	r := httptest.NewRequest("GET", "/", nil)
	sess, err := m.Load(context.Background(), r)
	require.NoError(t, err)

	assert.True(t, sess.Fresh())
	assert.NotEmpty(t, sess.ID())
	assert.Empty(t, sess.Get("user_id"))
}

func TestManager_SaveAndReload(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	r := httptest.NewRequest("GET", "/", nil)
	sess, err := m.Load(ctx, r)
	require.NoError(t, err)

	sess.Set("user_id", "7")
	w := httptest.NewRecorder()
	require.NoError(t, m.Save(ctx, w, sess))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.Equal(t, sess.ID(), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	// A follow-up request carrying the cookie sees the stored values.
	r2 := httptest.NewRequest("GET", "/", nil)
	r2.AddCookie(cookies[0])
	reloaded, err := m.Load(ctx, r2)
	require.NoError(t, err)

	assert.False(t, reloaded.Fresh())
	assert.Equal(t, sess.ID(), reloaded.ID())
	assert.Equal(t, "7", reloaded.Get("user_id"))
}

func TestManager_SaveSkipsEmptyFreshSession(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Load(ctx, httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, m.Save(ctx, w, sess))
	assert.Empty(t, w.Result().Cookies(), "no cookie for a session nothing was stored in")
}

func TestManager_SaveSkipsCleanSession(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Load(ctx, httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	sess.Set("user_id", "7")
	require.NoError(t, m.Save(ctx, httptest.NewRecorder(), sess))

	// Mutating the store entry out of band shows a clean save writes nothing.
	mr.Set("session:"+sess.ID(), `{"user_id":"out-of-band"}`)
	require.NoError(t, m.Save(ctx, httptest.NewRecorder(), sess))

	raw, err := mr.Get("session:" + sess.ID())
	require.NoError(t, err)
	assert.Contains(t, raw, "out-of-band")
}

func TestManager_SessionExpires(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Load(ctx, httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	sess.Set("user_id", "7")
	w := httptest.NewRecorder()
	require.NoError(t, m.Save(ctx, w, sess))

	mr.FastForward(2 * time.Hour)

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(w.Result().Cookies()[0])
	reloaded, err := m.Load(ctx, r)
	require.NoError(t, err)

	assert.True(t, reloaded.Fresh(), "an expired session is replaced, not resurrected")
	assert.NotEqual(t, sess.ID(), reloaded.ID())
}

func TestManager_CorruptEntryDropped(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	mr.Set("session:bad-id", "{not json")

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Cookie", DefaultCookieName+"=bad-id")
	sess, err := m.Load(ctx, r)
	require.NoError(t, err)

	assert.True(t, sess.Fresh())
	assert.False(t, mr.Exists("session:bad-id"), "corrupt entry is removed")
}

func TestManager_Destroy(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Load(ctx, httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	sess.Set("user_id", "7")
	require.NoError(t, m.Save(ctx, httptest.NewRecorder(), sess))
	require.True(t, mr.Exists("session:"+sess.ID()))

	w := httptest.NewRecorder()
	require.NoError(t, m.Destroy(ctx, w, sess))

	assert.False(t, mr.Exists("session:"+sess.ID()))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge, "cookie is expired on the client")
	assert.Empty(t, sess.Get("user_id"))
}

func TestSession_DirtyTracking(t *testing.T) {
	sess := &Session{values: map[string]string{"a": "1"}}

	sess.Set("a", "1")
	assert.False(t, sess.Dirty(), "setting the same value is clean")

	sess.Delete("missing")
	assert.False(t, sess.Dirty())

	sess.Set("a", "2")
	assert.True(t, sess.Dirty())
}
