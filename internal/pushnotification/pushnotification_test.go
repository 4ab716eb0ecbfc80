package pushnotification

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskgantt/internal/config"
	"github.com/kazz187/taskgantt/internal/eventbus"
	projectrepo "github.com/kazz187/taskgantt/internal/project/repositoryimpl"
	"github.com/kazz187/taskgantt/internal/pushsubscription"
	subrepo "github.com/kazz187/taskgantt/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/taskgantt/internal/store"
	"github.com/kazz187/taskgantt/internal/task"
	"github.com/kazz187/taskgantt/pkg/cerr"
	"github.com/kazz187/taskgantt/pkg/storage"
)

type recordingNotifier struct {
	mu       sync.Mutex
	payloads []*NotificationPayload
}

func (n *recordingNotifier) SendToAll(_ context.Context, p *NotificationPayload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, p)
}

func (n *recordingNotifier) tags() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, p := range n.payloads {
		out = append(out, p.Tag)
	}
	return out
}

func newStorage(t *testing.T) storage.Storage {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDispatcher_NotifiesOncePerDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := date(2025, time.February, 1)
	st := store.New(projectrepo.NewJSONRepository(newStorage(t), ""), eventbus.New(),
		store.WithClock(func() time.Time { return now }),
		store.WithSaveDelay(time.Hour),
	)
	n := &recordingNotifier{}
	d := NewDispatcher(st, n, time.Hour)
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()
	// wait for the subscription
	time.Sleep(20 * time.Millisecond)

	late, err := st.CreateTask(ctx, task.CreateRequest{
		Title: "late", StartDate: date(2025, 1, 1), EndDate: date(2025, 1, 10), Progress: 50,
	})
	require.NoError(t, err)
	_, err = st.CreateTask(ctx, task.CreateRequest{
		Title: "untouched", StartDate: date(2025, 1, 1), EndDate: date(2025, 1, 10),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(n.tags()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{late.ID}, n.tags())

	// further edits while still delayed stay quiet
	_, err = st.UpdateTask(ctx, late.ID, task.UpdateRequest{Title: ptr("still late")})
	require.NoError(t, err)
	// completing and reopening reports it again
	_, err = st.UpdateTask(ctx, late.ID, task.UpdateRequest{Progress: ptr(100)})
	require.NoError(t, err)
	// let the dispatcher see the completed state before reopening
	time.Sleep(30 * time.Millisecond)
	_, err = st.UpdateTask(ctx, late.ID, task.UpdateRequest{Progress: ptr(60)})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(n.tags()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, []string{late.ID, late.ID}, n.tags())

	cancel()
	assert.NoError(t, <-done)
}

func ptr[T any](v T) *T { return &v }

func newSubscriptionKeys(t *testing.T) (string, string) {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(auth)
}

func TestSender_RemovesExpiredSubscriptions(t *testing.T) {
	ctx := context.Background()
	var hits atomic.Int32
	push := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if strings.HasSuffix(r.URL.Path, "/gone") {
			w.WriteHeader(http.StatusGone)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer push.Close()

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	vapid := &config.VAPIDEnv{VAPIDPublicKey: publicKey, VAPIDPrivateKey: privateKey, VAPIDContact: "test@example.com"}

	repo := subrepo.NewYAMLRepository(newStorage(t))
	for _, path := range []string{"/ok", "/gone"} {
		p256dh, auth := newSubscriptionKeys(t)
		_, err := repo.Upsert(ctx, &pushsubscription.Subscription{
			ID: strings.TrimPrefix(path, "/"), Endpoint: push.URL + path, P256dhKey: p256dh, AuthKey: auth,
		})
		require.NoError(t, err)
	}

	NewSender(vapid, repo).WithHTTPClient(push.Client()).SendToAll(ctx, &NotificationPayload{Title: "t", Body: "b"})

	assert.Equal(t, int32(2), hits.Load())
	subs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "ok", subs[0].ID)
}

func TestSender_SkipsWithoutVAPID(t *testing.T) {
	ctx := context.Background()
	repo := subrepo.NewYAMLRepository(newStorage(t))
	_, err := repo.Upsert(ctx, &pushsubscription.Subscription{ID: "a", Endpoint: "http://127.0.0.1:1/x"})
	require.NoError(t, err)
	// would fail loudly if it tried to connect; nothing to assert beyond not panicking
	NewSender(&config.VAPIDEnv{}, repo).SendToAll(ctx, &NotificationPayload{Title: "t"})
}

func newRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	s.Routes(r)
	return r
}

func TestServer_Subscriptions(t *testing.T) {
	repo := subrepo.NewYAMLRepository(newStorage(t))
	n := &recordingNotifier{}
	h := newRouter(NewServer(&config.VAPIDEnv{VAPIDPublicKey: "pub"}, repo, n))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/push/vapid-public-key", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"publicKey":"pub"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/push-subscriptions",
		strings.NewReader(`{"endpoint":"https://push.example/a","p256dhKey":"k","authKey":"a"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/push-subscriptions",
		strings.NewReader(`{"endpoint":"https://push.example/a"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	subs, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/push-subscriptions",
		strings.NewReader(`{"endpoint":"https://push.example/a"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/push-subscriptions",
		strings.NewReader(`{"endpoint":"https://push.example/a"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/push/test", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, n.payloads, 1)
}

func TestServer_NoVAPIDKey(t *testing.T) {
	h := newRouter(NewServer(&config.VAPIDEnv{}, subrepo.NewYAMLRepository(newStorage(t)), &recordingNotifier{}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/push/vapid-public-key", nil))
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}
