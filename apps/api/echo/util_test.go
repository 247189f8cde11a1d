package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/audit"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/workspace"
	"github.com/trezcool/darasa/storage/database/inmem"
)

const (
	testCookieName = "darasa_session"
	testPassword   = "s3cr3t"
)

func testConf() *core.Config {
	return &core.Config{
		Debug:     true,
		TestMode:  true,
		AppName:   "Darasa",
		SecretKey: "test-secret-key",
		Session: core.SessionConfig{
			CookieName:       testCookieName,
			AccessTokenDelta: time.Hour,
			RefreshDelta:     7 * 24 * time.Hour,
		},
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Fatal(string, ...interface{}) {}

// fakeProvider is an identity provider double. SignIn accepts any known phone
// with the shared test password; Refresh hands out rotating token pairs.
type fakeProvider struct {
	mu           sync.Mutex
	identities   map[string]session.Identity // by phone
	refreshErr   error
	refreshCalls int
	seq          int
}

var _ session.Provider = (*fakeProvider)(nil)

func newFakeProvider(ids ...session.Identity) *fakeProvider {
	p := &fakeProvider{identities: make(map[string]session.Identity)}
	for _, id := range ids {
		p.identities[id.Phone] = id
	}
	return p
}

func (p *fakeProvider) SignIn(_ context.Context, phone, password string) (session.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.identities[phone]
	if !ok || password != testPassword {
		return session.Identity{}, session.ErrInvalidGrant
	}
	return id, nil
}

func (p *fakeProvider) Refresh(context.Context, string) (session.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshCalls++
	if p.refreshErr != nil {
		return session.Identity{}, p.refreshErr
	}
	p.seq++
	return session.Identity{
		AccessToken:  fmt.Sprintf("access-%d", p.seq),
		RefreshToken: fmt.Sprintf("refresh-%d", p.seq),
		ExpiresIn:    time.Hour,
	}, nil
}

func (p *fakeProvider) RefreshCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshCalls
}

type mailRecorder struct {
	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailService = (*mailRecorder)(nil)

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range messages {
		m.sent = append(m.sent, *msg)
	}
}

func (m *mailRecorder) Sent() []core.EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.EmailMessage(nil), m.sent...)
}

type testApp struct {
	srv      Server
	conf     *core.Config
	codec    *session.Codec
	sink     *inmem.Sink
	repo     *inmem.Repository
	provider *fakeProvider
	mail     *mailRecorder
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWithRepo(t, inmem.NewRepository())
}

func newTestAppWithRepo(t *testing.T, repo workspace.Repository) *testApp {
	t.Helper()
	conf := testConf()
	provider := newFakeProvider(
		session.Identity{
			UserID: "usr-owner", Name: "Olive Owner", Phone: "+243970000001",
			Role: "owner", Workspace: "ws-1",
			AccessToken: "access-0", RefreshToken: "refresh-0", ExpiresIn: time.Hour,
		},
	)
	sink := inmem.NewSink()
	mail := &mailRecorder{}
	srv := NewServer(&Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         noopLogger{},
		Provider:       provider,
		Sink:           sink,
		WorkspaceSvc:   workspace.NewService(repo, mail),
	})

	app := &testApp{
		srv:      srv,
		conf:     conf,
		codec:    session.NewCodec(conf),
		sink:     sink,
		provider: provider,
		mail:     mail,
	}
	if mem, ok := repo.(*inmem.Repository); ok {
		app.repo = mem
	}
	return app
}

func activeSession(role session.Role) session.Session {
	now := time.Now()
	return session.Session{
		UserID:          "usr-" + string(role),
		Name:            null.StringFrom("Test " + string(role)),
		Phone:           "+243970000009",
		Role:            role,
		Workspace:       null.StringFrom("ws-1"),
		AccessToken:     "access-0",
		RefreshToken:    "refresh-0",
		AccessExpiresAt: now.Add(time.Hour),
		OrigIssuedAt:    now,
	}
}

func (app *testApp) sessionCookie(t *testing.T, sess session.Session) *http.Cookie {
	t.Helper()
	value, _, err := app.codec.Encode(sess)
	require.NoError(t, err)
	return &http.Cookie{Name: testCookieName, Value: value}
}

func (app *testApp) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body
}

func dataOf(t *testing.T, rec *httptest.ResponseRecorder) interface{} {
	t.Helper()
	return decodeBody(t, rec)["data"]
}

// lastFlush asserts exactly one audit flush happened and returns its entries.
func (app *testApp) lastFlush(t *testing.T) []audit.Entry {
	t.Helper()
	flushes := app.sink.Flushes()
	require.Len(t, flushes, 1)
	return flushes[0]
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
