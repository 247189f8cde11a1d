package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newEchoContext(cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func Test_CookieStore_writeReadRoundTrip(t *testing.T) {
	store := NewCookieStore(testConf())
	sess := testSession()

	ctx, rec := newEchoContext()
	if err := store.Write(ctx, sess); err != nil {
		t.Fatalf("Write(): %v", err)
	}

	cookie := responseCookie(rec, "darasa_session")
	if cookie == nil {
		t.Fatal("session cookie not set")
	}
	if !cookie.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}
	if cookie.Path != "/" {
		t.Errorf("cookie path = %q; want %q", cookie.Path, "/")
	}
	if cookie.Secure {
		t.Error("cookie should not be Secure in debug mode")
	}

	ctx2, _ := newEchoContext(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	got := store.Read(ctx2)
	if got == nil {
		t.Fatal("Read() should return the written session")
	}
	if got.UserID != sess.UserID || got.Role != sess.Role {
		t.Errorf("Read() = (%q, %q); want (%q, %q)", got.UserID, got.Role, sess.UserID, sess.Role)
	}
}

func Test_CookieStore_Read_absentOrCorrupt(t *testing.T) {
	store := NewCookieStore(testConf())

	ctx, _ := newEchoContext()
	if store.Read(ctx) != nil {
		t.Error("Read() without a cookie should be nil")
	}

	ctx, _ = newEchoContext(&http.Cookie{Name: "darasa_session", Value: "tampered"})
	if store.Read(ctx) != nil {
		t.Error("Read() with a corrupt cookie should be nil")
	}

	ctx, _ = newEchoContext(&http.Cookie{Name: "darasa_session", Value: ""})
	if store.Read(ctx) != nil {
		t.Error("Read() with an empty cookie should be nil")
	}
}

func Test_CookieStore_Clear_idempotent(t *testing.T) {
	store := NewCookieStore(testConf())

	ctx, rec := newEchoContext() // nothing to clear
	store.Clear(ctx)
	store.Clear(ctx)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name != "darasa_session" {
			continue
		}
		if cookie.MaxAge >= 0 || cookie.Value != "" {
			t.Errorf("Clear() should expire the cookie; got MaxAge=%d Value=%q", cookie.MaxAge, cookie.Value)
		}
	}
}

func Test_Authorize(t *testing.T) {
	sess := testSession() // admin
	staff := []Role{RoleOwner, RoleAdmin}

	if err := Authorize(nil, nil); err != ErrUnauthenticated {
		t.Errorf("Authorize(nil) = %v; want ErrUnauthenticated", err)
	}
	if err := Authorize(&sess, nil); err != nil {
		t.Errorf("Authorize() with empty allow-list = %v; want nil", err)
	}
	if err := Authorize(&sess, staff); err != nil {
		t.Errorf("Authorize(admin, staff) = %v; want nil", err)
	}

	sess.Role = RoleStudent
	if err := Authorize(&sess, staff); err != ErrForbidden {
		t.Errorf("Authorize(student, staff) = %v; want ErrForbidden", err)
	}
}
