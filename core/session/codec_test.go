package session

import (
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

func testConf() *core.Config {
	return &core.Config{
		Debug:     true,
		AppName:   "Darasa",
		SecretKey: "test-secret-key",
		Session: core.SessionConfig{
			CookieName:       "darasa_session",
			AccessTokenDelta: time.Hour,
			RefreshDelta:     7 * 24 * time.Hour,
		},
	}
}

func testSession() Session {
	now := time.Now()
	return Session{
		UserID:          "usr-1",
		Name:            null.StringFrom("Jane Teacher"),
		Phone:           "+243970000001",
		Role:            RoleAdmin,
		Workspace:       null.StringFrom("ws-1"),
		AccessToken:     "access-1",
		RefreshToken:    "refresh-1",
		AccessExpiresAt: now.Add(time.Hour),
		OrigIssuedAt:    now,
	}
}

func Test_Codec_roundTrip(t *testing.T) {
	codec := NewCodec(testConf())
	sess := testSession()

	value, deadline, err := codec.Encode(sess)
	if err != nil {
		t.Fatalf("Encode(): %v", err)
	}
	wantDeadline := sess.OrigIssuedAt.Add(7 * 24 * time.Hour)
	if deadline.Unix() != wantDeadline.Unix() {
		t.Errorf("deadline = %v; want %v", deadline, wantDeadline)
	}

	got, err := codec.Decode(value)
	if err != nil {
		t.Fatalf("Decode(): %v", err)
	}
	if got.UserID != sess.UserID {
		t.Errorf("UserID = %q; want %q", got.UserID, sess.UserID)
	}
	if got.Name != sess.Name {
		t.Errorf("Name = %v; want %v", got.Name, sess.Name)
	}
	if got.Role != RoleAdmin {
		t.Errorf("Role = %q; want %q", got.Role, RoleAdmin)
	}
	if got.Workspace != sess.Workspace {
		t.Errorf("Workspace = %v; want %v", got.Workspace, sess.Workspace)
	}
	if got.AccessToken != sess.AccessToken || got.RefreshToken != sess.RefreshToken {
		t.Errorf("token material = (%q, %q); want (%q, %q)",
			got.AccessToken, got.RefreshToken, sess.AccessToken, sess.RefreshToken)
	}
	if got.AccessExpiresAt.Unix() != sess.AccessExpiresAt.Unix() {
		t.Errorf("AccessExpiresAt = %v; want %v", got.AccessExpiresAt, sess.AccessExpiresAt)
	}
	if got.Expired() {
		t.Error("session should not be expired")
	}
}

func Test_Codec_Decode_malformed(t *testing.T) {
	codec := NewCodec(testConf())

	for _, value := range []string{"", "garbage", "a.b.c"} {
		if _, err := codec.Decode(value); err == nil {
			t.Errorf("Decode(%q) should fail", value)
		}
	}
}

func Test_Codec_Decode_badSignature(t *testing.T) {
	codec := NewCodec(testConf())
	value, _, err := codec.Encode(testSession())
	if err != nil {
		t.Fatalf("Encode(): %v", err)
	}

	otherConf := testConf()
	otherConf.SecretKey = "other-secret-key"
	other := NewCodec(otherConf)
	if _, err := other.Decode(value); err == nil {
		t.Error("Decode() with another key should fail")
	}
}

func Test_Codec_Decode_unknownRole(t *testing.T) {
	codec := NewCodec(testConf())
	sess := testSession()
	sess.Role = "teacher" // not in the closed set

	value, _, err := codec.Encode(sess)
	if err != nil {
		t.Fatalf("Encode(): %v", err)
	}
	if _, err := codec.Decode(value); err == nil {
		t.Error("Decode() with an unknown role should fail")
	}
}

func Test_Codec_Decode_pastRefreshDeadline(t *testing.T) {
	codec := NewCodec(testConf())
	sess := testSession()
	sess.OrigIssuedAt = time.Now().Add(-8 * 24 * time.Hour) // window is 7d

	value, _, err := codec.Encode(sess)
	if err != nil {
		t.Fatalf("Encode(): %v", err)
	}
	if _, err := codec.Decode(value); err == nil {
		t.Error("Decode() past the refresh deadline should fail")
	}
}

func Test_New_rejectsBadIdentity(t *testing.T) {
	if _, err := New(Identity{Role: "admin"}); err == nil {
		t.Error("New() without a user id should fail")
	}
	if _, err := New(Identity{UserID: "usr-1", Role: "superuser"}); err == nil {
		t.Error("New() with an unknown role should fail")
	}
}
