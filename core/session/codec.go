package session

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// claims is the serialized form of a Session transmitted via the cookie.
// `exp` is the refresh deadline (OrigIssuedAt + refresh window), NOT the
// access token expiry: an expired-but-refreshable session must still decode.
type claims struct {
	jwt.StandardClaims
	OrigIssuedAt    int64  `json:"oriat,omitempty"`
	Name            string `json:"name,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Role            string `json:"role,omitempty"`
	Workspace       string `json:"workspace,omitempty"`
	AccessToken     string `json:"at,omitempty"`
	RefreshToken    string `json:"rt,omitempty"`
	AccessExpiresAt int64  `json:"atexp,omitempty"`
}

// Codec signs Sessions into opaque cookie values and parses them back.
type Codec struct {
	appName      string
	secretKey    []byte
	refreshDelta time.Duration
}

func NewCodec(conf *core.Config) *Codec {
	return &Codec{
		appName:      conf.AppName,
		secretKey:    []byte(conf.SecretKey),
		refreshDelta: conf.Session.RefreshDelta,
	}
}

// Encode signs sess into a cookie value and returns it along with the refresh
// deadline the cookie itself should expire at.
func (c *Codec) Encode(sess Session) (string, time.Time, error) {
	deadline := sess.OrigIssuedAt.Add(c.refreshDelta)
	clms := &claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    c.appName,
			Subject:   sess.UserID,
			ExpiresAt: deadline.Unix(),
			IssuedAt:  time.Now().Unix(),
		},
		OrigIssuedAt:    sess.OrigIssuedAt.Unix(),
		Name:            sess.Name.String,
		Phone:           sess.Phone,
		Role:            string(sess.Role),
		Workspace:       sess.Workspace.String,
		AccessToken:     sess.AccessToken,
		RefreshToken:    sess.RefreshToken,
		AccessExpiresAt: sess.AccessExpiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, clms)
	ss, err := token.SignedString(c.secretKey)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "signing session")
	}
	return ss, deadline, nil
}

// Decode parses and verifies a cookie value. It fails on a bad signature, a
// malformed value, a role outside the closed set or a passed refresh deadline.
func (c *Codec) Decode(value string) (*Session, error) {
	clms := new(claims)
	_, err := jwt.ParseWithClaims(value, clms, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return c.secretKey, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parsing session")
	}

	role, err := ParseRole(clms.Role)
	if err != nil {
		return nil, errors.Wrap(err, "parsing session role")
	}
	if clms.Subject == "" {
		return nil, errors.New("session has no user id")
	}

	return &Session{
		UserID:          clms.Subject,
		Name:            nullString(clms.Name),
		Phone:           clms.Phone,
		Role:            role,
		Workspace:       nullString(clms.Workspace),
		AccessToken:     clms.AccessToken,
		RefreshToken:    clms.RefreshToken,
		AccessExpiresAt: time.Unix(clms.AccessExpiresAt, 0),
		OrigIssuedAt:    time.Unix(clms.OrigIssuedAt, 0),
	}, nil
}
