package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

const sessionCookieValue = "sid"

// CookieCodec signs the session id into a cookie and reads it back.
type CookieCodec struct {
	name   string
	secure bool
	codec  *securecookie.SecureCookie
}

// NewCookieCodec builds a codec from the configured keys. An empty hash key
// gets a random one, so cookies do not survive a restart.
func NewCookieCodec(name, hashKey, blockKey string, secure bool, maxAge time.Duration) (*CookieCodec, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "session"
	}

	hash := []byte(hashKey)
	if len(hash) == 0 {
		hash = securecookie.GenerateRandomKey(32)
		if hash == nil {
			return nil, fmt.Errorf("generate cookie hash key")
		}
	}

	var block []byte
	if blockKey != "" {
		block = []byte(blockKey)
		switch len(block) {
		case 16, 24, 32:
		default:
			return nil, fmt.Errorf("session block key must be 16, 24 or 32 bytes, got %d", len(block))
		}
	}

	codec := securecookie.New(hash, block)
	if maxAge > 0 {
		codec.MaxAge(int(maxAge / time.Second))
	}

	return &CookieCodec{
		name:   name,
		secure: secure,
		codec:  codec,
	}, nil
}

func (c *CookieCodec) Name() string {
	return c.name
}

func (c *CookieCodec) Write(w http.ResponseWriter, sid string, expiresAt time.Time) error {
	encoded, err := c.codec.Encode(c.name, map[string]string{sessionCookieValue: sid})
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    encoded,
		Path:     "/",
		Expires:  expiresAt.UTC(),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read returns the session id stored in the request cookie.
func (c *CookieCodec) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return "", ErrUnauthenticated
	}

	values := map[string]string{}
	if err := c.codec.Decode(c.name, cookie.Value, &values); err != nil {
		return "", ErrUnauthenticated
	}

	sid := strings.TrimSpace(values[sessionCookieValue])
	if sid == "" {
		return "", ErrUnauthenticated
	}
	return sid, nil
}

func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
