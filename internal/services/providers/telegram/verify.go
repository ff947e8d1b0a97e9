package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const maxClockSkew = 2 * time.Minute

// Verifier checks login widget payloads against the bot token they were
// signed with.
type Verifier struct {
	botToken string
	maxAge   time.Duration
	now      func() time.Time
}

func NewVerifier(botToken string, maxAge time.Duration) *Verifier {
	return &Verifier{
		botToken: strings.TrimSpace(botToken),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

func (v *Verifier) Verify(data WidgetData) error {
	if v == nil || v.botToken == "" {
		return ErrNotConfigured
	}
	if err := data.Validate(); err != nil {
		return err
	}

	encoded, err := data.Encoded()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !v.checkHash(encoded, data.Hash) {
		return ErrInvalidSignature
	}

	now := v.now().UTC()
	authTime := time.Unix(data.AuthDate, 0).UTC()
	if authTime.After(now.Add(maxClockSkew)) {
		return ErrAuthDateExpired
	}
	if v.maxAge > 0 && now.Sub(authTime) > v.maxAge {
		return ErrAuthDateExpired
	}

	return nil
}

// Sign computes the hash Telegram would attach to data.
func (v *Verifier) Sign(data WidgetData) (string, error) {
	encoded, err := data.Encoded()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(v.mac(encoded)), nil
}

func (v *Verifier) checkHash(encoded []byte, incoming string) bool {
	hashLower := strings.ToLower(strings.TrimSpace(incoming))
	if hashLower == "" {
		return false
	}
	expected := hex.EncodeToString(v.mac(encoded))
	return hmac.Equal([]byte(hashLower), []byte(expected))
}

func (v *Verifier) mac(encoded []byte) []byte {
	secret := sha256.Sum256([]byte(v.botToken))
	h := hmac.New(sha256.New, secret[:])
	h.Write(encoded)
	return h.Sum(nil)
}
