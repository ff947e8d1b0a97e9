package telegram

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
	"github.com/ivankudzin/orgreviews/internal/domain/model"
)

var (
	ErrInvalidWidgetData = fmt.Errorf("invalid telegram widget data: %w", apperr.ErrValidation)
	ErrInvalidSignature  = fmt.Errorf("invalid telegram widget signature: %w", apperr.ErrUnauthenticated)
	ErrAuthDateExpired   = fmt.Errorf("telegram auth date is outside the accepted window: %w", apperr.ErrUnauthenticated)
	ErrNotConfigured     = errors.New("telegram provider is not configured")
)

// WidgetData is the payload the Telegram login widget hands to the client.
// Optional fields are nil when Telegram did not send them.
type WidgetData struct {
	Hash      string  `json:"hash"`
	ID        int64   `json:"id"`
	AuthDate  int64   `json:"auth_date"`
	FirstName string  `json:"first_name"`
	LastName  *string `json:"last_name,omitempty"`
	Username  *string `json:"username,omitempty"`
	PhotoURL  *string `json:"photo_url,omitempty"`
}

type LoginResponse struct {
	NeedToConnect bool `json:"need_to_connect"`
}

func (d WidgetData) Validate() error {
	if strings.TrimSpace(d.Hash) == "" {
		return fmt.Errorf("hash is required: %w", ErrInvalidWidgetData)
	}
	if d.ID <= 0 {
		return fmt.Errorf("id is required: %w", ErrInvalidWidgetData)
	}
	if d.AuthDate <= 0 {
		return fmt.Errorf("auth_date is required: %w", ErrInvalidWidgetData)
	}
	return nil
}

// fields returns every signed field that is present. Hash never takes part
// in the signature.
func (d WidgetData) fields() map[string]string {
	out := map[string]string{
		"id":         strconv.FormatInt(d.ID, 10),
		"auth_date":  strconv.FormatInt(d.AuthDate, 10),
		"first_name": d.FirstName,
	}
	if d.LastName != nil {
		out["last_name"] = *d.LastName
	}
	if d.Username != nil {
		out["username"] = *d.Username
	}
	if d.PhotoURL != nil {
		out["photo_url"] = *d.PhotoURL
	}
	return out
}

// StringToHash is the data-check-string: key=value lines sorted by key and
// joined with a newline, without a trailing one.
func (d WidgetData) StringToHash() string {
	fields := d.fields()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}
	return strings.Join(lines, "\n")
}

// Encoded returns the bytes that get signed. The data-check-string is read
// back through unicode-escape decoding and written out as ISO-8859-1, so
// escape sequences in field values collapse to the characters they name and
// plain UTF-8 passes through unchanged.
func (d WidgetData) Encoded() ([]byte, error) {
	decoded, err := decodeUnicodeEscape([]byte(d.StringToHash()))
	if err != nil {
		return nil, fmt.Errorf("decode unicode escapes: %w", err)
	}
	return encodeLatin1(decoded)
}

// TelegramInfo is the profile part of the payload as stored on a user.
func (d WidgetData) TelegramInfo() model.TelegramInfo {
	return model.TelegramInfo{
		ID:        d.ID,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Username:  d.Username,
		PhotoURL:  d.PhotoURL,
	}
}

func encodeLatin1(runes []rune) ([]byte, error) {
	for i, r := range runes {
		if r < 0 || r > 0xFF {
			return nil, fmt.Errorf("character U+%04X at position %d is not latin-1", r, i)
		}
	}
	out, err := charmap.ISO8859_1.NewEncoder().String(string(runes))
	if err != nil {
		return nil, fmt.Errorf("encode latin-1: %w", err)
	}
	return []byte(out), nil
}
