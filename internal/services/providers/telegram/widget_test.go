package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
)

const testBotToken = "123456:test-bot-token"

func strPtr(v string) *string {
	return &v
}

func sampleWidget() WidgetData {
	return WidgetData{
		Hash:      "ignored",
		ID:        987654321,
		AuthDate:  1700000000,
		FirstName: "Ann",
		LastName:  strPtr("Lee"),
		Username:  strPtr("annlee"),
		PhotoURL:  strPtr("https://t.me/i/userpic/320/ann.jpg"),
	}
}

func referenceHash(t *testing.T, token string, payload []byte) string {
	t.Helper()
	secret := sha256.Sum256([]byte(token))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestStringToHashOrderAndFormat(t *testing.T) {
	got := sampleWidget().StringToHash()

	want := strings.Join([]string{
		"auth_date=1700000000",
		"first_name=Ann",
		"id=987654321",
		"last_name=Lee",
		"photo_url=https://t.me/i/userpic/320/ann.jpg",
		"username=annlee",
	}, "\n")
	assert.Equal(t, want, got)
	assert.False(t, strings.HasSuffix(got, "\n"))
}

func TestStringToHashOmitsAbsentFields(t *testing.T) {
	data := sampleWidget()
	data.LastName = nil
	data.PhotoURL = nil

	got := data.StringToHash()
	assert.NotContains(t, got, "last_name")
	assert.NotContains(t, got, "photo_url")
	assert.NotContains(t, got, "None")
	assert.Equal(t, "auth_date=1700000000\nfirst_name=Ann\nid=987654321\nusername=annlee", got)
}

func TestStringToHashKeepsEmptyPresentValue(t *testing.T) {
	data := sampleWidget()
	data.Username = strPtr("")

	assert.Contains(t, strings.Split(data.StringToHash(), "\n"), "username=")
}

func TestStringToHashIgnoresHash(t *testing.T) {
	a := sampleWidget()
	b := sampleWidget()
	b.Hash = "something-else-entirely"

	assert.Equal(t, a.StringToHash(), b.StringToHash())
	assert.NotContains(t, a.StringToHash(), "hash=")
}

func TestEncodedPassesUTF8Through(t *testing.T) {
	data := sampleWidget()
	data.FirstName = "Иван"
	data.LastName = strPtr("Müller")

	encoded, err := data.Encoded()
	require.NoError(t, err)
	assert.Equal(t, []byte(data.StringToHash()), encoded)
}

func TestEncodedCollapsesEscapes(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "hex", value: `\x41`, want: "A"},
		{name: "latin1 u", value: `caf\u00e9`, want: "caf\xe9"},
		{name: "big U", value: `\U00000042`, want: "B"},
		{name: "octal", value: `\101\0`, want: "A\x00"},
		{name: "simple escapes", value: `a\tb\nc\\d\'e\"`, want: "a\tb\nc\\d'e\""},
		{name: "line continuation", value: "a\\\nb", want: "ab"},
		{name: "unknown escape kept", value: `\q\z`, want: `\q\z`},
		{name: "named", value: `\N{latin small letter e with acute}`, want: "\xe9"},
		{name: "named control", value: `\N{LINE FEED}\N{null}\N{DEL}`, want: "\n\x00\x7f"},
		{name: "named abbreviation", value: `a\N{NBSP}b\N{shy}`, want: "a\xa0b\xad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := WidgetData{Hash: "h", ID: 1, AuthDate: 2, FirstName: tt.value}
			encoded, err := data.Encoded()
			require.NoError(t, err)
			assert.Equal(t, "auth_date=2\nfirst_name="+tt.want+"\nid=1", string(encoded))
		})
	}
}

func TestEncodedFailsOnNonLatin1OrBrokenEscapes(t *testing.T) {
	for name, value := range map[string]string{
		"beyond latin1":     `\u0100`,
		"octal above 255":   `\777`,
		"truncated hex":     `\x4`,
		"truncated u":       `\u00e`,
		"out of range U":    `\U00110000`,
		"unknown name":      `\N{NO SUCH CHARACTER}`,
		"non latin1 name":   `\N{GREEK SMALL LETTER ALPHA}`,
		"unterminated name": `\N{LATIN`,
	} {
		t.Run(name, func(t *testing.T) {
			data := WidgetData{Hash: "h", ID: 1, AuthDate: 2, FirstName: value}
			_, err := data.Encoded()
			require.Error(t, err)
		})
	}

	data := WidgetData{Hash: "h", ID: 1, AuthDate: 2, Username: strPtr(`trailing\`)}
	_, err := data.Encoded()
	require.Error(t, err, "a trailing backslash must not decode")
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	data := sampleWidget()
	data.Hash = strings.ToUpper(referenceHash(t, testBotToken, []byte(data.StringToHash())))

	v := NewVerifier(testBotToken, 24*time.Hour)
	v.now = func() time.Time { return time.Unix(data.AuthDate, 0).Add(time.Hour) }

	require.NoError(t, v.Verify(data))
}

func TestVerifyRejectsTamperedField(t *testing.T) {
	data := sampleWidget()
	data.Hash = referenceHash(t, testBotToken, []byte(data.StringToHash()))
	data.Username = strPtr("mallory")

	v := NewVerifier(testBotToken, 0)
	v.now = func() time.Time { return time.Unix(data.AuthDate, 0) }

	err := v.Verify(data)
	require.ErrorIs(t, err, ErrInvalidSignature)
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestVerifyRejectsWrongToken(t *testing.T) {
	data := sampleWidget()
	data.Hash = referenceHash(t, "other:token", []byte(data.StringToHash()))

	v := NewVerifier(testBotToken, 0)
	require.ErrorIs(t, v.Verify(data), ErrInvalidSignature)
}

func TestVerifyAuthDateWindow(t *testing.T) {
	data := sampleWidget()
	data.Hash = referenceHash(t, testBotToken, []byte(data.StringToHash()))
	signedAt := time.Unix(data.AuthDate, 0)

	v := NewVerifier(testBotToken, 24*time.Hour)

	v.now = func() time.Time { return signedAt.Add(25 * time.Hour) }
	require.ErrorIs(t, v.Verify(data), ErrAuthDateExpired)

	v.now = func() time.Time { return signedAt.Add(-3 * time.Minute) }
	require.ErrorIs(t, v.Verify(data), ErrAuthDateExpired)

	v.now = func() time.Time { return signedAt.Add(-time.Minute) }
	require.NoError(t, v.Verify(data))

	unlimited := NewVerifier(testBotToken, 0)
	unlimited.now = func() time.Time { return signedAt.Add(365 * 24 * time.Hour) }
	require.NoError(t, unlimited.Verify(data))
}

func TestVerifyRejectsUnencodableSignature(t *testing.T) {
	data := sampleWidget()
	data.FirstName = `Ā`
	data.Hash = strings.Repeat("0", 64)

	v := NewVerifier(testBotToken, 0)
	require.ErrorIs(t, v.Verify(data), ErrInvalidSignature)
}

func TestVerifyRequiresConfigurationAndShape(t *testing.T) {
	require.ErrorIs(t, NewVerifier("", 0).Verify(sampleWidget()), ErrNotConfigured)

	data := sampleWidget()
	data.Hash = ""
	err := NewVerifier(testBotToken, 0).Verify(data)
	require.ErrorIs(t, err, ErrInvalidWidgetData)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSignMatchesVerify(t *testing.T) {
	data := sampleWidget()
	data.FirstName = `café`

	v := NewVerifier(testBotToken, 0)
	hash, err := v.Sign(data)
	require.NoError(t, err)

	data.Hash = hash
	require.NoError(t, v.Verify(data))
}
