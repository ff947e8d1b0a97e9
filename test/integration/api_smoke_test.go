package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ivankudzin/orgreviews/internal/app/apiapp"
	"github.com/ivankudzin/orgreviews/internal/config"
	tgprovider "github.com/ivankudzin/orgreviews/internal/services/providers/telegram"
)

const testBotToken = "123456:integration-token"

func newServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()

	app, err := apiapp.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	ts := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Shutdown(ctx)
	})
	return ts
}

func smokeConfig(t *testing.T) config.Config {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.HTTP.Addr = ":0"
	cfg.Postgres.DSN = ""
	cfg.Redis.Addr = mr.Addr()
	cfg.S3.Endpoint = ""
	cfg.Metrics.Enabled = true
	cfg.Telegram.BotToken = testBotToken
	cfg.Bot.NotifyDecisions = false
	return cfg
}

func TestHealthzWithoutPostgres(t *testing.T) {
	ts := newServer(t, smokeConfig(t))

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payload struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "ok", payload.Status)
	assert.Equal(t, "ok", payload.Checks["redis"])
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	ts := newServer(t, smokeConfig(t))

	for _, path := range []string{"/users/me", "/organizations", "/users/with-pending-approvement"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestLogoutWithoutSession(t *testing.T) {
	ts := newServer(t, smokeConfig(t))

	resp, err := http.Post(ts.URL+"/users/logout", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestForgedWidgetIsRejected(t *testing.T) {
	ts := newServer(t, smokeConfig(t))

	body := `{"id":42,"first_name":"Ann","auth_date":` + unixNow() + `,"hash":"00"}`
	resp, err := http.Post(ts.URL+"/providers/telegram/login", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMetricsExposed(t *testing.T) {
	ts := newServer(t, smokeConfig(t))

	warm, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	_ = warm.Body.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "orgreviews_http_requests_total")
}

// TestConnectThenReview needs a disposable database in
// ORGREVIEWS_TEST_POSTGRES_DSN.
func TestConnectThenReview(t *testing.T) {
	dsn := os.Getenv("ORGREVIEWS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ORGREVIEWS_TEST_POSTGRES_DSN is not set")
	}

	cfg := smokeConfig(t)
	cfg.Postgres.DSN = dsn
	cfg.Postgres.MigrateOnStartup = true
	ts := newServer(t, cfg)

	widget := tgprovider.WidgetData{
		ID:        time.Now().UnixNano() & 0x7fffffff,
		FirstName: "Ann",
		AuthDate:  time.Now().Unix(),
	}
	hash, err := tgprovider.NewVerifier(testBotToken, cfg.Telegram.MaxAuthAge).Sign(widget)
	require.NoError(t, err)
	widget.Hash = hash
	payload, err := json.Marshal(widget)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/providers/telegram/login", "application/json", strings.NewReader(string(payload)))
	require.NoError(t, err)
	var login struct {
		NeedToConnect bool `json:"need_to_connect"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, login.NeedToConnect)

	resp, err = http.Post(ts.URL+"/providers/telegram/connect", "application/json", strings.NewReader(string(payload)))
	require.NoError(t, err)
	var connect struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Session struct {
			AccessToken string `json:"access_token"`
		} `json:"session"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&connect))
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, connect.Session.AccessToken)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/users/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+connect.Session.AccessToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var me struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, connect.User.ID, me.ID)

	req, err = http.NewRequest(http.MethodPost, ts.URL+"/organizations", strings.NewReader(`{"name":"Acme"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+connect.Session.AccessToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func unixNow() string {
	b, _ := json.Marshal(time.Now().Unix())
	return string(b)
}
