package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/orgreviews/internal/services/auth"
	tgprovider "github.com/ivankudzin/orgreviews/internal/services/providers/telegram"
	"github.com/ivankudzin/orgreviews/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/orgreviews/internal/transport/http/errors"
)

type telegramProvider interface {
	Login(ctx context.Context, data tgprovider.WidgetData) (tgprovider.LoginResult, error)
	Connect(ctx context.Context, actor *authsvc.Identity, data tgprovider.WidgetData) (tgprovider.ConnectResult, error)
}

type sessionTerminator interface {
	Logout(ctx context.Context, sid string) error
}

// AuthHandler serves the Telegram provider endpoints and logout. Every
// started session is written both as a cookie and as a bearer token.
type AuthHandler struct {
	telegram telegramProvider
	sessions sessionTerminator
	cookies  *authsvc.CookieCodec
	logger   *zap.Logger
}

func NewAuthHandler(telegram telegramProvider, sessions sessionTerminator, cookies *authsvc.CookieCodec, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		telegram: telegram,
		sessions: sessions,
		cookies:  cookies,
		logger:   logger,
	}
}

func (h *AuthHandler) TelegramLogin(w http.ResponseWriter, r *http.Request) {
	if h.telegram == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "telegram provider is unavailable")
		return
	}

	var req tgprovider.WidgetData
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	res, err := h.telegram.Login(r.Context(), req)
	if err != nil {
		h.writeProviderError(w, err)
		return
	}

	out := dto.TelegramLoginResponse{NeedToConnect: res.Response.NeedToConnect}
	if res.Session != nil {
		session, err := h.startSession(w, *res.Session)
		if err != nil {
			h.logger.Error("write session cookie", zap.Error(err))
			writeInternal(w, httperrors.CodeInternal, "internal server error")
			return
		}
		out.Session = session
	}

	httperrors.Write(w, http.StatusOK, out)
}

func (h *AuthHandler) TelegramConnect(w http.ResponseWriter, r *http.Request) {
	if h.telegram == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "telegram provider is unavailable")
		return
	}

	var req tgprovider.WidgetData
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	var actor *authsvc.Identity
	if id, ok := authsvc.IdentityFromContext(r.Context()); ok {
		actor = &id
	}

	res, err := h.telegram.Connect(r.Context(), actor, req)
	if err != nil {
		h.writeProviderError(w, err)
		return
	}

	out := dto.TelegramConnectResponse{User: dto.NewViewUser(res.User)}
	if res.Session != nil {
		session, err := h.startSession(w, *res.Session)
		if err != nil {
			h.logger.Error("write session cookie", zap.Error(err))
			writeInternal(w, httperrors.CodeInternal, "internal server error")
			return
		}
		out.Session = session
	}

	httperrors.Write(w, http.StatusOK, out)
}

// Logout drops the session named by the bearer token or the cookie and
// clears the cookie. It reports success even when there was no session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sid := identity(r).SID
	if sid == "" && h.cookies != nil {
		sid, _ = h.cookies.Read(r)
	}

	if sid != "" && h.sessions != nil {
		if err := h.sessions.Logout(r.Context(), sid); err != nil {
			h.logger.Warn("logout failed", zap.Error(err))
		}
	}
	if h.cookies != nil {
		h.cookies.Clear(w)
	}

	httperrors.Write(w, http.StatusOK, dto.LogoutResponse{OK: true})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, res authsvc.AuthResult) (*dto.SessionResponse, error) {
	if h.cookies != nil {
		if err := h.cookies.Write(w, res.SessionID, res.SessionExpires); err != nil {
			return nil, err
		}
	}
	return &dto.SessionResponse{
		AccessToken:  res.AccessToken,
		ExpiresInSec: max(0, int64(time.Until(res.AccessExpires).Seconds())),
		ExpiresAt:    res.SessionExpires.UTC(),
	}, nil
}

func (h *AuthHandler) writeProviderError(w http.ResponseWriter, err error) {
	if errors.Is(err, tgprovider.ErrNotConfigured) {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "telegram provider is not configured")
		return
	}
	status, body := httperrors.FromError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("telegram provider failed", zap.Error(err))
	}
	httperrors.Write(w, status, body)
}
