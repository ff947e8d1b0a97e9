package botapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ivankudzin/orgreviews/internal/domain/apperr"
	"github.com/ivankudzin/orgreviews/internal/domain/model"
	tginfra "github.com/ivankudzin/orgreviews/internal/infra/telegram"
	"github.com/ivankudzin/orgreviews/internal/services/notifications"
)

const (
	notConnectedText = "Your Telegram account is not connected yet. Log in on the website with the Telegram button, then send /status again."
	helpText         = "Commands:\n/status - show your approval status"
)

type userLookup interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (model.User, error)
}

type textSender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// commands answers bot commands. Lookup failures are reported to the chat
// and never stop the update loop.
type commands struct {
	users  userLookup
	sender textSender
}

func (c commands) handle(ctx context.Context, update tginfra.CommandUpdate) error {
	var text string
	switch strings.ToLower(strings.TrimSpace(update.Command)) {
	case "start", "status":
		text = c.statusText(ctx, update.UserID)
	case "help":
		text = helpText
	default:
		return nil
	}
	return c.sender.SendText(ctx, update.ChatID, text)
}

func (c commands) statusText(ctx context.Context, telegramID int64) string {
	user, err := c.users.GetByTelegramID(ctx, telegramID)
	if errors.Is(err, apperr.ErrNotFound) {
		return notConnectedText
	}
	if err != nil {
		return "Could not load your status right now, please try again later."
	}

	greeting := "Hi!"
	if user.Telegram != nil && strings.TrimSpace(user.Telegram.FirstName) != "" {
		greeting = fmt.Sprintf("Hi, %s!", strings.TrimSpace(user.Telegram.FirstName))
	}
	return greeting + "\n" + notifications.StatusText(user)
}
