package notifications

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ivankudzin/orgreviews/internal/domain/enums"
	"github.com/ivankudzin/orgreviews/internal/domain/model"
)

type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Notifier tells users about moderator decisions through the Telegram bot.
// A nil sender turns every call into a no-op.
type Notifier struct {
	sender Sender
	logger *zap.Logger
}

func NewNotifier(sender Sender, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{sender: sender, logger: logger}
}

// ApprovementDecided sends the decision to the user's Telegram chat. Users
// without a linked Telegram account are skipped. Delivery failures are
// logged and never returned: the decision is already stored.
func (n *Notifier) ApprovementDecided(ctx context.Context, user model.User, organizationName string) {
	if n == nil || n.sender == nil || user.Telegram == nil || user.Telegram.ID == 0 {
		return
	}

	text := DecisionText(user, organizationName)
	if err := n.sender.SendText(ctx, user.Telegram.ID, text); err != nil {
		n.logger.Warn("approvement notification failed",
			zap.String("user_id", user.ID.String()),
			zap.Int64("telegram_id", user.Telegram.ID),
			zap.Error(err),
		)
	}
}

func DecisionText(user model.User, organizationName string) string {
	org := strings.TrimSpace(organizationName)
	if org == "" {
		org = "the organization"
	}

	var b strings.Builder
	switch user.Approvement.Status {
	case enums.ApprovementStatusApproved:
		fmt.Fprintf(&b, "Your membership in %s has been approved.", org)
	case enums.ApprovementStatusRejected:
		fmt.Fprintf(&b, "Your membership request for %s has been rejected.", org)
	default:
		return StatusText(user)
	}

	if comment := strings.TrimSpace(user.Approvement.Comment); comment != "" {
		b.WriteString("\nModerator comment: ")
		b.WriteString(comment)
	}
	return b.String()
}

// StatusText describes the current approval state in one or two lines.
func StatusText(user model.User) string {
	switch user.Approvement.Status {
	case enums.ApprovementStatusPending:
		return "Your approval request is waiting for a moderator."
	case enums.ApprovementStatusApproved:
		return withComment("Your approval request has been approved.", user.Approvement.Comment)
	case enums.ApprovementStatusRejected:
		return withComment("Your approval request has been rejected.", user.Approvement.Comment)
	default:
		return "You have not requested approval yet."
	}
}

func withComment(text, comment string) string {
	if c := strings.TrimSpace(comment); c != "" {
		return text + "\nModerator comment: " + c
	}
	return text
}
