package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"civicledger/backend/internal/localization"
	"civicledger/backend/internal/models"
)

// Sender is the part of *tgbotapi.BotAPI used to push messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts an alert to the supervisors' chat whenever a resolution
// attempt is flagged as fraud.
type Notifier struct {
	Bot       Sender
	ChatID    int64
	Localizer *localization.Localizer
	Lang      string
	Log       logrus.FieldLogger
}

func NewNotifier(bot Sender, chatID int64, loc *localization.Localizer, log logrus.FieldLogger) *Notifier {
	return &Notifier{Bot: bot, ChatID: chatID, Localizer: loc, Lang: localization.DefaultLanguage, Log: log}
}

// OnTransition alerts on new fraud verdicts only. Restoring a deleted FRAUD
// grievance is not a new verdict.
func (n *Notifier) OnTransition(_ context.Context, ev models.StatusEvent) {
	if n == nil || n.ChatID == 0 || ev.To != models.StatusFraud || !ev.From.Open() {
		return
	}

	text := n.Localizer.Format(n.Lang, "fraud_alert", ev.ComplaintID, ev.OfficerID, ev.Reason, ev.ProofHash)
	if _, err := n.Bot.Send(tgbotapi.NewMessage(n.ChatID, text)); err != nil {
		n.Log.WithError(err).WithField("complaint_id", ev.ComplaintID).Warn("Failed to send Telegram fraud alert")
	}
}
