// Package telegram connects the grievance pipeline to Telegram: fraud alerts
// for supervisors and an /audit command that lets anyone check a proof.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"civicledger/backend/internal/apperr"
	"civicledger/backend/internal/audit"
	"civicledger/backend/internal/localization"
)

// BotAPI is the subset of *tgbotapi.BotAPI the bot uses.
type BotAPI interface {
	Sender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// AuditSource answers /audit lookups. *audit.Query implements it.
type AuditSource interface {
	GetAuditRecord(ctx context.Context, complaintID string) (*audit.Record, error)
}

// BotService receives Telegram updates and answers commands.
type BotService struct {
	BotAPI    BotAPI
	Audit     AuditSource
	Localizer *localization.Localizer
	Log       logrus.FieldLogger
}

// NewBotAPI authorizes the bot token.
func NewBotAPI(token string, log logrus.FieldLogger) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	bot.Debug = false
	log.WithField("account", bot.Self.UserName).Info("Authorized on Telegram")
	return bot, nil
}

func NewBotService(bot BotAPI, source AuditSource, loc *localization.Localizer, log logrus.FieldLogger) *BotService {
	return &BotService{BotAPI: bot, Audit: source, Localizer: loc, Log: log}
}

// Run long-polls for updates until ctx is cancelled.
func (s *BotService) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			s.BotAPI.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			s.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate answers one update. Only commands get a reply.
func (s *BotService) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return
	}

	lang := localization.DefaultLanguage
	if msg.From != nil {
		lang = s.Localizer.Lang(msg.From.LanguageCode)
	}

	var text string
	switch msg.Command() {
	case "start":
		text = s.Localizer.GetString(lang, "bot_welcome")
	case "help":
		text = s.Localizer.GetString(lang, "bot_help")
	case "audit":
		text = s.auditReply(ctx, lang, strings.TrimSpace(msg.CommandArguments()))
	default:
		text = s.Localizer.GetString(lang, "bot_unknown_command")
	}

	if _, err := s.BotAPI.Send(tgbotapi.NewMessage(msg.Chat.ID, text)); err != nil {
		s.Log.WithError(err).WithField("chat_id", msg.Chat.ID).Warn("Failed to send Telegram reply")
	}
}

func (s *BotService) auditReply(ctx context.Context, lang, complaintID string) string {
	if complaintID == "" {
		return s.Localizer.GetString(lang, "audit_usage")
	}

	rec, err := s.Audit.GetAuditRecord(ctx, complaintID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return s.Localizer.Format(lang, "audit_not_found", complaintID)
	case errors.Is(err, apperr.ErrDataIntegrity):
		return s.Localizer.Format(lang, "audit_integrity", complaintID)
	case err != nil:
		s.Log.WithError(err).WithField("complaint_id", complaintID).Error("Audit lookup failed")
		return s.Localizer.GetString(lang, "audit_unavailable")
	}

	if rec.DLTProof == nil {
		return s.Localizer.Format(lang, "audit_open", rec.ComplaintID, rec.Classification, rec.Status, rec.Seriousness)
	}
	p := rec.DLTProof
	return s.Localizer.Format(lang, "audit_closed",
		rec.ComplaintID, rec.Classification, rec.Status, rec.Seriousness,
		p.OfficerName, p.Score*100, s.yesNo(lang, p.IsFraudulent), p.ProofHash, s.yesNo(lang, p.Verified))
}

func (s *BotService) yesNo(lang string, v bool) string {
	if v {
		return s.Localizer.GetString(lang, "yes")
	}
	return s.Localizer.GetString(lang, "no")
}
