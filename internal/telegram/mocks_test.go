package telegram_test

import (
	"context"

	"civicledger/backend/internal/audit"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"
)

type MockBot struct {
	mock.Mock
}

func (m *MockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

func (m *MockBot) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.Called(config).Get(0).(tgbotapi.UpdatesChannel)
}

func (m *MockBot) StopReceivingUpdates() {
	m.Called()
}

// sentText returns the text of the n-th message passed to Send.
func (m *MockBot) sentText(n int) string {
	var texts []string
	for _, call := range m.Calls {
		if call.Method != "Send" {
			continue
		}
		if msg, ok := call.Arguments.Get(0).(tgbotapi.MessageConfig); ok {
			texts = append(texts, msg.Text)
		}
	}
	if n >= len(texts) {
		return ""
	}
	return texts[n]
}

type MockAudit struct {
	mock.Mock
}

func (m *MockAudit) GetAuditRecord(ctx context.Context, complaintID string) (*audit.Record, error) {
	args := m.Called(ctx, complaintID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Record), args.Error(1)
}
