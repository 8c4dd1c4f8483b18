package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/mymmrac/telego"

	"github.com/profilebot/profilebot/internal/logger"
	"github.com/profilebot/profilebot/internal/profile"
)

const sendTimeout = 10 * time.Second

// messageSender is the slice of the telego bot API the observer needs.
// Kept as an interface so tests can substitute a mock.
type messageSender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// TelegramObserver pushes task observations to a Telegram chat. Send
// failures are logged and dropped.
type TelegramObserver struct {
	bot    messageSender
	chatID int64
	logger *logger.Logger
}

var _ TaskObserver = (*TelegramObserver)(nil)

// NewTelegramObserver creates an observer for the given bot token and chat.
func NewTelegramObserver(token string, chatID int64, log *logger.Logger) (*TelegramObserver, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramObserver{bot: bot, chatID: chatID, logger: log}, nil
}

func (o *TelegramObserver) TaskStarted(task profile.Task, p *profile.Profile) {
	// Start events are log-only; a message per task start would be noise.
}

func (o *TelegramObserver) TaskCompleted(task profile.Task, p *profile.Profile) {
	o.send(fmt.Sprintf("✅ %s: %s done in %s", p.UserName, task.FullActionName(), task.Duration().Round(time.Millisecond)))
}

func (o *TelegramObserver) TaskFailed(task profile.Task, p *profile.Profile, err error) {
	o.send(fmt.Sprintf("❌ %s: %s failed: %v", p.UserName, task.FullActionName(), err))
}

func (o *TelegramObserver) send(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	_, err := o.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: o.chatID},
		Text:   text,
	})
	if err != nil {
		o.logger.Warn("telegram notification failed", logger.Field{Key: "error", Value: err.Error()})
	}
}
