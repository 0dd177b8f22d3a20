package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/zelenin/go-tdlib/client"

	"tg-link-service/internal/domain"
)

// ErrListenerClosed - поток обновлений TDLib закрылся сам
var ErrListenerClosed = errors.New("telegram: update listener closed")

// sendTimeout ограничивает ожидание подтверждения отправки от Telegram
const sendTimeout = 30 * time.Second

// Config - параметры TDLib бота
type Config struct {
	BotToken  string
	APIID     int32
	APIHash   string
	DataDir   string
	Verbosity int32
}

// Bot реализует service.Notifier и принимает входящие команды через TDLib
type Bot struct {
	client *client.Client
	logger *slog.Logger
	selfID int64
	sends  *sendTracker
}

// NewBot поднимает TDLib клиента и авторизуется токеном бота
func NewBot(cfg Config, log *slog.Logger) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram: bot token is required")
	}

	dbDir := filepath.Join(cfg.DataDir, "database")
	filesDir := filepath.Join(cfg.DataDir, "files")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := os.MkdirAll(filesDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir files dir: %w", err)
	}

	if _, err := client.SetLogVerbosityLevel(&client.SetLogVerbosityLevelRequest{
		NewVerbosityLevel: cfg.Verbosity,
	}); err != nil {
		log.Error("TDLib SetLogVerbosityLevel", "error", err)
	}

	tdParams := &client.SetTdlibParametersRequest{
		UseTestDc:           false,
		DatabaseDirectory:   dbDir,
		FilesDirectory:      filesDir,
		UseFileDatabase:     true,
		UseChatInfoDatabase: true,
		UseMessageDatabase:  true,
		UseSecretChats:      false,
		ApiId:               cfg.APIID,
		ApiHash:             cfg.APIHash,
		SystemLanguageCode:  "en",
		DeviceModel:         "Server",
		SystemVersion:       "Linux",
		ApplicationVersion:  "1.0",
	}

	authorizer := client.BotAuthorizer(tdParams, cfg.BotToken)

	tdCli, err := client.NewClient(authorizer)
	if err != nil {
		log.Error("TDLib NewClient error", "error", err)
		return nil, err
	}

	me, err := tdCli.GetMe()
	if err != nil {
		log.Error("GetMe failed", "error", err)
		tdCli.Close()
		return nil, err
	}

	log.Info("TDLib bot initialized and authorized", "self_id", me.Id)

	return &Bot{
		client: tdCli,
		logger: log,
		selfID: me.Id,
		sends:  newSendTracker(),
	}, nil
}

// Close останавливает TDLib клиента
func (b *Bot) Close() {
	if _, err := b.client.Close(); err != nil {
		b.logger.Warn("TDLib close", "error", err)
	}
}

// SendText отправляет HTML текст пользователю по его Telegram ID
func (b *Bot) SendText(ctx context.Context, userID string, text string) (*domain.SentMessage, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidUserID, userID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// приватный чат с пользователем должен быть известен TDLib
	chat, err := b.client.CreatePrivateChat(&client.CreatePrivateChatRequest{
		UserId: id,
		Force:  false,
	})
	if err != nil {
		b.logger.Error("CreatePrivateChat failed", "user_id", id, "error", err)
		return nil, fmt.Errorf("open chat with %d: %w", id, err)
	}

	return b.send(ctx, chat.Id, text, true)
}

// Reply отправляет обычный текст в чат
func (b *Bot) Reply(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.send(ctx, chatID, text, false)
	return err
}

// send отправляет сообщение и ждет, пока Telegram его подтвердит.
// Run должен быть запущен: подтверждения приходят через поток обновлений.
func (b *Bot) send(ctx context.Context, chatID int64, text string, parseHTML bool) (*domain.SentMessage, error) {
	formatted := &client.FormattedText{Text: text}
	if parseHTML {
		formatted = formatHTML(text)
	}

	msg, err := b.client.SendMessage(&client.SendMessageRequest{
		ChatId: chatID,
		InputMessageContent: &client.InputMessageText{
			Text:       formatted,
			ClearDraft: true,
		},
	})
	if err != nil {
		b.logger.Error("SendMessage failed", "chat_id", chatID, "error", err)
		return nil, err
	}

	msg, err = b.awaitSent(ctx, msg)
	if err != nil {
		b.logger.Error("message not delivered", "chat_id", chatID, "error", err)
		return nil, err
	}

	return &domain.SentMessage{
		MessageID: msg.Id,
		ChatID:    msg.ChatId,
		Date:      time.Unix(int64(msg.Date), 0),
	}, nil
}

// awaitSent дожидается итога для сообщения в состоянии pending
func (b *Bot) awaitSent(ctx context.Context, msg *client.Message) (*client.Message, error) {
	switch state := msg.SendingState.(type) {
	case nil:
		return msg, nil
	case *client.MessageSendingStateFailed:
		return nil, sendError(state.Error)
	case *client.MessageSendingStatePending:
	default:
		return msg, nil
	}

	result, cancel := b.sends.wait(msg.Id)
	defer cancel()

	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()

	select {
	case r := <-result:
		if r.err != nil {
			return nil, r.err
		}
		if r.message == nil {
			return msg, nil
		}
		return r.message, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("telegram: no delivery confirmation for message %d after %s", msg.Id, sendTimeout)
	}
}

// Run слушает обновления TDLib и передает входящие текстовые сообщения
// пользователей в handler. Возвращается при отмене ctx или закрытии потока.
func (b *Bot) Run(ctx context.Context, handler func(ctx context.Context, msg domain.IncomingMessage)) error {
	listener := b.client.GetListener()
	defer listener.Close()

	// каждое сообщение обрабатывается отдельно; при выходе дожидаемся всех
	var inflight sync.WaitGroup
	defer inflight.Wait()

	b.logger.Info("bot update loop started")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot update loop stopped")
			return ctx.Err()
		case update, ok := <-listener.Updates:
			if !ok {
				return ErrListenerClosed
			}
			if b.sends.handleUpdate(update) {
				continue
			}
			upd, isMessage := update.(*client.UpdateNewMessage)
			if !isMessage {
				continue
			}
			if msg, ok := b.incoming(upd.Message); ok {
				inflight.Add(1)
				go func() {
					defer inflight.Done()
					handler(ctx, msg)
				}()
			}
		}
	}
}

func (b *Bot) incoming(m *client.Message) (domain.IncomingMessage, bool) {
	if m == nil || m.IsOutgoing {
		return domain.IncomingMessage{}, false
	}
	sender, ok := m.SenderId.(*client.MessageSenderUser)
	if !ok || sender.UserId == b.selfID {
		return domain.IncomingMessage{}, false
	}
	content, ok := m.Content.(*client.MessageText)
	if !ok || content.Text == nil {
		return domain.IncomingMessage{}, false
	}
	return domain.IncomingMessage{
		ChatID: m.ChatId,
		UserID: sender.UserId,
		Text:   content.Text.Text,
	}, true
}
