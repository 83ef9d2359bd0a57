package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/go-resty/resty/v2"
	"github.com/how-als/how-als/internal/analysis"
	"github.com/rs/zerolog/log"
)

// BotAPI defines the Telegram bot API operations the bot uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Analyzer is the part of *analysis.Analyzer the bot needs.
type Analyzer interface {
	Analyze(ctx context.Context, payload *analysis.ImagePayload) (*analysis.Result, error)
}

// Bot answers photos sent in chat with the analysis result. It keeps no
// per-user state.
type Bot struct {
	tg       BotAPI
	analyzer Analyzer
	http     *resty.Client
}

func NewBot(tg BotAPI, analyzer Analyzer) *Bot {
	return &Bot{
		tg:       tg,
		analyzer: analyzer,
		http:     newDownloadClient(),
	}
}

// Run handles updates until ctx is cancelled or updates is closed, then waits
// for in-flight handlers.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping bot update loop")
			wg.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				log.Warn().Msg("updates channel closed")
				wg.Wait()
				return nil
			}
			wg.Add(1)
			go func(u tgbotapi.Update) {
				defer wg.Done()
				b.HandleUpdate(ctx, u)
			}(update)
		}
	}
}

// HandleUpdate processes a single update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.Chat == nil {
		return
	}

	switch {
	case message.IsCommand():
		b.handleCommand(message)
	case len(message.Photo) > 0:
		// Telegram orders sizes ascending; the last one is the original resolution.
		largest := message.Photo[len(message.Photo)-1]
		b.analyzeFile(ctx, message, largest.FileID, "image/jpeg")
	case message.Document != nil && strings.HasPrefix(message.Document.MimeType, "image/"):
		b.analyzeFile(ctx, message, message.Document.FileID, message.Document.MimeType)
	case message.Document != nil:
		b.reply(message, MsgUnsupportedDocument)
	default:
		b.reply(message, MsgSendPhoto)
	}
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	switch message.Command() {
	case "start", "help":
		b.reply(message, MsgHelp)
	default:
		b.reply(message, MsgUnknownCommand)
	}
}

func (b *Bot) analyzeFile(ctx context.Context, message *tgbotapi.Message, fileID, mimeType string) {
	b.sendTyping(message.Chat.ID)

	data, err := b.downloadFileID(ctx, fileID)
	if err != nil {
		log.Error().Err(err).Str("fileID", fileID).Msg("failed to download file")
		b.reply(message, MsgDownloadFailed)
		return
	}

	payload, err := analysis.NewPayload(data, mimeType)
	if err != nil {
		b.reply(message, analysis.UserMessage(err))
		return
	}

	result, err := b.analyzer.Analyze(analysis.WithSource(ctx, "telegram"), payload)
	if err != nil {
		b.reply(message, analysis.UserMessage(err))
		return
	}

	b.reply(message, formatResult(result))
}

func (b *Bot) sendTyping(chatID int64) {
	// Request instead of Send because sendChatAction returns a boolean, not a Message
	if _, err := b.tg.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		log.Debug().Err(err).Msg("failed to send typing action")
	}
}

func (b *Bot) reply(message *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID
	if _, err := b.tg.Send(msg); err != nil {
		log.Error().Err(err).Int64("chatID", message.Chat.ID).Msg("failed to send reply")
	}
}

func formatResult(r *analysis.Result) string {
	var sb strings.Builder
	sb.WriteString("🔍 ")
	sb.WriteString(r.ObjectName)
	for i, u := range r.Usages {
		fmt.Fprintf(&sb, "\n\n%d. %s\n%s", i+1, u.Title, u.Description)
	}
	return sb.String()
}

var botCommands = []tgbotapi.BotCommand{
	{Command: "start", Description: "사용 방법 보기"},
	{Command: "help", Description: "사용 방법 보기"},
}

// RegisterCommands publishes the command menu.
func RegisterCommands(tg BotAPI) {
	if _, err := tg.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		log.Error().Err(err).Msg("failed to set bot commands")
		return
	}
	log.Info().Int("count", len(botCommands)).Msg("registered bot commands")
}
