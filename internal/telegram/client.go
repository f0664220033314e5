// Package telegram connects the message bus to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"html"
	"io"
	"regexp"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"

	"baccarat-ledger/internal/bus"
	"baccarat-ledger/internal/observability"
)

// Source names events produced by this transport.
const Source = "telegram"

// DefaultPollTimeout is the long polling timeout in seconds.
const DefaultPollTimeout = 30

var allowedUpdates = []string{
	"message", "edited_message", "channel_post", "edited_channel_post", "my_chat_member",
}

// bold matches the **text** emphasis used by outbound messages.
var bold = regexp.MustCompile(`(?s)\*\*(.+?)\*\*`)

// formatHTML escapes text for HTML parse mode and turns **text** into bold.
func formatHTML(text string) string {
	return bold.ReplaceAllString(html.EscapeString(text), "<b>$1</b>")
}

// Options configures a Client.
type Options struct {
	Token       string
	PollTimeout int
	Logger      *zap.Logger
}

// Client implements bus.Inbound, bus.Outbound and bus.Downloader.
type Client struct {
	bot         *telego.Bot
	pollTimeout int
	logger      *zap.Logger
}

// New creates a Client. The token is validated by the library.
func New(opts Options) (*Client, error) {
	bot, err := telego.NewBot(opts.Token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	c := &Client{bot: bot, pollTimeout: opts.PollTimeout, logger: opts.Logger}
	if c.pollTimeout <= 0 {
		c.pollTimeout = DefaultPollTimeout
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c, nil
}

// Events starts long polling. The channel closes when ctx is done.
func (c *Client) Events(ctx context.Context) (<-chan bus.Event, error) {
	updates, err := c.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        c.pollTimeout,
		AllowedUpdates: allowedUpdates,
	})
	if err != nil {
		return nil, fmt.Errorf("start long polling: %w", err)
	}

	out := make(chan bus.Event)
	go func() {
		defer close(out)
		for u := range updates {
			ev, ok := toEvent(u)
			if !ok {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Send posts text and returns the new message id.
func (c *Client) Send(ctx context.Context, chatID int64, text string) (int, error) {
	msg, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), formatHTML(text)).WithParseMode(telego.ModeHTML))
	if err != nil {
		observability.RecordOutboundError("send")
		return 0, fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return msg.MessageID, nil
}

// Edit replaces the text of a message.
func (c *Client) Edit(ctx context.Context, chatID int64, messageID int, text string) error {
	_, err := c.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
		Text:      formatHTML(text),
		ParseMode: telego.ModeHTML,
	})
	if err != nil {
		observability.RecordOutboundError("edit")
		return fmt.Errorf("edit message %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

// SendDocument uploads r as a file named name.
func (c *Client) SendDocument(ctx context.Context, chatID int64, name string, r io.Reader, caption string) error {
	params := tu.Document(tu.ID(chatID), tu.File(tu.NameReader(r, name))).
		WithCaption(formatHTML(caption)).
		WithParseMode(telego.ModeHTML)
	if _, err := c.bot.SendDocument(ctx, params); err != nil {
		observability.RecordOutboundError("send_document")
		return fmt.Errorf("send document %s to %d: %w", name, chatID, err)
	}
	return nil
}

// Download fetches the content of an uploaded file.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	file, err := c.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", fileID, err)
	}
	data, err := tu.DownloadFile(c.bot.FileDownloadURL(file.FilePath))
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	return data, nil
}

// toEvent maps an update to a bus event. Updates without content are dropped.
func toEvent(u telego.Update) (bus.Event, bool) {
	switch {
	case u.Message != nil:
		return messageEvent(u.Message, bus.KindMessage), true
	case u.ChannelPost != nil:
		return messageEvent(u.ChannelPost, bus.KindMessage), true
	case u.EditedMessage != nil:
		return messageEvent(u.EditedMessage, bus.KindEdited), true
	case u.EditedChannelPost != nil:
		return messageEvent(u.EditedChannelPost, bus.KindEdited), true
	case u.MyChatMember != nil:
		return joinEvent(u.MyChatMember)
	}
	return bus.Event{}, false
}

func messageEvent(m *telego.Message, kind bus.Kind) bus.Event {
	ev := bus.Event{
		Kind:      kind,
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Private:   m.Chat.Type == telego.ChatTypePrivate,
		Text:      m.Text,
		ChatTitle: m.Chat.Title,
		Source:    Source,
		At:        time.Unix(m.Date, 0),
	}
	if m.From != nil {
		ev.SenderID = m.From.ID
	}
	if ev.Text == "" {
		ev.Text = m.Caption
	}
	if m.Document != nil && kind == bus.KindMessage {
		ev.Kind = bus.KindDocument
		ev.Document = &bus.Document{
			FileID:   m.Document.FileID,
			FileName: m.Document.FileName,
			MimeType: m.Document.MimeType,
		}
	}
	return ev
}

// joinEvent reports the bot being made member or administrator of a channel or group.
func joinEvent(m *telego.ChatMemberUpdated) (bus.Event, bool) {
	if m.Chat.Type == telego.ChatTypePrivate {
		return bus.Event{}, false
	}
	switch m.NewChatMember.MemberStatus() {
	case telego.MemberStatusAdministrator, telego.MemberStatusMember:
	default:
		return bus.Event{}, false
	}
	return bus.Event{
		Kind:      bus.KindChannelJoined,
		ChatID:    m.Chat.ID,
		SenderID:  m.From.ID,
		ChatTitle: m.Chat.Title,
		Source:    Source,
		At:        time.Unix(m.Date, 0),
	}, true
}

var (
	_ bus.Inbound    = (*Client)(nil)
	_ bus.Outbound   = (*Client)(nil)
	_ bus.Downloader = (*Client)(nil)
)
