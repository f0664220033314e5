// Package bus defines the message bus between the chat transports and the
// orchestrator.
package bus

import (
	"context"
	"io"
	"sync"
	"time"
)

// Kind classifies an inbound event.
type Kind string

const (
	KindMessage       Kind = "message"
	KindEdited        Kind = "edited"
	KindDocument      Kind = "document"
	KindChannelJoined Kind = "channel_joined"
)

// Document is a file attached to an inbound message.
type Document struct {
	FileID   string
	FileName string
	MimeType string
}

// Event is one inbound message or edit.
type Event struct {
	Kind      Kind
	ChatID    int64
	MessageID int
	SenderID  int64
	Private   bool   // one-to-one chat with the bot
	Text      string // text or caption
	Document  *Document
	ChatTitle string
	Source    string // transport name
	At        time.Time
}

// Outbound sends and edits chat messages.
type Outbound interface {
	// Send posts text to a chat and returns the new message id.
	Send(ctx context.Context, chatID int64, text string) (int, error)

	// Edit replaces the text of a message.
	Edit(ctx context.Context, chatID int64, messageID int, text string) error

	// SendDocument uploads a file with a caption.
	SendDocument(ctx context.Context, chatID int64, name string, r io.Reader, caption string) error
}

// Downloader fetches the content of an inbound document.
type Downloader interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// Inbound produces events until ctx is cancelled, then closes the channel.
type Inbound interface {
	Events(ctx context.Context) (<-chan Event, error)
}

// Merge fans several event streams into one. The output is closed once
// every input is closed or ctx is done.
func Merge(ctx context.Context, inputs ...<-chan Event) <-chan Event {
	out := make(chan Event)
	var wg sync.WaitGroup

	for _, in := range inputs {
		wg.Add(1)
		go func(in <-chan Event) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-in:
					if !ok {
						return
					}
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}(in)
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
