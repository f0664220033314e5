package bus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrTransport is returned by a Recorder configured to fail.
var ErrTransport = errors.New("transport unavailable")

// SentMessage is one message recorded by a Recorder.
type SentMessage struct {
	ChatID    int64
	MessageID int
	Text      string
}

// SentDocument is one upload recorded by a Recorder.
type SentDocument struct {
	ChatID  int64
	Name    string
	Caption string
	Data    []byte
}

// Recorder is an in-memory Outbound and Downloader.
type Recorder struct {
	mu        sync.Mutex
	nextID    int
	sent      []SentMessage
	edits     []SentMessage
	documents []SentDocument
	files     map[string][]byte

	FailSend     bool
	FailEdit     bool
	FailDocument bool
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{nextID: 1000, files: map[string][]byte{}}
}

// Send records a message and returns a fresh id.
func (r *Recorder) Send(_ context.Context, chatID int64, text string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailSend {
		return 0, ErrTransport
	}
	r.nextID++
	r.sent = append(r.sent, SentMessage{ChatID: chatID, MessageID: r.nextID, Text: text})
	return r.nextID, nil
}

// Edit records an edit.
func (r *Recorder) Edit(_ context.Context, chatID int64, messageID int, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailEdit {
		return ErrTransport
	}
	r.edits = append(r.edits, SentMessage{ChatID: chatID, MessageID: messageID, Text: text})
	return nil
}

// SendDocument records an upload.
func (r *Recorder) SendDocument(_ context.Context, chatID int64, name string, rd io.Reader, caption string) error {
	data, err := io.ReadAll(rd)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailDocument {
		return ErrTransport
	}
	r.documents = append(r.documents, SentDocument{ChatID: chatID, Name: name, Caption: caption, Data: data})
	return nil
}

// AddFile makes data downloadable under fileID.
func (r *Recorder) AddFile(fileID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[fileID] = data
}

// Download returns the data registered with AddFile.
func (r *Recorder) Download(_ context.Context, fileID string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, ok := r.files[fileID]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", fileID, ErrTransport)
	}
	return data, nil
}

// Sent returns the recorded messages.
func (r *Recorder) Sent() []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMessage(nil), r.sent...)
}

// SentTo returns the recorded messages of one chat.
func (r *Recorder) SentTo(chatID int64) []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []SentMessage
	for _, m := range r.sent {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

// Edits returns the recorded edits.
func (r *Recorder) Edits() []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMessage(nil), r.edits...)
}

// Documents returns the recorded uploads.
func (r *Recorder) Documents() []SentDocument {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentDocument(nil), r.documents...)
}

var (
	_ Outbound   = (*Recorder)(nil)
	_ Downloader = (*Recorder)(nil)
)
