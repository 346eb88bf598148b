package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/fediplan/internal/fediverse"
)

// MaxAttachments is the per-post attachment cap enforced by the instances.
const MaxAttachments = 4

// InvalidMediaID marks a slot whose attachment is not ready yet. A submit
// that sees this sentinel must be refused.
const InvalidMediaID = "invalid"

var (
	ErrAttachmentLimit    = errors.New("attachment limit reached")
	ErrUploadInProgress   = errors.New("attachment upload is still in progress")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrNotReady           = errors.New("attachment is not ready")
)

type Status string

const (
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// AttachmentState is the session's view of one selected file. RemoteID is
// set once the upload call returned, so exactly in the processing and ready
// states.
type AttachmentState struct {
	FileName    string              `json:"file_name"`
	RemoteID    string              `json:"remote_id,omitempty"`
	PreviewURL  string              `json:"preview_url,omitempty"`
	Description string              `json:"description,omitempty"`
	Kind        fediverse.MediaType `json:"kind,omitempty"`
	Status      Status              `json:"status"`
}

type File struct {
	Name    string
	Content []byte
}

type Client interface {
	UploadMedia(ctx context.Context, filename string, file io.Reader) (*fediverse.Attachment, error)
	GetMedia(ctx context.Context, id string) (*fediverse.Attachment, error)
	UpdateMedia(ctx context.Context, id string, update fediverse.MediaUpdate) (*fediverse.Attachment, error)
}

type item struct {
	state  AttachmentState
	poller *Poller
}

// Session owns the ordered attachment list of one compose session and keeps
// it consistent while uploads and processing polls complete in any order.
// Items are tracked by insertion slot, not by file name, so re-adding a file
// with the same name never cross-talks with another upload.
type Session struct {
	client       Client
	pollInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	items []*item
	subs  []chan struct{}
}

func NewSession(client Client) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		client:       client,
		pollInterval: DefaultPollInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// AddFiles appends one uploading slot per file and starts the uploads.
// A batch that would exceed the cap is rejected whole, before any remote
// call and without touching the list.
func (s *Session) AddFiles(files []File) error {
	s.mu.Lock()
	if len(s.items)+len(files) > MaxAttachments {
		s.mu.Unlock()
		return ErrAttachmentLimit
	}

	added := make([]*item, 0, len(files))
	for _, f := range files {
		it := &item{state: AttachmentState{FileName: f.Name, Status: StatusUploading}}
		s.items = append(s.items, it)
		added = append(added, it)
	}
	s.mu.Unlock()
	s.notify()

	for i, f := range files {
		go s.upload(added[i], f)
	}
	return nil
}

// LoadExisting seeds the session with already-published attachments when
// editing a scheduled post. They are ready by definition.
func (s *Session) LoadExisting(attachments []fediverse.Attachment) {
	s.mu.Lock()
	s.items = s.items[:0]
	for _, a := range attachments {
		s.items = append(s.items, &item{state: AttachmentState{
			FileName:    a.ID,
			RemoteID:    a.ID,
			PreviewURL:  a.PreviewURL,
			Description: a.Description,
			Kind:        a.Type,
			Status:      StatusReady,
		}})
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Session) upload(it *item, f File) {
	attachment, err := s.client.UploadMedia(s.ctx, f.Name, bytes.NewReader(f.Content))

	s.mu.Lock()
	if !s.has(it) {
		s.mu.Unlock()
		return
	}
	if err != nil {
		slog.Info(err.Error())
		it.state.Status = StatusFailed
		s.mu.Unlock()
		s.notify()
		return
	}

	it.state.RemoteID = attachment.ID
	it.state.PreviewURL = attachment.PreviewURL
	it.state.Kind = attachment.Type

	if attachment.Type.NeedsProcessing() && attachment.URL == "" {
		it.state.Status = StatusProcessing
		p := NewPoller(s.client, attachment.ID, s.pollInterval, func(a *fediverse.Attachment, err error) {
			s.finishProcessing(it, a, err)
		})
		it.poller = p
		p.Start(s.ctx)
	} else {
		it.state.Status = StatusReady
	}
	s.mu.Unlock()
	s.notify()
}

// finishProcessing applies a poller result. A result arriving for a slot
// that has been removed in the meantime is discarded.
func (s *Session) finishProcessing(it *item, attachment *fediverse.Attachment, err error) {
	s.mu.Lock()
	if !s.has(it) {
		s.mu.Unlock()
		return
	}
	if err != nil {
		slog.Info(err.Error())
		it.state.RemoteID = ""
		it.state.Status = StatusFailed
	} else {
		if attachment.PreviewURL != "" {
			it.state.PreviewURL = attachment.PreviewURL
		}
		it.state.Status = StatusReady
	}
	it.poller = nil
	s.mu.Unlock()
	s.notify()
}

// Remove drops the most recently added slot with this file name. An upload
// in flight cannot be removed; a processing slot has its poller cancelled.
func (s *Session) Remove(fileName string) error {
	s.mu.Lock()
	idx := s.lastIndex(fileName)
	if idx < 0 {
		s.mu.Unlock()
		return ErrAttachmentNotFound
	}

	it := s.items[idx]
	if it.state.Status == StatusUploading {
		s.mu.Unlock()
		return ErrUploadInProgress
	}

	poller := it.poller
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.mu.Unlock()

	if poller != nil {
		poller.Cancel()
	}
	s.notify()
	return nil
}

// UpdateDescription writes the description locally right away and pushes it
// to the instance best effort. A failed remote update is only logged.
func (s *Session) UpdateDescription(fileName, description string) error {
	s.mu.Lock()
	idx := s.lastIndex(fileName)
	if idx < 0 {
		s.mu.Unlock()
		return ErrAttachmentNotFound
	}

	it := s.items[idx]
	if it.state.Status != StatusReady {
		s.mu.Unlock()
		return ErrNotReady
	}

	it.state.Description = description
	remoteID := it.state.RemoteID
	s.mu.Unlock()
	s.notify()

	go func() {
		_, err := s.client.UpdateMedia(s.ctx, remoteID, fediverse.MediaUpdate{
			Description: description,
			Focus:       "0,0",
		})
		if err != nil {
			slog.Info("failed to update attachment description: " + err.Error())
		}
	}()
	return nil
}

// MediaIDs returns the submittable id sequence in insertion order, with the
// invalid sentinel in every slot that is not ready.
func (s *Session) MediaIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(s.items))
	for i, it := range s.items {
		if it.state.Status == StatusReady {
			ids[i] = it.state.RemoteID
		} else {
			ids[i] = InvalidMediaID
		}
	}
	return ids
}

// Ready reports whether every slot is ready for submission.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.state.Status != StatusReady {
			return false
		}
	}
	return true
}

func (s *Session) States() []AttachmentState {
	s.mu.Lock()
	defer s.mu.Unlock()

	states := make([]AttachmentState, len(s.items))
	for i, it := range s.items {
		states[i] = it.state
	}
	return states
}

// Subscribe returns a channel that receives a signal after every collection
// mutation, and a cancel func that unregisters it. The channel is never
// closed; signals are coalesced.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		// Rebuild instead of splicing: notify iterates a snapshot of the
		// old slice, which must stay intact.
		subs := make([]chan struct{}, 0, len(s.subs))
		for _, sub := range s.subs {
			if sub != ch {
				subs = append(subs, sub)
			}
		}
		s.subs = subs
		s.mu.Unlock()
	}
}

// Close cancels all in-flight work. Late upload and poll results are
// discarded.
func (s *Session) Close() {
	s.cancel()

	s.mu.Lock()
	pollers := make([]*Poller, 0, len(s.items))
	for _, it := range s.items {
		if it.poller != nil {
			pollers = append(pollers, it.poller)
		}
	}
	s.items = nil
	s.mu.Unlock()

	for _, p := range pollers {
		p.Cancel()
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	subs := s.subs
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Session) has(it *item) bool {
	for _, other := range s.items {
		if other == it {
			return true
		}
	}
	return false
}

func (s *Session) lastIndex(fileName string) int {
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].state.FileName == fileName {
			return i
		}
	}
	return -1
}
