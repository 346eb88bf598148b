package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"sync"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/fediplan/internal/fediverse"
	"github.com/maheshrc27/fediplan/internal/media"
	"github.com/maheshrc27/fediplan/internal/models"
	"github.com/maheshrc27/fediplan/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// SessionTTL is how long an idle compose session is kept before the expiry
// task reaps it.
const SessionTTL = 2 * time.Hour

var ErrSessionNotFound = errors.New("compose session doesn't exist")

type SessionState struct {
	ID          string                  `json:"id"`
	AccountID   int64                   `json:"account_id"`
	Attachments []media.AttachmentState `json:"attachments"`
	MediaIDs    []string                `json:"media_ids"`
	Ready       bool                    `json:"ready"`
}

type ComposeService interface {
	CreateSession(ctx context.Context, userID, accountID int64) (string, time.Duration, error)
	LoadExisting(ctx context.Context, userID int64, sessionID, postID string) error
	UploadMedia(ctx context.Context, userID int64, sessionID string, files []*multipart.FileHeader) error
	RemoveMedia(userID int64, sessionID, fileName string) error
	UpdateDescription(userID int64, sessionID, fileName, description string) error
	State(userID int64, sessionID string) (*SessionState, error)
	WaitForChange(ctx context.Context, userID int64, sessionID string) (*SessionState, error)
	ExpireSession(sessionID string)
	ExpireUserSessions(userID int64)
}

// AssetStorage is the mirror store for uploaded files. Satisfied by
// R2Service.
type AssetStorage interface {
	Upload(ctx context.Context, key string, file []byte, contentType string) error
	PublicURL(key string) string
}

type composeSession struct {
	session   *media.Session
	client    fediverse.Client
	userID    int64
	accountID int64
}

type composeService struct {
	accounts AccountService
	assets   repository.MediaAssetRepository
	storage  AssetStorage

	mu       sync.Mutex
	sessions map[string]*composeSession
}

func NewComposeService(accounts AccountService, assets repository.MediaAssetRepository, storage AssetStorage) ComposeService {
	return &composeService{
		accounts: accounts,
		assets:   assets,
		storage:  storage,
		sessions: make(map[string]*composeSession),
	}
}

func (s *composeService) CreateSession(ctx context.Context, userID, accountID int64) (string, time.Duration, error) {
	client, err := s.accounts.ClientFor(ctx, userID, accountID)
	if err != nil {
		return "", 0, err
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", 0, err
	}

	s.mu.Lock()
	s.sessions[id] = &composeSession{
		session:   media.NewSession(client),
		client:    client,
		userID:    userID,
		accountID: accountID,
	}
	s.mu.Unlock()

	return id, SessionTTL, nil
}

// LoadExisting seeds a session with the attachments of an already scheduled
// post so an edit starts from the published state.
func (s *composeService) LoadExisting(ctx context.Context, userID int64, sessionID, postID string) error {
	cs, err := s.get(userID, sessionID)
	if err != nil {
		return err
	}

	status, err := cs.client.GetScheduledStatus(ctx, postID)
	if err != nil {
		return err
	}

	cs.session.LoadExisting(status.MediaAttachments)
	return nil
}

func (s *composeService) UploadMedia(ctx context.Context, userID int64, sessionID string, files []*multipart.FileHeader) error {
	cs, err := s.get(userID, sessionID)
	if err != nil {
		return err
	}

	batch := make([]media.File, 0, len(files))
	fileTypes := make([]string, 0, len(files))
	for _, file := range files {
		content, fileType, err := readUpload(file)
		if err != nil {
			return err
		}

		batch = append(batch, media.File{Name: file.Filename, Content: content})
		fileTypes = append(fileTypes, fileType)
	}

	// Admit the batch first: a rejected batch must leave no trace, so the
	// mirror copies only happen once the attachments are accepted.
	if err := cs.session.AddFiles(batch); err != nil {
		return err
	}

	for i, file := range batch {
		s.mirrorAsset(userID, file.Name, fileTypes[i], file.Content)
	}
	return nil
}

var allowedUploadTypes = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {},
	"mp4": {}, "mov": {}, "webm": {},
}

func readUpload(file *multipart.FileHeader) ([]byte, string, error) {
	fileContent, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(fileContent)
	if err != nil {
		return nil, "", fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return nil, "", fmt.Errorf("unsupported file type: %w", err)
	}
	if _, ok := allowedUploadTypes[fileType.Extension]; !ok {
		return nil, "", fmt.Errorf("file type %s is not allowed", fileType.Extension)
	}

	return fileBytes, fileType.MIME.Value, nil
}

// mirrorAsset stores the R2 copy and its record. Best effort: the mirror is
// a recovery aid, a failure here must not block the upload to the instance.
func (s *composeService) mirrorAsset(userID int64, fileName, fileType string, content []byte) {
	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return
	}

	go func() {
		ctx := context.Background()
		if err := s.storage.Upload(ctx, key, content, fileType); err != nil {
			slog.Info("failed to mirror upload to R2: " + err.Error())
			return
		}

		asset := models.MediaAsset{
			UserID:   userID,
			FileName: fileName,
			FileType: fileType,
			FileURL:  s.storage.PublicURL(key),
		}
		if _, err := s.assets.Create(ctx, &asset); err != nil {
			slog.Info("failed to record media asset: " + err.Error())
		}
	}()
}

func (s *composeService) RemoveMedia(userID int64, sessionID, fileName string) error {
	cs, err := s.get(userID, sessionID)
	if err != nil {
		return err
	}
	return cs.session.Remove(fileName)
}

func (s *composeService) UpdateDescription(userID int64, sessionID, fileName, description string) error {
	cs, err := s.get(userID, sessionID)
	if err != nil {
		return err
	}
	return cs.session.UpdateDescription(fileName, description)
}

func (s *composeService) State(userID int64, sessionID string) (*SessionState, error) {
	cs, err := s.get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(sessionID, cs), nil
}

// WaitForChange blocks until the next collection mutation or until the
// caller gives up, then returns the current state either way.
func (s *composeService) WaitForChange(ctx context.Context, userID int64, sessionID string) (*SessionState, error) {
	cs, err := s.get(userID, sessionID)
	if err != nil {
		return nil, err
	}

	ch, unsubscribe := cs.session.Subscribe()
	defer unsubscribe()

	select {
	case <-ch:
	case <-ctx.Done():
	case <-time.After(25 * time.Second):
	}

	return s.snapshot(sessionID, cs), nil
}

func (s *composeService) ExpireSession(sessionID string) {
	s.mu.Lock()
	cs, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if ok {
		cs.session.Close()
	}
}

// ExpireUserSessions drops every session belonging to the user, used when
// the account itself goes away.
func (s *composeService) ExpireUserSessions(userID int64) {
	s.mu.Lock()
	var closing []*composeSession
	for id, cs := range s.sessions {
		if cs.userID == userID {
			delete(s.sessions, id)
			closing = append(closing, cs)
		}
	}
	s.mu.Unlock()

	for _, cs := range closing {
		cs.session.Close()
	}
}

func (s *composeService) snapshot(sessionID string, cs *composeSession) *SessionState {
	return &SessionState{
		ID:          sessionID,
		AccountID:   cs.accountID,
		Attachments: cs.session.States(),
		MediaIDs:    cs.session.MediaIDs(),
		Ready:       cs.session.Ready(),
	}
}

func (s *composeService) get(userID int64, sessionID string) (*composeSession, error) {
	s.mu.Lock()
	cs, ok := s.sessions[sessionID]
	s.mu.Unlock()

	if !ok || cs.userID != userID {
		return nil, ErrSessionNotFound
	}
	return cs, nil
}
