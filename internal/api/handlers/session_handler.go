package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/maheshrc27/fediplan/internal/media"
	"github.com/maheshrc27/fediplan/internal/queue"
	"github.com/maheshrc27/fediplan/internal/service"
	"github.com/maheshrc27/fediplan/internal/transfer"
)

type SessionHandler struct {
	s           service.ComposeService
	AsynqClient *asynq.Client
}

func NewSessionHandler(service service.ComposeService, asynqClient *asynq.Client) *SessionHandler {
	return &SessionHandler{s: service, AsynqClient: asynqClient}
}

func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var creation transfer.SessionCreation
	if err := c.BodyParser(&creation); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	sessionID, ttl, err := h.s.CreateSession(c.Context(), userID, creation.AccountID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// Existing posts opened for editing seed the session with their
	// current attachments.
	if postID := c.Query("post_id"); postID != "" {
		if err := h.s.LoadExisting(c.Context(), userID, sessionID, postID); err != nil {
			slog.Error(err.Error())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to load existing post",
			})
		}
	}

	err = queue.EnqueueSessionExpiry(h.AsynqClient, queue.ExpireSessionPayload{SessionID: sessionID}, ttl)
	if err != nil {
		slog.Error(err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"session_id": sessionID,
	})
}

func (h *SessionHandler) UploadMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)
	sessionID := c.Params("id")

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No files selected",
		})
	}

	err = h.s.UploadMedia(c.Context(), userID, sessionID, files)
	if err != nil {
		return sessionError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// GetState returns the session's attachment states. With wait=1 the
// request blocks until something changes, so clients can long-poll
// instead of hammering the endpoint while videos transcode.
func (h *SessionHandler) GetState(c *fiber.Ctx) error {
	userID := GetUserID(c)
	sessionID := c.Params("id")

	if c.QueryBool("wait", false) {
		state, err := h.s.WaitForChange(c.Context(), userID, sessionID)
		if err != nil {
			return sessionError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(state)
	}

	state, err := h.s.State(userID, sessionID)
	if err != nil {
		return sessionError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(state)
}

func (h *SessionHandler) RemoveMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)
	sessionID := c.Params("id")
	fileName := c.Query("file_name")

	if fileName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file_name is required",
		})
	}

	err := h.s.RemoveMedia(userID, sessionID, fileName)
	if err != nil {
		return sessionError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *SessionHandler) UpdateDescription(c *fiber.Ctx) error {
	userID := GetUserID(c)
	sessionID := c.Params("id")

	var update transfer.DescriptionUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	err := h.s.UpdateDescription(userID, sessionID, update.FileName, update.Description)
	if err != nil {
		return sessionError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func sessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, media.ErrAttachmentLimit):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, media.ErrUploadInProgress), errors.Is(err, media.ErrNotReady):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, media.ErrAttachmentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
