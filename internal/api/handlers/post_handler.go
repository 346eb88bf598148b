package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/fediplan/internal/reconcile"
	"github.com/maheshrc27/fediplan/internal/service"
	"github.com/maheshrc27/fediplan/internal/transfer"
)

type PostHandler struct {
	s service.ScheduleService
}

func NewPostHandler(service service.ScheduleService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var submission transfer.PostSubmission
	if err := c.BodyParser(&submission); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	status, err := h.s.Create(c.Context(), userID, &submission)
	if err != nil {
		return scheduleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(status)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list scheduled posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) EditPost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var edit transfer.PostEdit
	if err := c.BodyParser(&edit); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	if edit.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id is required",
		})
	}

	status, err := h.s.Edit(c.Context(), userID, &edit)
	if err != nil {
		return scheduleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(status)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("account_id", 0)
	remoteID := c.Query("id")

	if remoteID == "" || accountID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id and account_id are required",
		})
	}

	err := h.s.Remove(c.Context(), userID, int64(accountID), remoteID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove post",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func scheduleError(c *fiber.Ctx, err error) error {
	var lost *reconcile.PostLostError

	switch {
	// The original post was cancelled but recreating it failed, so the
	// draft is the only copy left. The client must surface it.
	case errors.As(err, &lost):
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"code":  "post_lost_after_cancel",
			"error": lost.Error(),
			"draft": lost.Draft,
		})
	case errors.Is(err, reconcile.ErrReconcileFailed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, reconcile.ErrSpoilerRequired),
		errors.Is(err, reconcile.ErrMediaNotReady),
		errors.Is(err, reconcile.ErrBadVisibility),
		errors.Is(err, service.ErrScheduleTooSoon):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
