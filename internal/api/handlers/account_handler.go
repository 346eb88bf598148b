package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/fediplan/configs"
	"github.com/maheshrc27/fediplan/internal/service"
)

type AccountHandler struct {
	s   service.AccountService
	cfg config.Config
}

func NewAccountHandler(cfg config.Config, service service.AccountService) *AccountHandler {
	return &AccountHandler{s: service, cfg: cfg}
}

// AddAccount starts the connect flow for a fediverse account. The server
// query parameter names the instance, with or without scheme.
func (h *AccountHandler) AddAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	server := c.Query("server")

	if server == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "server is required",
		})
	}

	authURL, err := h.s.AuthURL(c.Context(), userID, server)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Unable to register with the given server",
		})
	}

	return c.Redirect(authURL)
}

func (h *AccountHandler) CallbackHandler(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "code or state is missing",
		})
	}

	if err := h.s.Callback(c.Context(), code, state); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to connect account",
		})
	}

	return c.Redirect(h.cfg.FrontendURL+"/accounts", fiber.StatusTemporaryRedirect)
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accounts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *AccountHandler) DeleteAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.QueryInt("id", 0)

	err := h.s.Delete(c.Context(), userID, int64(accountID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
