package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// BlocklistStore manages blocked users.
type BlocklistStore interface {
	Block(ctx context.Context, userID string) (bool, error)
	Unblock(ctx context.Context, userID string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// BlocklistHandler exposes the blocklist.
type BlocklistHandler struct {
	store BlocklistStore
}

// NewBlocklistHandler constructs handler.
func NewBlocklistHandler(store BlocklistStore) *BlocklistHandler {
	return &BlocklistHandler{store: store}
}

// List GET /blocklist.
func (h *BlocklistHandler) List(c *fiber.Ctx) error {
	ids, err := h.store.List(c.UserContext())
	if err != nil {
		return err
	}
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(fiber.Map{"data": ids})
}

// Block PUT /blocklist/:user_id.
func (h *BlocklistHandler) Block(c *fiber.Ctx) error {
	added, err := h.store.Block(c.UserContext(), c.Params("user_id"))
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if added {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": fiber.Map{"user_id": c.Params("user_id"), "blocked": true}})
}

// Unblock DELETE /blocklist/:user_id.
func (h *BlocklistHandler) Unblock(c *fiber.Ctx) error {
	removed, err := h.store.Unblock(c.UserContext(), c.Params("user_id"))
	if err != nil {
		return err
	}
	if !removed {
		return fiber.NewError(fiber.StatusNotFound, "user is not blocked")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
