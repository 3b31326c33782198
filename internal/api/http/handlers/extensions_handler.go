package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/discord-modmail/modmail/internal/extensions"
)

// ExtensionManager is the part of the extension manager exposed over HTTP.
type ExtensionManager interface {
	List() []extensions.Status
	Load(ctx context.Context, name string) error
	Unload(ctx context.Context, name string) error
	Reload(ctx context.Context, name string) error
}

// ExtensionsHandler lists and toggles extensions at runtime.
type ExtensionsHandler struct {
	manager ExtensionManager
}

// NewExtensionsHandler constructs handler.
func NewExtensionsHandler(manager ExtensionManager) *ExtensionsHandler {
	return &ExtensionsHandler{manager: manager}
}

// List GET /extensions.
func (h *ExtensionsHandler) List(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.manager.List()})
}

// Load POST /extensions/:name/load.
func (h *ExtensionsHandler) Load(c *fiber.Ctx) error {
	return h.apply(c, h.manager.Load)
}

// Unload POST /extensions/:name/unload.
func (h *ExtensionsHandler) Unload(c *fiber.Ctx) error {
	return h.apply(c, h.manager.Unload)
}

// Reload POST /extensions/:name/reload.
func (h *ExtensionsHandler) Reload(c *fiber.Ctx) error {
	return h.apply(c, h.manager.Reload)
}

func (h *ExtensionsHandler) apply(c *fiber.Ctx, op func(context.Context, string) error) error {
	name := c.Params("name")
	if err := op(c.UserContext(), name); err != nil {
		return err
	}
	for _, st := range h.manager.List() {
		if st.Name == name {
			return c.JSON(fiber.Map{"data": st})
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}
