package routes

import (
	"github.com/gofiber/fiber/v2"
)

type grupoRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (h *handler) listGroups(c *fiber.Ctx) error {
	grupos, err := h.svc.ListGroups(c.UserContext(), c.QueryBool("activeOnly", false))
	if err != nil {
		return err
	}
	return c.JSON(grupos)
}

func (h *handler) getGroup(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	grupo, err := h.svc.GetGroup(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(grupo)
}

func (h *handler) createGroup(c *fiber.Ctx) error {
	var req grupoRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	grupo, err := h.svc.CreateGroup(c.UserContext(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(grupo)
}

func (h *handler) updateGroup(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req grupoRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	grupo, err := h.svc.UpdateGroup(c.UserContext(), id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(grupo)
}

// deleteGroup deactivates by default; ?hard=true removes an unreferenced grupo.
func (h *handler) deleteGroup(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if c.QueryBool("hard", false) {
		if err := h.svc.DeleteGroup(c.UserContext(), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
	grupo, err := h.svc.DeactivateGroup(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(grupo)
}
