package routes

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type grantRequest struct {
	GrupoID uint `json:"grupoId" validate:"required"`
	MenuID  uint `json:"menuId" validate:"required"`
}

type bulkGrantRequest struct {
	GrupoID   uint   `json:"grupoId" validate:"required"`
	MenuID    uint   `json:"menuId" validate:"required"`
	AccionIDs []uint `json:"accionIds"`
}

type copyRequest struct {
	SourceGrupoID uint `json:"sourceGrupoId" validate:"required"`
	DestGrupoID   uint `json:"destGrupoId" validate:"required,nefield=SourceGrupoID"`
}

func (h *handler) grantSingle(c *fiber.Ctx) error {
	var req grantRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	grant, err := h.svc.GrantSingle(c.UserContext(), req.GrupoID, req.MenuID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(grant)
}

func (h *handler) grantBulk(c *fiber.Ctx) error {
	var req bulkGrantRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	grants, err := h.svc.GrantBulk(c.UserContext(), req.GrupoID, req.MenuID, req.AccionIDs)
	if err != nil {
		return err
	}
	return c.JSON(grants)
}

func (h *handler) revokeBulk(c *fiber.Ctx) error {
	var req bulkGrantRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	deleted, err := h.svc.RevokeBulk(c.UserContext(), req.GrupoID, req.MenuID, req.AccionIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deletedCount": deleted})
}

func (h *handler) revokeOne(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.RevokeOne(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *handler) copyPermissions(c *fiber.Ctx) error {
	var req copyRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	copied, err := h.svc.CopyGroupPermissions(c.UserContext(), req.SourceGrupoID, req.DestGrupoID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"copied": copied, "mode": "replace"})
}

func (h *handler) listByGroup(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	grants, err := h.svc.ListByGroup(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(grants)
}

func (h *handler) listByUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	grants, err := h.svc.ListByUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(grants)
}

func (h *handler) check(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Query("userId"), 10, 64)
	if err != nil || userID == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid userId")
	}
	menu := c.Query("menu")
	if menu == "" {
		return fiber.NewError(fiber.StatusBadRequest, "menu is required")
	}
	allowed, err := h.svc.Check(c.UserContext(), uint(userID), menu, c.Query("action"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"allowed": allowed})
}
