package routes

import (
	"github.com/bohemiyan/cruces"
	"github.com/gofiber/fiber/v2"
)

type tipoRequest struct {
	Name     string `json:"name" validate:"required,max=150"`
	ParentID *uint  `json:"parentId"`
}

type tipoUpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=150"`
	Active   *bool   `json:"active"`
	ParentID *uint   `json:"parentId"`
	Reparent bool    `json:"reparent"`
}

type moveRequest struct {
	ParentID *uint `json:"parentId"`
}

func (h *handler) listTipos(c *fiber.Ctx) error {
	tipos, err := h.svc.ListTipos(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(tipos)
}

func (h *handler) tree(c *fiber.Ctx) error {
	tree, err := h.svc.Tree(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(tree)
}

func (h *handler) getTipo(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	tipo, err := h.svc.GetTipoWithChildren(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(tipo)
}

func (h *handler) children(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	tipos, err := h.svc.GetChildren(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(tipos)
}

func (h *handler) descendants(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	tipos, err := h.svc.Descendants(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(tipos)
}

func (h *handler) insertTipo(c *fiber.Ctx) error {
	var req tipoRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	tipo, err := h.svc.InsertTipo(c.UserContext(), req.Name, req.ParentID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(tipo)
}

func (h *handler) updateTipo(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req tipoUpdateRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	tipo, err := h.svc.UpdateTipo(c.UserContext(), id, cruces.TipoUpdate{
		Name:     req.Name,
		Active:   req.Active,
		ParentID: req.ParentID,
		Reparent: req.Reparent,
	})
	if err != nil {
		return err
	}
	return c.JSON(tipo)
}

func (h *handler) moveTipo(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req moveRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	tipo, err := h.svc.MoveTipo(c.UserContext(), id, req.ParentID)
	if err != nil {
		return err
	}
	return c.JSON(tipo)
}

func (h *handler) removeTipo(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	tipo, err := h.svc.RemoveTipo(c.UserContext(), id, c.QueryBool("hard", false))
	if err != nil {
		return err
	}
	return c.JSON(tipo)
}
