package routes

import (
	"context"
	"errors"
	"strconv"

	"github.com/bohemiyan/cruces"
	"github.com/bohemiyan/cruces/zapLogger"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Menus is the catalog seeded at startup: each menu with the actions its routes declare.
var Menus = map[string][]string{
	"permisos":  {"ver", "crear", "editar", "eliminar"},
	"grupos":    {"ver", "crear", "editar", "eliminar"},
	"tipos":     {"ver", "crear", "editar", "eliminar"},
	"auditoria": {"ver"},
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type handler struct {
	svc      *cruces.Service
	validate *validator.Validate
}

// Setup registers the admin API on app. Identity is expected from an upstream
// authenticator; IdentityFromHeader stands in for it.
func Setup(app *fiber.App, svc *cruces.Service, db Pinger) {
	h := &handler{svc: svc, validate: validator.New()}

	app.Use(RequestID())
	app.Use(IdentityFromHeader())

	app.Get("/healthz", svc.Guard(cruces.Public()), func(c *fiber.Ctx) error {
		if db != nil {
			if err := db.Ping(c.UserContext()); err != nil {
				return fiber.NewError(fiber.StatusServiceUnavailable, "database unreachable")
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	authenticated := svc.Guard(cruces.Authenticated())

	api.Get("/menus", authenticated, h.listMenus)
	api.Get("/auditoria", svc.Guard(cruces.Require("auditoria", "ver")), h.listAudit)

	permisos := api.Group("/permisos")
	permisos.Get("/check", authenticated, h.check)
	permisos.Get("/grupo/:id", authenticated, h.listByGroup)
	permisos.Get("/usuario/:id", authenticated, h.listByUser)
	permisos.Post("/", svc.Guard(cruces.Require("permisos", "crear")), h.grantSingle)
	permisos.Post("/bulk", svc.Guard(cruces.Require("permisos", "crear")), h.grantBulk)
	permisos.Delete("/bulk", svc.Guard(cruces.Require("permisos", "eliminar")), h.revokeBulk)
	permisos.Post("/copy", svc.Guard(cruces.AllOf(
		cruces.MenuAction{Menu: "permisos", Action: "editar"},
		cruces.MenuAction{Menu: "grupos", Action: "editar"},
	)), h.copyPermissions)
	permisos.Delete("/:id", svc.Guard(cruces.Require("permisos", "eliminar")), h.revokeOne)

	grupos := api.Group("/grupos")
	grupos.Get("/", authenticated, h.listGroups)
	grupos.Get("/:id", authenticated, h.getGroup)
	grupos.Post("/", svc.Guard(cruces.Require("grupos", "crear")), h.createGroup)
	grupos.Patch("/:id", svc.Guard(cruces.Require("grupos", "editar")), h.updateGroup)
	grupos.Delete("/:id", svc.Guard(cruces.Require("grupos", "eliminar")), h.deleteGroup)

	tipos := api.Group("/tipos")
	tipos.Get("/", authenticated, h.listTipos)
	tipos.Get("/tree", authenticated, h.tree)
	tipos.Get("/:id", authenticated, h.getTipo)
	tipos.Get("/:id/children", authenticated, h.children)
	tipos.Get("/:id/descendants", authenticated, h.descendants)
	tipos.Post("/", svc.Guard(cruces.Require("tipos", "crear")), h.insertTipo)
	tipos.Patch("/:id/move", svc.Guard(cruces.Require("tipos", "editar")), h.moveTipo)
	tipos.Patch("/:id", svc.Guard(cruces.Require("tipos", "editar")), h.updateTipo)
	tipos.Delete("/:id", svc.Guard(cruces.AnyOf(
		cruces.MenuAction{Menu: "tipos", Action: "eliminar"},
		cruces.MenuAction{Menu: "tipos", Action: "editar"},
	)), h.removeTipo)
}

// RequestID tags every request context with a correlation id, taken from
// X-Request-ID when the client sends one.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := cruces.WithRequestID(c.UserContext(), c.Get("X-Request-ID"))
		c.SetUserContext(ctx)
		c.Set("X-Request-ID", cruces.RequestIDFromContext(ctx))
		return c.Next()
	}
}

// IdentityFromHeader copies a numeric X-User-ID header into the locals the gate reads.
func IdentityFromHeader() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := c.Get("X-User-ID"); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
				c.Locals(cruces.LocalsUserID, uint(id))
			}
		}
		return c.Next()
	}
}

// ErrorHandler maps domain errors onto HTTP status codes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.As(err, &ve), errors.Is(err, cruces.ErrBadRequest):
		code = fiber.StatusBadRequest
	case errors.Is(err, cruces.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, cruces.ErrConflict):
		code = fiber.StatusConflict
	case errors.Is(err, cruces.ErrUnauthorized):
		code = fiber.StatusUnauthorized
	case errors.Is(err, cruces.ErrForbidden):
		code = fiber.StatusForbidden
	}

	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		zapLogger.Log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		msg = "internal server error"
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func (h *handler) bind(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	return h.validate.Struct(out)
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

func (h *handler) listMenus(c *fiber.Ctx) error {
	menus, err := h.svc.ListMenus(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(menus)
}

func (h *handler) listAudit(c *fiber.Ctx) error {
	var actor *uint
	if raw := c.Query("actorId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid actorId")
		}
		v := uint(id)
		actor = &v
	}
	logs, err := h.svc.ListAuditLogs(c.UserContext(), actor, c.Query("targetType"))
	if err != nil {
		return err
	}
	return c.JSON(logs)
}
