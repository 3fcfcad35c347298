package cruces

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	grupo, user := seedMember(t, svc, "OPERADOR", "ana")
	cruces := seedMenu(t, svc, "cruces")
	seedMenu(t, svc, "tickets")
	_, err := svc.GrantSingle(ctx, grupo.ID, cruces.ID)
	require.NoError(t, err)

	verCruces := MenuAction{Menu: "cruces", Action: "ver"}
	verTickets := MenuAction{Menu: "tickets", Action: "ver"}

	tests := []struct {
		name    string
		userID  uint
		req     Requirement
		want    Decision
		wantErr error
	}{
		{"public without identity", 0, Public(), PublicAccess, nil},
		{"public with identity", user.ID, Public(), PublicAccess, nil},
		{"authenticated without identity", 0, Authenticated(), Unauthenticated, ErrUnauthorized},
		{"zero requirement is authenticated", user.ID, Requirement{}, Allowed, nil},
		{"permission without identity", 0, Require("cruces", "ver"), Unauthenticated, ErrUnauthorized},
		{"single granted", user.ID, Require("cruces", "ver"), Allowed, nil},
		{"single missing", user.ID, Require("tickets", "ver"), Forbidden, ErrForbidden},
		{"any with one granted", user.ID, AnyOf(verTickets, verCruces), Allowed, nil},
		{"any with none granted", user.ID, AnyOf(verTickets, MenuAction{Menu: "tipos", Action: "ver"}), Forbidden, ErrForbidden},
		{"any empty", user.ID, AnyOf(), Forbidden, ErrForbidden},
		{"all granted", user.ID, AllOf(verCruces, MenuAction{Menu: "cruces", Action: "editar"}), Allowed, nil},
		{"all with one missing", user.ID, AllOf(verCruces, verTickets), Forbidden, ErrForbidden},
		{"all empty", user.ID, AllOf(), Allowed, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Evaluate(ctx, tt.userID, tt.req)
			assert.Equal(t, tt.want, got)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.want == Allowed || tt.want == PublicAccess, got.Permits())
		})
	}
}

func TestEvaluateNamesMissingPermissions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	grupo, user := seedMember(t, svc, "OPERADOR", "ana")
	cruces := seedMenu(t, svc, "cruces")
	_, err := svc.GrantSingle(ctx, grupo.ID, cruces.ID)
	require.NoError(t, err)

	_, err = svc.Evaluate(ctx, user.ID, Require("tickets", "crear"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "action crear on menu tickets")

	_, err = svc.Evaluate(ctx, user.ID, AllOf(
		MenuAction{Menu: "cruces", Action: "ver"},
		MenuAction{Menu: "tickets", Action: "ver"},
		MenuAction{Menu: "tipos", Action: "editar"},
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "action ver on menu tickets")
	assert.Contains(t, err.Error(), "action editar on menu tipos")
	assert.NotContains(t, err.Error(), "menu cruces")

	_, err = svc.Evaluate(ctx, user.ID, AnyOf(
		MenuAction{Menu: "tickets", Action: "ver"},
		MenuAction{Menu: "tipos", Action: "ver"},
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "any of")
	assert.Contains(t, err.Error(), "action ver on menu tipos")
}

func TestEvaluateStoreFailure(t *testing.T) {
	svc := newTestService(t)
	_, user := seedMember(t, svc, "OPERADOR", "ana")

	sqlDB, err := svc.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	got, err := svc.Evaluate(context.Background(), user.ID, Require("cruces", "ver"))
	assert.Equal(t, Unchecked, got)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.False(t, got.Permits())
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "unchecked", Unchecked.String())
	assert.Equal(t, "public", PublicAccess.String())
	assert.Equal(t, "unauthenticated", Unauthenticated.String())
	assert.Equal(t, "forbidden", Forbidden.String())
	assert.Equal(t, "allowed", Allowed.String())
}

func TestGuard(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	grupo, user := seedMember(t, svc, "OPERADOR", "ana")
	cruces := seedMenu(t, svc, "cruces")
	_, err := svc.GrantSingle(ctx, grupo.ID, cruces.ID)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-User-ID") == "ana" {
			c.Locals(LocalsUserID, user.ID)
		}
		return c.Next()
	})
	app.Get("/public", svc.Guard(Public()), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/cruces", svc.Guard(Require("cruces", "ver")), func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c.UserContext())
		if !ok || actor != user.ID {
			return fiber.ErrInternalServerError
		}
		return c.SendString("ok")
	})
	app.Get("/tickets", svc.Guard(Require("tickets", "ver")), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	tests := []struct {
		name   string
		path   string
		caller string
		status int
	}{
		{"public anonymous", "/public", "", fiber.StatusOK},
		{"guarded anonymous", "/cruces", "", fiber.StatusUnauthorized},
		{"guarded allowed", "/cruces", "ana", fiber.StatusOK},
		{"guarded forbidden", "/tickets", "ana", fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, tt.path, nil)
			if tt.caller != "" {
				req.Header.Set("X-User-ID", tt.caller)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
