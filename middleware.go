package cruces

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// LocalsUserID is the fiber Locals key under which the authenticator stores the caller.
const LocalsUserID = "user_id"

// Guard returns fiber middleware that evaluates req before the handler runs.
// The caller identity is read from c.Locals(LocalsUserID).
func (s *Service) Guard(req Requirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserIDFromLocals(c)
		ctx := c.UserContext()

		decision, err := s.Evaluate(ctx, userID, req)
		if decision.Permits() {
			if userID != 0 {
				c.SetUserContext(WithActor(ctx, userID))
			}
			return c.Next()
		}

		s.log.Infow("request denied",
			"decision", decision.String(),
			"user_id", userID,
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
		switch {
		case errors.Is(err, ErrUnauthorized):
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		case errors.Is(err, ErrForbidden):
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		default:
			return err
		}
	}
}

// UserIDFromLocals reads the caller id set by the authenticator, 0 when absent.
func UserIDFromLocals(c *fiber.Ctx) uint {
	switch v := c.Locals(LocalsUserID).(type) {
	case uint:
		return v
	case int:
		if v > 0 {
			return uint(v)
		}
	case uint64:
		return uint(v)
	}
	return 0
}
