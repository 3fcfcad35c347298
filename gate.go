package cruces

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// MenuAction names one permission: an action on a menu.
type MenuAction struct {
	Menu   string `json:"menu"`
	Action string `json:"action"`
}

func (p MenuAction) String() string {
	return fmt.Sprintf("action %s on menu %s", p.Action, p.Menu)
}

type requirementKind int

const (
	requireAuthenticated requirementKind = iota
	requirePublic
	requireSingle
	requireAny
	requireAll
)

// Requirement is the permission declared by a guarded operation. The zero
// value asks for an authenticated caller and nothing else.
type Requirement struct {
	kind   requirementKind
	checks []MenuAction
}

// Authenticated lets any identified caller through.
func Authenticated() Requirement { return Requirement{kind: requireAuthenticated} }

// Public skips every check, identity included.
func Public() Requirement { return Requirement{kind: requirePublic} }

// Require demands a single permission.
func Require(menu, action string) Requirement {
	return Requirement{kind: requireSingle, checks: []MenuAction{{Menu: menu, Action: action}}}
}

// AnyOf is satisfied by at least one of perms. An empty list is never satisfied.
func AnyOf(perms ...MenuAction) Requirement {
	return Requirement{kind: requireAny, checks: perms}
}

// AllOf is satisfied only when every one of perms is. An empty list always is.
func AllOf(perms ...MenuAction) Requirement {
	return Requirement{kind: requireAll, checks: perms}
}

// Decision is the outcome of evaluating a Requirement for one request.
type Decision int

const (
	Unchecked Decision = iota
	PublicAccess
	Unauthenticated
	Forbidden
	Allowed
)

func (d Decision) String() string {
	switch d {
	case PublicAccess:
		return "public"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case Allowed:
		return "allowed"
	default:
		return "unchecked"
	}
}

// Permits reports whether the wrapped operation may run.
func (d Decision) Permits() bool {
	return d == Allowed || d == PublicAccess
}

// Evaluate decides whether the caller may perform an operation guarded by req.
// userID 0 means no identity was attached. Rejections come back with an
// ErrUnauthorized or ErrForbidden error naming what was missing; a store failure
// leaves the decision Unchecked and returns that error.
func (s *Service) Evaluate(ctx context.Context, userID uint, req Requirement) (Decision, error) {
	if req.kind == requirePublic {
		return PublicAccess, nil
	}
	if userID == 0 {
		return Unauthenticated, fmt.Errorf("%w: no caller identity", ErrUnauthorized)
	}

	switch req.kind {
	case requireAuthenticated:
		return Allowed, nil
	case requireSingle:
		perm := req.checks[0]
		ok, err := s.Check(ctx, userID, perm.Menu, perm.Action)
		if err != nil {
			return Unchecked, err
		}
		if !ok {
			return Forbidden, fmt.Errorf("%w: no permission for %s", ErrForbidden, perm)
		}
		return Allowed, nil
	}

	granted, err := s.checkAll(ctx, userID, req.checks)
	if err != nil {
		return Unchecked, err
	}

	var missing []string
	for i, ok := range granted {
		if !ok {
			missing = append(missing, req.checks[i].String())
		}
	}

	if req.kind == requireAny {
		if len(missing) < len(req.checks) {
			return Allowed, nil
		}
		return Forbidden, fmt.Errorf("%w: no permission for any of: %s", ErrForbidden, strings.Join(missing, "; "))
	}
	if len(missing) == 0 {
		return Allowed, nil
	}
	return Forbidden, fmt.Errorf("%w: no permission for %s", ErrForbidden, strings.Join(missing, "; "))
}

// checkAll runs the checks concurrently; they are independent reads.
func (s *Service) checkAll(ctx context.Context, userID uint, perms []MenuAction) ([]bool, error) {
	granted := make([]bool, len(perms))
	g, gctx := errgroup.WithContext(ctx)
	for i, perm := range perms {
		i, perm := i, perm
		g.Go(func() error {
			ok, err := s.Check(gctx, userID, perm.Menu, perm.Action)
			granted[i] = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return granted, nil
}
