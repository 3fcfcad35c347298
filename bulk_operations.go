package cruces

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// GrantBulk grants grupoID access to menuID and is idempotent: when the pair is
// already granted the existing grants are returned unchanged. accionIDs are
// accepted for API compatibility; grants are stored per menu only.
func (s *Service) GrantBulk(ctx context.Context, grupoID, menuID uint, accionIDs []uint) ([]Permiso, error) {
	var (
		grants  []Permiso
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockGroup(tx, grupoID, "SHARE"); err != nil {
			return err
		}
		if _, err := getMenu(tx, menuID); err != nil {
			return err
		}

		if err := tx.Where("grupo_id = ? AND menu_id = ?", grupoID, menuID).Order("id").Find(&grants).Error; err != nil {
			return err
		}
		if len(grants) > 0 {
			return nil
		}

		grant := Permiso{GrupoID: grupoID, MenuID: menuID}
		if err := tx.Create(&grant).Error; err != nil {
			return err
		}
		grants = []Permiso{grant}
		created = true
		return nil
	})
	if isDuplicateKey(err) {
		// A concurrent caller inserted the pair first; its row is the answer.
		return s.grantsForPair(ctx, grupoID, menuID)
	}
	if err != nil {
		return nil, err
	}

	if created {
		s.invalidateCache(ctx, 0)
		s.log.Infow("bulk grant created", "grupo_id", grupoID, "menu_id", menuID, "acciones", accionIDs)
		s.logAudit(ctx, "grant_bulk", "permiso", grants[0].ID,
			fmt.Sprintf("Granted menu %d to grupo %d (acciones %v)", menuID, grupoID, accionIDs))
	}
	return grants, nil
}

// RevokeBulk deletes every grant for (grupoID, menuID), whatever accionIDs
// holds, and reports how many rows went away.
func (s *Service) RevokeBulk(ctx context.Context, grupoID, menuID uint, accionIDs []uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("grupo_id = ? AND menu_id = ?", grupoID, menuID).
		Delete(&Permiso{})
	if res.Error != nil {
		return 0, fmt.Errorf("revoke menu %d from grupo %d: %w", menuID, grupoID, res.Error)
	}

	if res.RowsAffected > 0 {
		s.invalidateCache(ctx, 0)
	}
	s.log.Infow("bulk grant revoked", "grupo_id", grupoID, "menu_id", menuID, "acciones", accionIDs, "deleted", res.RowsAffected)
	s.logAudit(ctx, "revoke_bulk", "grupo", grupoID,
		fmt.Sprintf("Revoked menu %d (%d rows, acciones %v)", menuID, res.RowsAffected, accionIDs))
	return res.RowsAffected, nil
}

// CopyGroupPermissions REPLACES the grants of dstID with those of srcID; it
// does not merge. Every existing grant of dstID is deleted first. It fails with
// ErrNotFound, leaving dstID untouched, when srcID has no grants.
func (s *Service) CopyGroupPermissions(ctx context.Context, srcID, dstID uint) (int, error) {
	if srcID == dstID {
		return 0, badRequest("cannot copy grupo %d onto itself", srcID)
	}

	copied := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockGroup(tx, dstID, "SHARE"); err != nil {
			return err
		}

		var source []Permiso
		if err := tx.Where("grupo_id = ?", srcID).Order("id").Find(&source).Error; err != nil {
			return err
		}
		if len(source) == 0 {
			return notFound("grupo %d has no grants to copy", srcID)
		}

		if err := tx.Where("grupo_id = ?", dstID).Delete(&Permiso{}).Error; err != nil {
			return err
		}

		seen := make(map[uint]bool, len(source))
		for _, g := range source {
			if seen[g.MenuID] {
				continue
			}
			seen[g.MenuID] = true
			if err := tx.Create(&Permiso{GrupoID: dstID, MenuID: g.MenuID}).Error; err != nil {
				return err
			}
			copied++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.invalidateCache(ctx, 0)
	s.log.Infow("grupo permissions replaced", "src_grupo_id", srcID, "dst_grupo_id", dstID, "copied", copied)
	s.logAudit(ctx, "copy_permissions", "grupo", dstID, fmt.Sprintf("Replaced grants with %d grants of grupo %d", copied, srcID))
	return copied, nil
}

// CheckRequest is one (user, menu, action) question for CheckBulk.
type CheckRequest struct {
	UserID uint
	Menu   string
	Action string
}

// CheckResult answers a CheckRequest.
type CheckResult struct {
	CheckRequest
	Allowed bool
	Error   error
}

const bulkCheckWorkers = 10

// CheckBulk runs many checks with bounded concurrency. Results keep the order of checks.
func (s *Service) CheckBulk(ctx context.Context, checks []CheckRequest) []CheckResult {
	results := make([]CheckResult, len(checks))

	var g errgroup.Group
	g.SetLimit(bulkCheckWorkers)
	for i, check := range checks {
		i, check := i, check
		g.Go(func() error {
			allowed, err := s.Check(ctx, check.UserID, check.Menu, check.Action)
			results[i] = CheckResult{CheckRequest: check, Allowed: allowed, Error: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// PermissionsForUsers returns the menu names each user may access. Users without a grupo,
// or whose grupo is inactive, map to an empty list.
func (s *Service) PermissionsForUsers(ctx context.Context, userIDs []uint) (map[uint][]string, error) {
	results := make(map[uint][]string, len(userIDs))
	if len(userIDs) == 0 {
		return results, nil
	}
	db := s.db.WithContext(ctx)

	var users []Usuario
	if err := db.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}

	grupoIDs := make([]uint, 0, len(users))
	for _, u := range users {
		results[u.ID] = []string{}
		if u.GrupoID != nil {
			grupoIDs = append(grupoIDs, *u.GrupoID)
		}
	}
	if len(grupoIDs) == 0 {
		return results, nil
	}

	type row struct {
		GrupoID  uint
		MenuName string
	}
	var rows []row
	if err := db.Model(&Permiso{}).
		Select("permisos.grupo_id AS grupo_id, menus.name AS menu_name").
		Joins("JOIN menus ON menus.id = permisos.menu_id").
		Joins("JOIN grupos ON grupos.id = permisos.grupo_id").
		Where("permisos.grupo_id IN ? AND grupos.active = ?", grupoIDs, true).
		Order("menus.name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	byGrupo := make(map[uint][]string)
	for _, r := range rows {
		byGrupo[r.GrupoID] = append(byGrupo[r.GrupoID], r.MenuName)
	}
	for _, u := range users {
		if u.GrupoID != nil {
			if menus, ok := byGrupo[*u.GrupoID]; ok {
				results[u.ID] = menus
			}
		}
	}
	return results, nil
}
