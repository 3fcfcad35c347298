package cruces

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GrantSingle grants grupoID access to menuID. It fails with ErrConflict when
// the pair is already granted. The existence check and the insert share one
// transaction and the unique index settles concurrent callers.
func (s *Service) GrantSingle(ctx context.Context, grupoID, menuID uint) (*Permiso, error) {
	var grant Permiso
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockGroup(tx, grupoID, "SHARE"); err != nil {
			return err
		}
		menu, err := getMenu(tx, menuID)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&Permiso{}).
			Where("grupo_id = ? AND menu_id = ?", grupoID, menuID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflict("grupo %d already has %d grants for menu %s", grupoID, count, menu.Name)
		}

		grant = Permiso{GrupoID: grupoID, MenuID: menuID}
		if err := tx.Create(&grant).Error; err != nil {
			if isDuplicateKey(err) {
				return conflict("grupo %d already has a grant for menu %s", grupoID, menu.Name)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, 0)
	s.log.Infow("grant created", "grupo_id", grupoID, "menu_id", menuID, "grant_id", grant.ID)
	s.logAudit(ctx, "grant_single", "permiso", grant.ID, fmt.Sprintf("Granted menu %d to grupo %d", menuID, grupoID))
	return &grant, nil
}

// RevokeOne deletes a single grant by ID.
func (s *Service) RevokeOne(ctx context.Context, grantID uint) error {
	var grant Permiso
	if err := s.db.WithContext(ctx).First(&grant, grantID).Error; err != nil {
		return lookupErr(err, "permiso %d", grantID)
	}

	res := s.db.WithContext(ctx).Delete(&grant)
	if res.Error != nil {
		return fmt.Errorf("delete permiso %d: %w", grantID, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("permiso %d", grantID)
	}

	s.invalidateCache(ctx, 0)
	s.log.Infow("grant revoked", "grant_id", grantID, "grupo_id", grant.GrupoID, "menu_id", grant.MenuID)
	s.logAudit(ctx, "revoke_one", "permiso", grantID, fmt.Sprintf("Revoked menu %d from grupo %d", grant.MenuID, grant.GrupoID))
	return nil
}

// ListByGroup retrieves the grants of a grupo.
func (s *Service) ListByGroup(ctx context.Context, grupoID uint) ([]Permiso, error) {
	db := s.db.WithContext(ctx)
	if _, err := getGroup(db, grupoID); err != nil {
		return nil, err
	}

	grants := []Permiso{}
	if err := db.Where("grupo_id = ?", grupoID).Order("id").Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

// ListByUser retrieves the grants of the user's grupo. A user outside any
// grupo has no grants, which is not an error.
func (s *Service) ListByUser(ctx context.Context, userID uint) ([]Permiso, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.GrupoID == nil {
		return []Permiso{}, nil
	}

	grants := []Permiso{}
	if err := s.db.WithContext(ctx).Where("grupo_id = ?", *user.GrupoID).Order("id").Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

// grantsForPair returns the grants for (grupoID, menuID) outside any transaction.
func (s *Service) grantsForPair(ctx context.Context, grupoID, menuID uint) ([]Permiso, error) {
	var grants []Permiso
	err := s.db.WithContext(ctx).
		Where("grupo_id = ? AND menu_id = ?", grupoID, menuID).
		Order("id").
		Find(&grants).Error
	return grants, err
}
