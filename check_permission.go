package cruces

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Check reports whether userID may use menuName. It resolves user → grupo → grants and
// answers false when the user, the grupo or the menu is missing, or when the grupo is
// inactive. actionName is accepted but not evaluated: grants are per menu.
// Store failures are returned as errors, never as a silent false.
func (s *Service) Check(ctx context.Context, userID uint, menuName, actionName string) (bool, error) {
	if userID == 0 || menuName == "" {
		return false, nil
	}

	gen, cacheable := s.cacheGeneration(ctx, userID)
	if cacheable {
		if allowed, hit := s.checkCache(ctx, userID, menuName, gen); hit {
			return allowed, nil
		}
	}

	allowed, err := s.checkStore(ctx, userID, menuName)
	if err != nil {
		return false, err
	}

	if cacheable {
		s.setCache(ctx, userID, menuName, gen, allowed)
	}
	return allowed, nil
}

func (s *Service) checkStore(ctx context.Context, userID uint, menuName string) (bool, error) {
	db := s.db.WithContext(ctx)

	var user Usuario
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check: load usuario %d: %w", userID, err)
	}
	if user.GrupoID == nil {
		return false, nil
	}

	var grupo Grupo
	if err := db.First(&grupo, *user.GrupoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check: load grupo %d: %w", *user.GrupoID, err)
	}
	if !grupo.Active {
		return false, nil
	}

	var count int64
	if err := db.Model(&Permiso{}).
		Joins("JOIN menus ON menus.id = permisos.menu_id").
		Where("permisos.grupo_id = ? AND menus.name = ?", grupo.ID, menuName).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check: count grants: %w", err)
	}
	return count > 0, nil
}
