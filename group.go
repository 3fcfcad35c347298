package cruces

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// CreateGroup creates a new active grupo.
func (s *Service) CreateGroup(ctx context.Context, name string) (*Grupo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, badRequest("grupo name is required")
	}

	grupo := &Grupo{Name: name, Active: true}
	if err := s.db.WithContext(ctx).Create(grupo).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, conflict("grupo %q already exists", name)
		}
		return nil, fmt.Errorf("create grupo: %w", err)
	}

	s.logAudit(ctx, "create_grupo", "grupo", grupo.ID, "Created grupo: "+name)
	return grupo, nil
}

// UpdateGroup renames a grupo.
func (s *Service) UpdateGroup(ctx context.Context, id uint, name string) (*Grupo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, badRequest("grupo name is required")
	}

	grupo, err := s.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	grupo.Name = name
	if err := s.db.WithContext(ctx).Save(grupo).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, conflict("grupo %q already exists", name)
		}
		return nil, fmt.Errorf("update grupo %d: %w", id, err)
	}

	s.logAudit(ctx, "update_grupo", "grupo", grupo.ID, "Renamed grupo to: "+name)
	return grupo, nil
}

// GetGroup retrieves a grupo by ID.
func (s *Service) GetGroup(ctx context.Context, id uint) (*Grupo, error) {
	var grupo Grupo
	if err := s.db.WithContext(ctx).First(&grupo, id).Error; err != nil {
		return nil, lookupErr(err, "grupo %d", id)
	}
	return &grupo, nil
}

// ListGroups retrieves grupos ordered by name.
func (s *Service) ListGroups(ctx context.Context, activeOnly bool) ([]Grupo, error) {
	var grupos []Grupo
	query := s.db.WithContext(ctx).Order("name")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&grupos).Error; err != nil {
		return nil, err
	}
	return grupos, nil
}

// DeactivateGroup soft-deletes a grupo. Its members resolve to no permissions
// until it is reactivated; grants are kept.
func (s *Service) DeactivateGroup(ctx context.Context, id uint) (*Grupo, error) {
	return s.setGroupActive(ctx, id, false)
}

// ReactivateGroup reverses DeactivateGroup.
func (s *Service) ReactivateGroup(ctx context.Context, id uint) (*Grupo, error) {
	return s.setGroupActive(ctx, id, true)
}

func (s *Service) setGroupActive(ctx context.Context, id uint, active bool) (*Grupo, error) {
	grupo, err := s.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(grupo).Update("active", active).Error; err != nil {
		return nil, fmt.Errorf("update grupo %d: %w", id, err)
	}
	grupo.Active = active

	s.invalidateCache(ctx, 0)
	s.logAudit(ctx, "set_grupo_active", "grupo", id, fmt.Sprintf("active=%t", active))
	return grupo, nil
}

// DeleteGroup hard-deletes a grupo nobody references. The reference counts
// and the delete share one transaction holding the grupo row lock.
func (s *Service) DeleteGroup(ctx context.Context, id uint) error {
	var name string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		grupo, err := lockGroup(tx, id, "UPDATE")
		if err != nil {
			return err
		}
		name = grupo.Name

		var users, grants int64
		if err := tx.Model(&Usuario{}).Where("grupo_id = ?", id).Count(&users).Error; err != nil {
			return err
		}
		if err := tx.Model(&Permiso{}).Where("grupo_id = ?", id).Count(&grants).Error; err != nil {
			return err
		}
		if users > 0 || grants > 0 {
			return conflict("grupo %q is referenced by %d users and %d grants", grupo.Name, users, grants)
		}

		if err := tx.Delete(&Grupo{}, id).Error; err != nil {
			return fmt.Errorf("delete grupo %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, "delete_grupo", "grupo", id, "Deleted grupo: "+name)
	return nil
}
