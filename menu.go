package cruces

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureMenu seeds a menu and its actions, creating only what is missing.
func (s *Service) EnsureMenu(ctx context.Context, name string, acciones ...string) (*Menu, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, badRequest("menu name is required")
	}

	var menu Menu
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(Menu{Name: name}).FirstOrCreate(&menu).Error; err != nil {
			return err
		}
		for _, accion := range acciones {
			a := Accion{MenuID: menu.ID, Name: accion}
			if err := tx.Where(a).FirstOrCreate(&a).Error; err != nil {
				return err
			}
		}
		return tx.Preload("Acciones").First(&menu, menu.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("ensure menu %q: %w", name, err)
	}
	return &menu, nil
}

// GetMenuByName looks a menu up by its name.
func (s *Service) GetMenuByName(ctx context.Context, name string) (*Menu, error) {
	var menu Menu
	if err := s.db.WithContext(ctx).Preload("Acciones").Where("name = ?", name).First(&menu).Error; err != nil {
		return nil, lookupErr(err, "menu %q", name)
	}
	return &menu, nil
}

// ListMenus retrieves all menus with their actions.
func (s *Service) ListMenus(ctx context.Context) ([]Menu, error) {
	var menus []Menu
	if err := s.db.WithContext(ctx).Preload("Acciones").Order("name").Find(&menus).Error; err != nil {
		return nil, err
	}
	return menus, nil
}

func getMenu(tx *gorm.DB, id uint) (*Menu, error) {
	var menu Menu
	if err := tx.First(&menu, id).Error; err != nil {
		return nil, lookupErr(err, "menu %d", id)
	}
	return &menu, nil
}

func getGroup(tx *gorm.DB, id uint) (*Grupo, error) {
	var grupo Grupo
	if err := tx.First(&grupo, id).Error; err != nil {
		return nil, lookupErr(err, "grupo %d", id)
	}
	return &grupo, nil
}

// lockGroup loads a grupo and row-locks it until the transaction ends. Writers
// that reference a grupo take "SHARE"; DeleteGroup takes "UPDATE".
func lockGroup(tx *gorm.DB, id uint, strength string) (*Grupo, error) {
	var grupo Grupo
	if err := tx.Clauses(clause.Locking{Strength: strength}).First(&grupo, id).Error; err != nil {
		return nil, lookupErr(err, "grupo %d", id)
	}
	return &grupo, nil
}
