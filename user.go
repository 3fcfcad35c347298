package cruces

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// CreateUser registers a user, optionally inside a grupo.
func (s *Service) CreateUser(ctx context.Context, username string, grupoID *uint) (*Usuario, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, badRequest("username is required")
	}

	user := &Usuario{Username: username, GrupoID: grupoID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if grupoID != nil {
			if _, err := lockGroup(tx, *grupoID, "SHARE"); err != nil {
				return err
			}
		}
		if err := tx.Create(user).Error; err != nil {
			if isDuplicateKey(err) {
				return conflict("username %q already exists", username)
			}
			return fmt.Errorf("create usuario: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, user.ID)
	s.logAudit(ctx, "create_usuario", "usuario", user.ID, "Created usuario: "+username)
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, id uint) (*Usuario, error) {
	var user Usuario
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupErr(err, "usuario %d", id)
	}
	return &user, nil
}

// AssignUserGroup moves a user into grupoID; nil removes the user from any grupo.
func (s *Service) AssignUserGroup(ctx context.Context, userID uint, grupoID *uint) (*Usuario, error) {
	var user Usuario
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			return lookupErr(err, "usuario %d", userID)
		}
		if grupoID != nil {
			if _, err := lockGroup(tx, *grupoID, "SHARE"); err != nil {
				return err
			}
		}
		if err := tx.Model(&Usuario{}).Where("id = ?", userID).Update("grupo_id", grupoID).Error; err != nil {
			return fmt.Errorf("assign usuario %d: %w", userID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	user.GrupoID = grupoID

	s.invalidateCache(ctx, userID)
	details := "Removed usuario from grupo"
	if grupoID != nil {
		details = fmt.Sprintf("Assigned usuario to grupo %d", *grupoID)
	}
	s.logAudit(ctx, "assign_usuario_grupo", "usuario", userID, details)
	return &user, nil
}
