package cruces

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// TipoDetail is a Tipo with its direct children.
type TipoDetail struct {
	Tipo
	Children []Tipo `json:"children"`
}

// TipoUpdate lists the fields UpdateTipo changes. ParentID is applied only
// when Reparent is set, so a nil ParentID can mean "make it a root".
type TipoUpdate struct {
	Name     *string
	Active   *bool
	ParentID *uint
	Reparent bool
}

// withTreeLock runs fn in a transaction holding the tree-wide write lock.
// Structural mutations must go through here: the in-process mutex orders
// writers of this process, the table lock orders writers across processes.
func (s *Service) withTreeLock(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.treeMu.Lock()
	defer s.treeMu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("LOCK TABLE tipos IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
				return fmt.Errorf("lock tipos: %w", err)
			}
		}
		return fn(tx)
	})
}

func getTipo(tx *gorm.DB, id uint) (*Tipo, error) {
	var tipo Tipo
	if err := tx.First(&tipo, id).Error; err != nil {
		return nil, lookupErr(err, "tipo %d", id)
	}
	return &tipo, nil
}

// InsertTipo adds a node. Roots go after every existing interval; a child
// takes (parent.Right, parent.Right+1) after the nodes to its right and its
// ancestors have been widened by two.
func (s *Service) InsertTipo(ctx context.Context, name string, parentID *uint) (*Tipo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, badRequest("tipo name is required")
	}

	var tipo Tipo
	err := s.withTreeLock(ctx, func(tx *gorm.DB) error {
		if parentID == nil {
			var maxRight int
			if err := tx.Model(&Tipo{}).Select("COALESCE(MAX(rgt), 0)").Scan(&maxRight).Error; err != nil {
				return err
			}
			tipo = Tipo{Name: name, Active: true, Left: maxRight + 1, Right: maxRight + 2}
			return tx.Create(&tipo).Error
		}

		parent, err := getTipo(tx, *parentID)
		if err != nil {
			return err
		}
		if err := tx.Model(&Tipo{}).Where("rgt >= ?", parent.Right).
			UpdateColumn("rgt", gorm.Expr("rgt + ?", 2)).Error; err != nil {
			return err
		}
		if err := tx.Model(&Tipo{}).Where("lft > ?", parent.Right).
			UpdateColumn("lft", gorm.Expr("lft + ?", 2)).Error; err != nil {
			return err
		}
		tipo = Tipo{Name: name, ParentID: parentID, Active: true, Left: parent.Right, Right: parent.Right + 1}
		return tx.Create(&tipo).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("tipo inserted", "tipo_id", tipo.ID, "parent_id", parentID, "left", tipo.Left, "right", tipo.Right)
	s.logAudit(ctx, "insert_tipo", "tipo", tipo.ID, "Inserted tipo: "+name)
	return &tipo, nil
}

// MoveTipo re-parents a node (nil makes it a root) and renumbers the forest so
// interval containment keeps matching the parent pointers. The node becomes
// the last child of its new parent. Moving a node under itself or under one of
// its descendants fails with ErrBadRequest.
func (s *Service) MoveTipo(ctx context.Context, id uint, newParentID *uint) (*Tipo, error) {
	if newParentID != nil && *newParentID == id {
		return nil, badRequest("tipo %d cannot be its own parent", id)
	}

	var moved *Tipo
	err := s.withTreeLock(ctx, func(tx *gorm.DB) error {
		node, err := getTipo(tx, id)
		if err != nil {
			return err
		}
		moved, err = moveLocked(tx, node, newParentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("tipo moved", "tipo_id", id, "parent_id", newParentID, "left", moved.Left, "right", moved.Right)
	s.logAudit(ctx, "move_tipo", "tipo", id, fmt.Sprintf("Moved tipo under %v", derefOrRoot(newParentID)))
	return moved, nil
}

// moveLocked re-parents node and renumbers. Called with the tree lock held.
func moveLocked(tx *gorm.DB, node *Tipo, newParentID *uint) (*Tipo, error) {
	if newParentID != nil {
		if *newParentID == node.ID {
			return nil, badRequest("tipo %d cannot be its own parent", node.ID)
		}
		if _, err := getTipo(tx, *newParentID); err != nil {
			return nil, err
		}
		cyclic, err := isDescendant(tx, *newParentID, node.ID)
		if err != nil {
			return nil, err
		}
		if cyclic {
			return nil, badRequest("tipo %d is a descendant of tipo %d", *newParentID, node.ID)
		}
	}
	if sameParent(node.ParentID, newParentID) {
		return node, nil
	}

	if err := tx.Model(&Tipo{}).Where("id = ?", node.ID).UpdateColumn("parent_id", newParentID).Error; err != nil {
		return nil, err
	}
	if err := renumber(tx, node.ID); err != nil {
		return nil, err
	}
	return getTipo(tx, node.ID)
}

// countChildren counts every direct child, active or not.
func countChildren(tx *gorm.DB, id uint) (int64, error) {
	var children int64
	err := tx.Model(&Tipo{}).Where("parent_id = ?", id).Count(&children).Error
	return children, err
}

// renumber recomputes every interval from the parent pointers and writes back
// the ones that changed. Called with the tree lock held.
func renumber(tx *gorm.DB, lastID uint) error {
	var nodes []Tipo
	if err := tx.Order("lft").Order("id").Find(&nodes).Error; err != nil {
		return err
	}

	intervals := nestIntervals(nodes, lastID)
	for _, n := range nodes {
		iv := intervals[n.ID]
		if iv.Left == n.Left && iv.Right == n.Right {
			continue
		}
		if err := tx.Model(&Tipo{}).Where("id = ?", n.ID).
			UpdateColumns(map[string]interface{}{"lft": iv.Left, "rgt": iv.Right}).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpdateTipo renames, re-parents and (de)activates a node in one locked
// transaction. Deactivating a node that still has children is a Conflict,
// as it is for RemoveTipo.
func (s *Service) UpdateTipo(ctx context.Context, id uint, in TipoUpdate) (*Tipo, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, badRequest("tipo name is required")
		}
		updates["name"] = name
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}
	if in.Reparent && in.ParentID != nil && *in.ParentID == id {
		return nil, badRequest("tipo %d cannot be its own parent", id)
	}

	var tipo *Tipo
	err := s.withTreeLock(ctx, func(tx *gorm.DB) error {
		var err error
		if tipo, err = getTipo(tx, id); err != nil {
			return err
		}

		if in.Active != nil && !*in.Active {
			children, err := countChildren(tx, id)
			if err != nil {
				return err
			}
			if children > 0 {
				return conflict("tipo %q has %d children", tipo.Name, children)
			}
		}

		if in.Reparent {
			if tipo, err = moveLocked(tx, tipo, in.ParentID); err != nil {
				return err
			}
		}

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&Tipo{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("update tipo %d: %w", id, err)
		}
		tipo, err = getTipo(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if in.Reparent || len(updates) > 0 {
		s.logAudit(ctx, "update_tipo", "tipo", id, fmt.Sprintf("Updated fields %v (reparent=%t)", keys(updates), in.Reparent))
	}
	return tipo, nil
}

// RemoveTipo deletes a childless node: soft by clearing Active, hard by
// deleting the row. Intervals are not renumbered; the hole a removed leaf
// leaves does not affect containment. A node with children is a Conflict.
func (s *Service) RemoveTipo(ctx context.Context, id uint, hard bool) (*Tipo, error) {
	var tipo *Tipo
	err := s.withTreeLock(ctx, func(tx *gorm.DB) error {
		var err error
		if tipo, err = getTipo(tx, id); err != nil {
			return err
		}

		children, err := countChildren(tx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return conflict("tipo %q has %d children", tipo.Name, children)
		}

		if hard {
			return tx.Delete(&Tipo{}, id).Error
		}
		tipo.Active = false
		return tx.Model(&Tipo{}).Where("id = ?", id).UpdateColumn("active", false).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("tipo removed", "tipo_id", id, "hard", hard)
	s.logAudit(ctx, "remove_tipo", "tipo", id, fmt.Sprintf("Removed tipo %q (hard=%t)", tipo.Name, hard))
	return tipo, nil
}

// GetTipo retrieves a node by ID.
func (s *Service) GetTipo(ctx context.Context, id uint) (*Tipo, error) {
	return getTipo(s.db.WithContext(ctx), id)
}

// GetTipoWithChildren retrieves a node and its direct children.
func (s *Service) GetTipoWithChildren(ctx context.Context, id uint) (*TipoDetail, error) {
	tipo, err := s.GetTipo(ctx, id)
	if err != nil {
		return nil, err
	}

	children := []Tipo{}
	if err := s.db.WithContext(ctx).Where("parent_id = ?", id).Order("lft").Find(&children).Error; err != nil {
		return nil, err
	}
	return &TipoDetail{Tipo: *tipo, Children: children}, nil
}

// GetChildren retrieves the direct children of parentID.
func (s *Service) GetChildren(ctx context.Context, parentID uint) ([]Tipo, error) {
	detail, err := s.GetTipoWithChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return detail.Children, nil
}

// ListTipos returns every node ordered by Left, which is a pre-order walk of the forest.
func (s *Service) ListTipos(ctx context.Context) ([]Tipo, error) {
	tipos := []Tipo{}
	if err := s.db.WithContext(ctx).Order("lft").Order("id").Find(&tipos).Error; err != nil {
		return nil, err
	}
	return tipos, nil
}

// Tree returns the whole forest nested.
func (s *Service) Tree(ctx context.Context) ([]*TreeNode, error) {
	tipos, err := s.ListTipos(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(tipos), nil
}

// IsDescendantOf reports whether ancestorID lies on the parent chain above candidateID.
func (s *Service) IsDescendantOf(ctx context.Context, candidateID, ancestorID uint) (bool, error) {
	db := s.db.WithContext(ctx)
	if _, err := getTipo(db, candidateID); err != nil {
		return false, err
	}
	return isDescendant(db, candidateID, ancestorID)
}

// isDescendant walks parent pointers up from candidateID. The walk stops at a
// root, at a missing parent, or at an id it has already seen.
func isDescendant(tx *gorm.DB, candidateID, ancestorID uint) (bool, error) {
	seen := map[uint]bool{}
	current := candidateID
	for !seen[current] {
		seen[current] = true

		var t Tipo
		err := tx.Select("id", "parent_id").First(&t, current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		if t.ParentID == nil {
			return false, nil
		}
		if *t.ParentID == ancestorID {
			return true, nil
		}
		current = *t.ParentID
	}
	return false, nil
}

func sameParent(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func derefOrRoot(id *uint) string {
	if id == nil {
		return "root"
	}
	return fmt.Sprintf("tipo %d", *id)
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
