package cruces

import "context"

// Descendants returns the whole subtree under id, in pre-order, with a single
// interval-containment query.
func (s *Service) Descendants(ctx context.Context, id uint) ([]Tipo, error) {
	node, err := s.GetTipo(ctx, id)
	if err != nil {
		return nil, err
	}

	tipos := []Tipo{}
	if err := s.db.WithContext(ctx).
		Where("lft > ? AND rgt < ?", node.Left, node.Right).
		Order("lft").
		Find(&tipos).Error; err != nil {
		return nil, err
	}
	return tipos, nil
}

// Ancestors returns the path from the root down to id's parent.
func (s *Service) Ancestors(ctx context.Context, id uint) ([]Tipo, error) {
	node, err := s.GetTipo(ctx, id)
	if err != nil {
		return nil, err
	}

	tipos := []Tipo{}
	if err := s.db.WithContext(ctx).
		Where("lft < ? AND rgt > ?", node.Left, node.Right).
		Order("lft").
		Find(&tipos).Error; err != nil {
		return nil, err
	}
	return tipos, nil
}
