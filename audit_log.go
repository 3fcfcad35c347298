package cruces

import (
	"context"
	"time"
)

// logAudit writes an audit entry when auditing is enabled. Failures are logged, not returned:
// the audited mutation has already committed.
func (s *Service) logAudit(ctx context.Context, action, targetType string, targetID uint, details string) {
	if !s.auditEnabled {
		return
	}

	actor, _ := ActorFromContext(ctx)
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = RequestIDFromContext(WithRequestID(ctx, ""))
	}
	audit := &AuditLog{
		RequestID:  requestID,
		ActorID:    actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(audit).Error; err != nil {
		s.log.Warnw("audit write failed", "action", action, "target_type", targetType, "target_id", targetID, "error", err)
	}
}

// GetAuditLog retrieves an audit log by ID.
func (s *Service) GetAuditLog(ctx context.Context, id uint) (*AuditLog, error) {
	var audit AuditLog
	if err := s.db.WithContext(ctx).First(&audit, id).Error; err != nil {
		return nil, lookupErr(err, "audit log %d", id)
	}
	return &audit, nil
}

// ListAuditLogs retrieves audit logs, newest first, optionally filtered by actor or target type.
func (s *Service) ListAuditLogs(ctx context.Context, actorID *uint, targetType string) ([]AuditLog, error) {
	var audits []AuditLog
	query := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if actorID != nil {
		query = query.Where("actor_id = ?", *actorID)
	}
	if targetType != "" {
		query = query.Where("target_type = ?", targetType)
	}
	if err := query.Find(&audits).Error; err != nil {
		return nil, err
	}
	return audits, nil
}
