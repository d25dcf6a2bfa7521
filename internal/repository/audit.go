package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"service-job-assignment/internal/domain"
)

// AuditRepo writes the audit log.
type AuditRepo struct{ db *pgxpool.Pool }

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(db *pgxpool.Pool) *AuditRepo { return &AuditRepo{db: db} }

// Insert appends one audit entry.
func (r *AuditRepo) Insert(ctx context.Context, e domain.AuditEntry) error {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	_, err = r.db.Exec(ctx, `
        INSERT INTO audit_log (action, entity_type, entity_id, actor_id, details, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, e.Action, e.EntityType, e.EntityID, e.ActorID, raw, e.At)
	if err != nil {
		return fmt.Errorf("insert audit entry %s: %w", e.Action, err)
	}
	return nil
}
