// Package assignment implements the job assignment lifecycle: offers, exclusive
// claims, accept/decline and the job progress timeline.
package assignment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/metrics"
	"service-job-assignment/internal/service/expiry"
)

const defaultOperationTimeout = 3 * time.Second

// Deps are shared by every lifecycle component.
type Deps struct {
	Store            Store
	Guard            *expiry.Guard
	Notifier         Notifier
	Audit            AuditSink
	Logger           logx.Logger
	Metrics          *metrics.Lifecycle
	OperationTimeout time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.OperationTimeout <= 0 {
		d.OperationTimeout = defaultOperationTimeout
	}
	if d.Logger == nil {
		d.Logger = logx.Nop()
	}
	return d
}

func (d Deps) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.OperationTimeout)
}

func (d Deps) audit(action, entityID, actor string, at time.Time, details map[string]any) {
	d.Audit.Record(domain.AuditEntry{
		Action:     action,
		EntityType: "assignment",
		EntityID:   entityID,
		ActorID:    actor,
		Details:    details,
		At:         at,
	})
}

// reaped carries an assignment expired inside a committed transaction.
type reaped struct {
	assignment domain.Assignment
	ok         bool
}

func (r *reaped) set(a domain.Assignment) {
	r.assignment = a
	r.ok = true
}

func (d Deps) announce(r reaped, actor string) {
	if r.ok {
		d.Guard.Announce(r.assignment, actor)
	}
}

func expiredErr(a domain.Assignment) error {
	return fmt.Errorf("assignment %s: %w", a.ID, apperr.ErrExpired)
}

func requireID(name, raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", fmt.Errorf("%w: %s is required", apperr.ErrInvalid, name)
	}
	return id, nil
}
