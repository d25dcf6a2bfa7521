// Package sinkrec records notifications and audit entries emitted by services.
package sinkrec

import (
	"sync"

	"service-job-assignment/internal/domain"
)

// Notifications records Notify calls.
type Notifications struct {
	mu    sync.Mutex
	items []domain.Notification
}

// Notify records n.
func (r *Notifications) Notify(n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications.
func (r *Notifications) All() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.items...)
}

// Kinds returns the recorded notification kinds in order.
func (r *Notifications) Kinds() []domain.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.NotificationKind, 0, len(r.items))
	for _, n := range r.items {
		out = append(out, n.Kind)
	}
	return out
}

// Audit records Record calls.
type Audit struct {
	mu    sync.Mutex
	items []domain.AuditEntry
}

// Record records e.
func (r *Audit) Record(e domain.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, e)
}

// Actions returns the recorded audit actions in order.
func (r *Audit) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.items))
	for _, e := range r.items {
		out = append(out, e.Action)
	}
	return out
}
