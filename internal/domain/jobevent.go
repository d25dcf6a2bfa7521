package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Step is one entry of the fixed job progress vocabulary.
type Step string

// Core steps, in execution order.
const (
	StepNavigateToPickup   Step = "navigate_to_pickup"
	StepArrivedAtPickup    Step = "arrived_at_pickup"
	StepLoadingStarted     Step = "loading_started"
	StepLoadingCompleted   Step = "loading_completed"
	StepEnRouteToDropoff   Step = "en_route_to_dropoff"
	StepArrivedAtDropoff   Step = "arrived_at_dropoff"
	StepUnloadingStarted   Step = "unloading_started"
	StepUnloadingCompleted Step = "unloading_completed"
	StepJobCompleted       Step = "job_completed"
)

// Ancillary steps, recordable at any point of an accepted job.
const (
	StepCustomerSignature     Step = "customer_signature"
	StepDamageNotes           Step = "damage_notes"
	StepItemCountVerification Step = "item_count_verification"
)

// Steps lists the vocabulary: core steps in order, then ancillary ones.
var Steps = [...]Step{
	StepNavigateToPickup,
	StepArrivedAtPickup,
	StepLoadingStarted,
	StepLoadingCompleted,
	StepEnRouteToDropoff,
	StepArrivedAtDropoff,
	StepUnloadingStarted,
	StepUnloadingCompleted,
	StepJobCompleted,
	StepCustomerSignature,
	StepDamageNotes,
	StepItemCountVerification,
}

// Ordinal returns the position of s in Steps, or -1.
func (s Step) Ordinal() int {
	for i, v := range Steps {
		if s == v {
			return i
		}
	}
	return -1
}

// Valid checks if s belongs to the vocabulary.
func (s Step) Valid() bool {
	return s.Ordinal() >= 0
}

// Ancillary reports whether s is outside the core sequence.
func (s Step) Ancillary() bool {
	return s.Ordinal() > StepJobCompleted.Ordinal()
}

// Final reports whether recording s completes the assignment.
func (s Step) Final() bool {
	return s == StepJobCompleted
}

// ParseStep converts raw input into a Step.
func ParseStep(raw string) (Step, error) {
	s := Step(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown step %q", raw)
	}
	return s, nil
}

// JobEvent is an immutable entry of an assignment timeline.
type JobEvent struct {
	ID           string
	AssignmentID string
	Step         Step
	Payload      json.RawMessage
	MediaURLs    []string
	Notes        string
	CreatedBy    string
	CreatedAt    time.Time
}
