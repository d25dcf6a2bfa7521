package domain

import "time"

// OnboardingStatus tracks background and document checks of a driver.
type OnboardingStatus string

// Onboarding statuses.
const (
	OnboardingPending  OnboardingStatus = "pending"
	OnboardingApproved OnboardingStatus = "approved"
	OnboardingRejected OnboardingStatus = "rejected"
)

// DocumentKind names an uploaded driver document.
type DocumentKind string

// Document kinds.
const (
	DocumentIdentity  DocumentKind = "identity"
	DocumentLicense   DocumentKind = "license"
	DocumentInsurance DocumentKind = "insurance"
	DocumentVehicle   DocumentKind = "vehicle"
)

// DriverDocument is a document with an optional expiry.
type DriverDocument struct {
	Kind      DocumentKind
	ExpiresAt *time.Time
}

// DriverProfile is the read-only eligibility data of a driver.
type DriverProfile struct {
	ID              string
	Onboarding      OnboardingStatus
	LicenseExpiry   *time.Time
	InsuranceExpiry *time.Time
	Documents       []DriverDocument
}

// AvailabilityStatus is the self-reported presence of a driver.
type AvailabilityStatus string

// Availability statuses.
const (
	AvailabilityOnline  AvailabilityStatus = "online"
	AvailabilityOffline AvailabilityStatus = "offline"
	AvailabilityBreak   AvailabilityStatus = "on_break"
)

var availabilityStatuses = [...]AvailabilityStatus{
	AvailabilityOnline, AvailabilityOffline, AvailabilityBreak,
}

// Valid checks if the AvailabilityStatus is known.
func (s AvailabilityStatus) Valid() bool {
	for _, v := range availabilityStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Availability is the last known presence of a driver.
type Availability struct {
	DriverID        string
	Status          AvailabilityStatus
	LocationConsent bool
	UpdatedAt       time.Time
}

// Tracking reports whether location pings may be stored.
func (a Availability) Tracking() bool {
	return a.Status == AvailabilityOnline && a.LocationConsent
}

// Location is a single driver position ping.
type Location struct {
	DriverID string
	Lat      float64
	Lng      float64
}
