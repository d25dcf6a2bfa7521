package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"service-job-assignment/internal/domain"
)

const (
	presenceKeyPrefix  = "driver:presence:"
	locationsKey       = "driver:locations"
	defaultPresenceTTL = 12 * time.Hour
)

// AvailabilityStore keeps driver presence in Redis hashes and positions in a GEO set.
// Presence expires after ttl, so a silent driver falls back to offline.
type AvailabilityStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAvailabilityStore creates a new AvailabilityStore.
func NewAvailabilityStore(rdb *redis.Client, ttl time.Duration) *AvailabilityStore {
	if ttl <= 0 {
		ttl = defaultPresenceTTL
	}
	return &AvailabilityStore{rdb: rdb, ttl: ttl}
}

// NewRedisClient creates and pings a Redis client.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// Availability returns the stored presence of a driver; unknown drivers are offline.
func (s *AvailabilityStore) Availability(ctx context.Context, driverID string) (domain.Availability, error) {
	out := domain.Availability{DriverID: driverID, Status: domain.AvailabilityOffline}

	fields, err := s.rdb.HGetAll(ctx, presenceKeyPrefix+driverID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return out, nil
		}
		return domain.Availability{}, fmt.Errorf("get presence of %q: %w", driverID, err)
	}
	if len(fields) == 0 {
		return out, nil
	}

	if status := domain.AvailabilityStatus(fields["status"]); status.Valid() {
		out.Status = status
	}
	out.LocationConsent = fields["consent"] == "1"
	if ms, err := strconv.ParseInt(fields["updated_at"], 10, 64); err == nil {
		out.UpdatedAt = time.UnixMilli(ms).UTC()
	}
	return out, nil
}

// SetAvailability overwrites the presence of a driver and refreshes its TTL.
func (s *AvailabilityStore) SetAvailability(ctx context.Context, a domain.Availability) error {
	key := presenceKeyPrefix + a.DriverID
	consent := "0"
	if a.LocationConsent {
		consent = "1"
	}

	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			"status", string(a.Status),
			"consent", consent,
			"updated_at", strconv.FormatInt(a.UpdatedAt.UnixMilli(), 10),
		)
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set presence of %q: %w", a.DriverID, err)
	}
	return nil
}

// SaveLocation records the latest position of a driver.
func (s *AvailabilityStore) SaveLocation(ctx context.Context, loc domain.Location) error {
	err := s.rdb.GeoAdd(ctx, locationsKey, &redis.GeoLocation{
		Name:      loc.DriverID,
		Longitude: loc.Lng,
		Latitude:  loc.Lat,
	}).Err()
	if err != nil {
		return fmt.Errorf("save location of %q: %w", loc.DriverID, err)
	}
	return nil
}

// ForgetLocation drops the stored position of a driver.
func (s *AvailabilityStore) ForgetLocation(ctx context.Context, driverID string) error {
	if err := s.rdb.ZRem(ctx, locationsKey, driverID).Err(); err != nil {
		return fmt.Errorf("forget location of %q: %w", driverID, err)
	}
	return nil
}

// Location returns the stored position of a driver, or nil.
func (s *AvailabilityStore) Location(ctx context.Context, driverID string) (*domain.Location, error) {
	pos, err := s.rdb.GeoPos(ctx, locationsKey, driverID).Result()
	if err != nil {
		return nil, fmt.Errorf("get location of %q: %w", driverID, err)
	}
	if len(pos) == 0 || pos[0] == nil {
		return nil, nil
	}
	return &domain.Location{DriverID: driverID, Lat: pos[0].Latitude, Lng: pos[0].Longitude}, nil
}
