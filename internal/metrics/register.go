package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Register registers c with reg. When an identical collector is already
// registered, the existing one is returned instead.
func Register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Register registers the lifecycle collectors with reg.
func (l *Lifecycle) Register(reg prometheus.Registerer) error {
	ops, err := Register(reg, l.operations)
	if err != nil {
		return err
	}
	expired, err := Register(reg, l.expired)
	if err != nil {
		return err
	}
	l.operations, l.expired = ops, expired
	return nil
}

// Register registers the HTTP collectors with reg.
func (h *HTTP) Register(reg prometheus.Registerer) error {
	requests, err := Register(reg, h.Requests)
	if err != nil {
		return err
	}
	duration, err := Register(reg, h.Duration)
	if err != nil {
		return err
	}
	h.Requests, h.Duration = requests, duration
	return nil
}
