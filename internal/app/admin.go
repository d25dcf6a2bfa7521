package app

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"service-job-assignment/internal/config"
	"service-job-assignment/internal/http/adminserver"
)

type adminOut struct {
	dig.Out

	Server *http.Server `name:"admin_server"`
}

func registerAdmin(container *dig.Container) error {
	return provideAll(container, provideAdminServer)
}

// provideAdminServer returns a nil server when ADMIN_ADDR is empty.
func provideAdminServer(cfg *config.Config, gatherer prometheus.Gatherer) adminOut {
	if cfg.Admin.Addr == "" {
		return adminOut{}
	}
	return adminOut{Server: &http.Server{
		Addr:              cfg.Admin.Addr,
		Handler:           adminserver.Handler(adminserver.Config{User: cfg.Admin.User, Pass: cfg.Admin.Pass}, gatherer),
		ReadHeaderTimeout: 5 * time.Second,
		// profiles stream for up to 30s by default
		WriteTimeout: 60 * time.Second,
	}}
}
