package service

import (
	"log/slog"

	"searcharr/internal/adapters/arr"
	"searcharr/internal/adapters/tracker"
	"searcharr/internal/config"
	"searcharr/internal/core/domain/models"
	"searcharr/internal/core/domain/ports"
)

// CreateWantedSource builds the vendor adapter for the configured server type.
// The vendor is decided exactly once here; the core never sees it again.
func CreateWantedSource(cfg *config.Config, log *slog.Logger) (ports.WantedSource, error) {
	client := arr.NewClient(cfg.APIBase, cfg.APIKey, cfg.PageSize, log)

	switch cfg.ServerType {
	case config.ServerRadarr:
		return arr.NewRadarr(client), nil
	case config.ServerSonarr:
		return arr.NewSonarr(client), nil
	case config.ServerLidarr:
		return arr.NewLidarr(client), nil
	default:
		return nil, models.Errorf(models.KindConfig, "unsupported server type %q", cfg.ServerType)
	}
}

// CreateStateStore builds the configured state backend.
func CreateStateStore(cfg *config.Config) (ports.StateStore, error) {
	switch cfg.StateBackend {
	case config.StateBackendFile:
		return tracker.NewFileStateStore(cfg.StatePath), nil
	case config.StateBackendSQLite:
		return tracker.NewBunStateStore(cfg.StatePath)
	default:
		return nil, models.Errorf(models.KindConfig, "unsupported state backend %q", cfg.StateBackend)
	}
}
