package app

import (
	"time"

	"github.com/evarahealth/clinic-backend/internal/platform/envutil"
)

type Config struct {
	Port            string
	LogMode         string
	PillarCatalog   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func LoadConfig() Config {
	return Config{
		Port:            envutil.String("PORT", "8080"),
		LogMode:         envutil.String("LOG_MODE", "development"),
		PillarCatalog:   envutil.String("PILLAR_CATALOG", "configs/portal_pillars.yaml"),
		AccessTokenTTL:  envutil.DurationSeconds("AUTH_ACCESS_TTL_SECONDS", 15*time.Minute),
		RefreshTokenTTL: envutil.DurationSeconds("AUTH_REFRESH_TTL_SECONDS", 30*24*time.Hour),
	}
}
