package main

import "time"

type appConfig struct {
	Env              string        `env:"APP_ENV" envDefault:"development"`
	ServiceName      string        `env:"APP_NAME" envDefault:"flashly-api"`
	MetricsAddr      string        `env:"METRICS_ADDR" envDefault:":9090"`
	QuotaPolicyFile  string        `env:"QUOTA_POLICY_FILE"`
	TierCacheTTL     time.Duration `env:"TIER_CACHE_TTL" envDefault:"5m"`
	TierCacheSize    int           `env:"TIER_CACHE_SIZE" envDefault:"10000"`
	ReadinessTimeout time.Duration `env:"READINESS_TIMEOUT" envDefault:"2s"`
}
