package app

import (
	"time"

	"github.com/aurahq/aura-backend/internal/dispatch"
	"github.com/aurahq/aura-backend/internal/platform/envutil"
)

type Config struct {
	Port string

	EvalHour         int
	DispatchInterval time.Duration
	WorkerInterval   time.Duration
	WorkerBatchSize  int

	SeedPath    string
	CacheEnable bool
}

func LoadConfig() Config {
	return Config{
		Port:             envutil.String("PORT", "8080"),
		EvalHour:         envutil.Int("EVAL_HOUR", dispatch.DefaultEvalHour),
		DispatchInterval: time.Duration(envutil.Int("DISPATCH_INTERVAL_SECONDS", 60)) * time.Second,
		WorkerInterval:   time.Duration(envutil.Int("WORKER_INTERVAL_SECONDS", 15)) * time.Second,
		WorkerBatchSize:  envutil.Int("WORKER_BATCH_SIZE", 20),
		SeedPath:         envutil.String("SEED_PATH", "config/defaults.yaml"),
		CacheEnable:      envutil.Bool("LIVE_CACHE_ENABLED", true),
	}
}
