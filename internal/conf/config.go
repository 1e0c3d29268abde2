package conf

import (
	"time"

	"github.com/caarlos0/env/v6"
)

type App struct {
	PrometheusBind string `env:"PROMETHEUS_BIND" envDefault:":2112"`

	// HTTPBind is where the widget host listens.
	HTTPBind string `env:"HTTP_BIND" envDefault:"127.0.0.1:8080"`

	// StoreDSN selects the durable store. "postgres://..." uses postgres,
	// anything else is treated as a sqlite file path. Empty keeps the
	// timestamp in memory only.
	StoreDSN string `env:"STORE_DSN" envDefault:"powerpick.db"`

	// StoreKey is the key of the last generation timestamp.
	StoreKey string `env:"STORE_KEY" envDefault:"lastGenerationTime"`

	DebugDB bool `env:"DEBUG_DB" envDefault:"false"`

	// Debug switches gin to debug mode.
	Debug bool `env:"DEBUG" envDefault:"false"`

	// Cooldown between two successful draws.
	Cooldown time.Duration `env:"COOLDOWN" envDefault:"1h"`

	// RevealStep is the delay between two consecutive revealed labels.
	RevealStep time.Duration `env:"REVEAL_STEP" envDefault:"200ms"`

	// Product names the game, used for the export file name.
	Product string `env:"PRODUCT" envDefault:"powerball"`

	// FrequencyFile is an optional yaml file overriding the built-in tables.
	FrequencyFile string `env:"FREQUENCY_FILE"`

	// DrawSchedule is a cron spec of the real drawings, used for the
	// "next drawing" label.
	DrawSchedule string `env:"DRAW_SCHEDULE" envDefault:"CRON_TZ=America/Chicago 0 22 * * 1,3,6"`

	ExportEnabled     bool    `env:"EXPORT_ENABLED" envDefault:"true"`
	ExportScale       float64 `env:"EXPORT_SCALE" envDefault:"2"`
	ExportTransparent bool    `env:"EXPORT_TRANSPARENT" envDefault:"true"`

	Locale string `env:"LOCALE" envDefault:"en"`

	// Seed for the sampler. Zero means seeded from the clock.
	Seed int64 `env:"SEED" envDefault:"0"`
}

func ParseEnv() (*App, error) {
	cfg := App{}
	err := env.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
