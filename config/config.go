package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ladders/meta"

	"github.com/spf13/viper"
)

type Player struct {
	Name      string `mapstructure:"name"`
	Automated bool   `mapstructure:"automated"`
}

type Effects struct {
	Duration int `mapstructure:"duration"`
}

type Shop struct {
	EveryRounds   int           `mapstructure:"every_rounds"`
	TimePerPlayer time.Duration `mapstructure:"time_per_player"`
	OfferSize     int           `mapstructure:"offer_size"`
}

type Oracle struct {
	Transport string        `mapstructure:"transport"` // none, local, http or websocket
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type Learning struct {
	Backend string `mapstructure:"backend"` // file or sqlite
	Path    string `mapstructure:"path"`
}

type Metrics struct {
	Address string `mapstructure:"address"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Simulation struct {
	Games    int    `mapstructure:"games"`
	MaxTurns int    `mapstructure:"max_turns"`
	Output   string `mapstructure:"output"`
}

type Config struct {
	Players     []Player      `mapstructure:"players"`
	BoardFile   string        `mapstructure:"board_file"`
	Effects     Effects       `mapstructure:"effects"`
	Shop        Shop          `mapstructure:"shop"`
	SettleDelay time.Duration `mapstructure:"settle_delay"`
	Seed        uint64        `mapstructure:"seed"`
	Oracle      Oracle        `mapstructure:"oracle"`
	Learning    Learning      `mapstructure:"learning"`
	Metrics     Metrics       `mapstructure:"metrics"`
	Log         Log           `mapstructure:"log"`
	Simulation  Simulation    `mapstructure:"simulation"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("players", []map[string]any{
		{"name": "Bot 1", "automated": true},
		{"name": "Bot 2", "automated": true},
		{"name": "Bot 3", "automated": true},
		{"name": "Bot 4", "automated": true},
	})
	v.SetDefault("board_file", "")
	v.SetDefault("effects.duration", meta.EFFECT_DURATION)
	v.SetDefault("shop.every_rounds", meta.SHOP_EVERY_ROUNDS)
	v.SetDefault("shop.time_per_player", meta.SHOP_TIME_PER_PLAYER)
	v.SetDefault("shop.offer_size", meta.SHOP_OFFER_SIZE)
	v.SetDefault("settle_delay", meta.SETTLE_DELAY)
	v.SetDefault("seed", 0)
	v.SetDefault("oracle.transport", "none")
	v.SetDefault("oracle.url", "")
	v.SetDefault("oracle.timeout", meta.ORACLE_TIMEOUT)
	v.SetDefault("learning.backend", "file")
	v.SetDefault("learning.path", "data/learning.json")
	v.SetDefault("metrics.address", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("simulation.games", 10)
	v.SetDefault("simulation.max_turns", meta.MAX_TURNS)
	v.SetDefault("simulation.output", "experiments")
}

// Load reads the optional YAML file at path, then applies LADDERS_*
// environment overrides (LADDERS_ORACLE_TIMEOUT=2s and so on).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LADDERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every configuration error at once.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Players) != meta.PLAYERS {
		errs = append(errs, fmt.Errorf("players: need exactly %d, got %d", meta.PLAYERS, len(c.Players)))
	}
	names := map[string]bool{}
	for i, p := range c.Players {
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, fmt.Errorf("players[%d]: name is required", i))
		}
		if names[p.Name] {
			errs = append(errs, fmt.Errorf("players[%d]: duplicate name %q", i, p.Name))
		}
		names[p.Name] = true
	}
	if c.Effects.Duration <= 0 {
		errs = append(errs, errors.New("effects.duration must be positive"))
	}
	if c.Shop.EveryRounds < 0 {
		errs = append(errs, errors.New("shop.every_rounds must not be negative"))
	}
	if c.Shop.OfferSize <= 0 {
		errs = append(errs, errors.New("shop.offer_size must be positive"))
	}
	if c.Shop.TimePerPlayer <= 0 {
		errs = append(errs, errors.New("shop.time_per_player must be positive"))
	}
	if c.SettleDelay < 0 {
		errs = append(errs, errors.New("settle_delay must not be negative"))
	}
	switch c.Oracle.Transport {
	case "none", "local":
	case "http", "websocket":
		if c.Oracle.URL == "" {
			errs = append(errs, fmt.Errorf("oracle.url is required for the %s transport", c.Oracle.Transport))
		}
	default:
		errs = append(errs, fmt.Errorf("oracle.transport: unknown value %q", c.Oracle.Transport))
	}
	if c.Oracle.Timeout <= 0 {
		errs = append(errs, errors.New("oracle.timeout must be positive"))
	}
	switch c.Learning.Backend {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("learning.backend: unknown value %q", c.Learning.Backend))
	}
	if c.Learning.Backend == "sqlite" && c.Learning.Path == "" {
		errs = append(errs, errors.New("learning.path is required for the sqlite backend"))
	}
	if c.Simulation.Games < 0 || c.Simulation.MaxTurns < 0 {
		errs = append(errs, errors.New("simulation.games and simulation.max_turns must not be negative"))
	}
	return errors.Join(errs...)
}
