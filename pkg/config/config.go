package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/emilwagman/Ambient-AI/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	source     dotdir.Source
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	res, err := cfger.ddm.TargetResolution(override)
	if err != nil {
		return nil, err
	}
	cfger.source = res.Source

	path := filepath.Join(res.Dir, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns all supported configuration key names in TOML
// section order.
func ValidConfigKeys() []string {
	ordered := []string{
		"storage.data_dir",
		"telegram.bot_token",
		"telegram.allowed_user_ids",
		"telegram.webhook_url",
		"models.api_key",
		"models.base_url",
		"models.chat",
		"models.synthesis",
		"models.thinking",
		"autonomy.interval_minutes",
		"autonomy.quiet_hours_start",
		"autonomy.quiet_hours_end",
		"autonomy.cooldown_hours",
		"autonomy.max_per_day",
		"session.timeout_minutes",
		"session.synthesis_threshold",
		"server.listen",
		"eventstream.provider",
		"eventstream.brokers",
		"eventstream.topic",
	}

	result := make([]string, 0, len(ordered))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
		}
	}
	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

// IsSecretKey reports whether a key holds a credential that list output
// should mask.
func IsSecretKey(key string) bool {
	return key == "telegram.bot_token" || key == "models.api_key"
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// Source reports how the .ambient/ directory was found.
func (c *Configer) Source() dotdir.Source {
	return c.source
}

// LoadConfig loads config.toml from the target .ambient/ directory.
// A missing file yields NewDefaultConfig(). Fields set in the file override
// the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, md, err := parseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg, md)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from
// NewDefaultConfig(). Numeric fields where zero is meaningful (quiet hours,
// cooldown, daily cap) are only defaulted when the key is absent from the file.
func applyDefaults(cfg *Config, md toml.MetaData) {
	defaults := NewDefaultConfig()

	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = defaults.Storage.DataDir
	}

	if cfg.Models.BaseURL == "" {
		cfg.Models.BaseURL = defaults.Models.BaseURL
	}
	if cfg.Models.Chat == "" {
		cfg.Models.Chat = defaults.Models.Chat
	}
	if cfg.Models.Synthesis == "" {
		cfg.Models.Synthesis = defaults.Models.Synthesis
	}
	if cfg.Models.Thinking == "" {
		cfg.Models.Thinking = defaults.Models.Thinking
	}

	if cfg.Autonomy.IntervalMinutes == 0 {
		cfg.Autonomy.IntervalMinutes = defaults.Autonomy.IntervalMinutes
	}

	if !md.IsDefined("autonomy", "quiet_hours_start") {
		cfg.Autonomy.QuietHoursStart = defaults.Autonomy.QuietHoursStart
	}
	if !md.IsDefined("autonomy", "quiet_hours_end") {
		cfg.Autonomy.QuietHoursEnd = defaults.Autonomy.QuietHoursEnd
	}
	if !md.IsDefined("autonomy", "cooldown_hours") {
		cfg.Autonomy.CooldownHours = defaults.Autonomy.CooldownHours
	}
	if !md.IsDefined("autonomy", "max_per_day") {
		cfg.Autonomy.MaxPerDay = defaults.Autonomy.MaxPerDay
	}

	if cfg.Session.TimeoutMinutes == 0 {
		cfg.Session.TimeoutMinutes = defaults.Session.TimeoutMinutes
	}
	if cfg.Session.SynthesisThreshold == 0 {
		cfg.Session.SynthesisThreshold = defaults.Session.SynthesisThreshold
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = defaults.Server.Listen
	}

	if cfg.EventStream.Provider == "" {
		cfg.EventStream.Provider = defaults.EventStream.Provider
	}
	if cfg.EventStream.Topic == "" {
		cfg.EventStream.Topic = defaults.EventStream.Topic
	}
}

// SaveConfig persists the configuration to config.toml in the target .ambient/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// Validate checks ranges that would otherwise surface as confusing runtime
// behavior in the scheduler or session tracker.
func (cfg *Config) Validate() error {
	var errs []error

	if cfg.Autonomy.QuietHoursStart < 0 || cfg.Autonomy.QuietHoursStart > 23 {
		errs = append(errs, fmt.Errorf("autonomy.quiet_hours_start %d out of range 0-23", cfg.Autonomy.QuietHoursStart))
	}
	if cfg.Autonomy.QuietHoursEnd < 0 || cfg.Autonomy.QuietHoursEnd > 23 {
		errs = append(errs, fmt.Errorf("autonomy.quiet_hours_end %d out of range 0-23", cfg.Autonomy.QuietHoursEnd))
	}
	if cfg.Autonomy.IntervalMinutes == 0 {
		errs = append(errs, errors.New("autonomy.interval_minutes must be positive"))
	}
	if cfg.Autonomy.CooldownHours < 0 {
		errs = append(errs, errors.New("autonomy.cooldown_hours must not be negative"))
	}
	if cfg.Session.TimeoutMinutes == 0 {
		errs = append(errs, errors.New("session.timeout_minutes must be positive"))
	}
	if cfg.Session.SynthesisThreshold == 0 {
		errs = append(errs, errors.New("session.synthesis_threshold must be positive"))
	}
	if _, err := cfg.Telegram.UserIDs(); err != nil {
		errs = append(errs, fmt.Errorf("telegram.allowed_user_ids: %w", err))
	}
	switch cfg.EventStream.Provider {
	case "", "nop":
	case "kafka":
		if len(cfg.EventStream.BrokerList()) == 0 {
			errs = append(errs, errors.New("eventstream.brokers is required for the kafka provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown eventstream.provider %q (available: nop, kafka)", cfg.EventStream.Provider))
	}

	return errors.Join(errs...)
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg, _, err := parseConfigTOML(data)
	return cfg, err
}

func parseConfigTOML(data []byte) (*Config, toml.MetaData, error) {
	cfg := &Config{}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, md, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, md, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, md, nil
}
