package config

const (
	defaultDataDir = "/data"

	defaultModelsBaseURL  = "https://openrouter.ai/api/v1"
	defaultChatModel      = "anthropic/claude-sonnet-4-5"
	defaultSynthesisModel = "anthropic/claude-haiku-4-5"
	defaultThinkingModel  = "anthropic/claude-haiku-4-5"

	defaultIntervalMinutes = 60
	defaultQuietHoursStart = 23
	defaultQuietHoursEnd   = 8
	defaultCooldownHours   = 2
	defaultMaxPerDay       = 3

	defaultSessionTimeoutMinutes = 30
	defaultSynthesisThreshold    = 10

	defaultListen = ":8080"

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "ambient.events"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			DataDir: defaultDataDir,
		},
		Models: ModelsConfig{
			BaseURL:   defaultModelsBaseURL,
			Chat:      defaultChatModel,
			Synthesis: defaultSynthesisModel,
			Thinking:  defaultThinkingModel,
		},
		Autonomy: AutonomyConfig{
			IntervalMinutes: defaultIntervalMinutes,
			QuietHoursStart: defaultQuietHoursStart,
			QuietHoursEnd:   defaultQuietHoursEnd,
			CooldownHours:   defaultCooldownHours,
			MaxPerDay:       defaultMaxPerDay,
		},
		Session: SessionConfig{
			TimeoutMinutes:     defaultSessionTimeoutMinutes,
			SynthesisThreshold: defaultSynthesisThreshold,
		},
		Server: ServerConfig{
			Listen: defaultListen,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}
