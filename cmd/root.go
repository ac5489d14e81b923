package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/candidate-matcher/internal/ai"
	"github.com/spigell/candidate-matcher/internal/filtering"
	"github.com/spigell/candidate-matcher/internal/geo"
)

const (
	app = "candidate-matcher"
)

type Config struct {
	JobsFile string          `mapstructure:"jobs-file"`
	AI       *AIConfig       `mapstructure:"ai"`
	Geo      *GeoConfig      `mapstructure:"geo"`
	Matching *MatchingConfig `mapstructure:"matching"`
}

type AIConfig struct {
	Provider    string        `mapstructure:"provider"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max-tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Gemini      *GeminiConfig `mapstructure:"gemini"`
	OpenAI      *OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type OpenAIConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	BaseURL    string `mapstructure:"base-url"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type GeoConfig struct {
	Provider  string           `mapstructure:"provider"`
	OpenCage  *OpenCageConfig  `mapstructure:"opencage"`
	Nominatim *NominatimConfig `mapstructure:"nominatim"`
	Cache     *CacheConfig     `mapstructure:"cache"`
}

type OpenCageConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	URL        string `mapstructure:"url"`
}

type NominatimConfig struct {
	UserAgent string        `mapstructure:"user-agent"`
	URL       string        `mapstructure:"url"`
	Delay     time.Duration `mapstructure:"delay"`
}

type CacheConfig struct {
	MaxEntries int           `mapstructure:"max-entries"`
	TTL        time.Duration `mapstructure:"ttl"`
	RedisURL   string        `mapstructure:"redis-url"`
}

type MatchingConfig struct {
	NotificationThreshold int    `mapstructure:"notification-threshold"`
	NotifiedFile          string `mapstructure:"notified-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "candidate-matcher scores a resume against open job requisitions and estimates the commute to each site",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"ai.gemini.api-key-file":          "GEMINI_API_KEY_FILE",
		"ai.openai.api-key-file":          "OPENAI_API_KEY_FILE",
		"geo.opencage.api-key-file":       "OPENCAGE_API_KEY_FILE",
		"geo.cache.redis-url":             "GEOCODE_REDIS_URL",
		"matching.notification-threshold": "NOTIFICATION_THRESHOLD",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is candidate-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("jobs-file", "jobs.yaml")

	viper.SetDefault("ai.provider", ai.ProviderGemini)
	viper.SetDefault("ai.temperature", ai.DefaultTemperature)
	viper.SetDefault("ai.max-tokens", ai.DefaultMaxTokens)
	viper.SetDefault("ai.timeout", ai.DefaultTimeout)
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("ai.gemini.max-log-length", 2000)

	viper.SetDefault("geo.nominatim.delay", time.Second)
	viper.SetDefault("geo.cache.max-entries", geo.DefaultCacheEntries)
	viper.SetDefault("geo.cache.ttl", geo.DefaultCacheTTL)

	viper.SetDefault("matching.notification-threshold", filtering.DefaultNotificationThreshold)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional: defaults and env are enough for a run.
	// An explicit --config that cannot be read is still fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.AI.OpenAI == nil {
		config.AI.OpenAI = &OpenAIConfig{}
	}
	if config.Geo == nil {
		config.Geo = &GeoConfig{}
	}
	if config.Geo.OpenCage == nil {
		config.Geo.OpenCage = &OpenCageConfig{}
	}
	if config.Geo.Nominatim == nil {
		config.Geo.Nominatim = &NominatimConfig{}
	}
	if config.Geo.Cache == nil {
		config.Geo.Cache = &CacheConfig{}
	}
	if config.Matching == nil {
		config.Matching = &MatchingConfig{NotificationThreshold: filtering.DefaultNotificationThreshold}
	}

	return config, nil
}
