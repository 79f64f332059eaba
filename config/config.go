package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
		Redis struct {
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Gemini struct {
		Model       string  `mapstructure:"model"`
		Temperature float32 `mapstructure:"temperature"`
	} `mapstructure:"gemini"`
	ImageSearch struct {
		BaseURL string        `mapstructure:"baseURL"`
		APIKey  string        `mapstructure:"apiKey"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"imageSearch"`
	Search   SearchConfig `mapstructure:"search"`
	Quota    QuotaConfig  `mapstructure:"quota"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
}

// SearchConfig carries the pipeline tunables. The proximity and similarity
// values mirror the thresholds the matching heuristics were calibrated with;
// they are configuration, not derived quantities.
type SearchConfig struct {
	ProximityDegrees   float64       `mapstructure:"proximityDegrees"`
	MatchThreshold     float64       `mapstructure:"matchThreshold"`
	RebindThreshold    float64       `mapstructure:"rebindThreshold"`
	RecommendTimeout   time.Duration `mapstructure:"recommendTimeout"`
	SummaryTimeout     time.Duration `mapstructure:"summaryTimeout"`
	IntroTimeout       time.Duration `mapstructure:"introTimeout"`
	ImageTimeout       time.Duration `mapstructure:"imageTimeout"`
	ImageBackfillLimit int           `mapstructure:"imageBackfillLimit"`
	CatalogFetchLimit  int           `mapstructure:"catalogFetchLimit"`
}

type QuotaConfig struct {
	DailyLimit int `mapstructure:"dailyLimit"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	setDefaults(v)

	// Try to load file-based config, falling back to the embedded copy.
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("search.proximityDegrees", 0.01)
	v.SetDefault("search.matchThreshold", 0.6)
	v.SetDefault("search.rebindThreshold", 0.7)
	v.SetDefault("search.recommendTimeout", 90*time.Second)
	v.SetDefault("search.summaryTimeout", 30*time.Second)
	v.SetDefault("search.introTimeout", 10*time.Second)
	v.SetDefault("search.imageTimeout", 15*time.Second)
	v.SetDefault("search.imageBackfillLimit", 5)
	v.SetDefault("search.catalogFetchLimit", 20)
	v.SetDefault("quota.dailyLimit", 10)
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 0.5)
	v.SetDefault("imageSearch.timeout", 15*time.Second)
}
