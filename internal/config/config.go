// Package config handles configuration loading and management for Apiary.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/apiarylabs/apiary/pkg/models"
)

// Config holds all configuration for Apiary.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	AWS       AWSConfig       `mapstructure:"aws"`
	Swarm     SwarmConfig     `mapstructure:"swarm"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	TUI       TUIConfig       `mapstructure:"tui"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// AWSConfig holds AWS Bedrock settings.
type AWSConfig struct {
	// UseBedrock routes model calls through AWS Bedrock.
	UseBedrock bool `mapstructure:"use_bedrock"`
	// Region is the AWS region for Bedrock.
	Region string `mapstructure:"region"`
	// Profile is the optional shared-config profile name.
	Profile string `mapstructure:"profile"`
}

// SwarmConfig holds the swarm run settings.
type SwarmConfig struct {
	QueenModel          string        `mapstructure:"queen_model"`
	MaxParallelTeams    int           `mapstructure:"max_parallel_teams"`
	TotalCostLimitUSD   float64       `mapstructure:"total_cost_limit_usd"`
	TotalTimeLimit      time.Duration `mapstructure:"total_time_limit"`
	PerTeamCostLimitUSD float64       `mapstructure:"per_team_cost_limit_usd"`
	PerTeamTimeLimit    time.Duration `mapstructure:"per_team_time_limit"`
}

// MemoryConfig holds collective memory settings.
type MemoryConfig struct {
	// Path is the sqlite database location. Empty uses the XDG default.
	Path string `mapstructure:"path"`
}

// TUIConfig holds TUI display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// ToSwarmConfig converts the loaded swarm section into the run
// configuration the orchestrator consumes.
func (c *Config) ToSwarmConfig() models.SwarmConfig {
	return models.SwarmConfig{
		QueenModel:          c.Swarm.QueenModel,
		MaxParallelTeams:    c.Swarm.MaxParallelTeams,
		TotalCostLimitUSD:   c.Swarm.TotalCostLimitUSD,
		TotalTimeLimit:      c.Swarm.TotalTimeLimit,
		PerTeamCostLimitUSD: c.Swarm.PerTeamCostLimitUSD,
		PerTeamTimeLimit:    c.Swarm.PerTeamTimeLimit,
	}
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, APIARY_MEMORY_PATH)
// 2. Project config (.apiary.yaml in current directory or parent)
// 3. User config (~/.config/apiary/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Project config takes precedence over the user config.
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("memory.path", "APIARY_MEMORY_PATH")
	v.BindEnv("aws.region", "AWS_REGION")
	v.BindEnv("aws.profile", "AWS_PROFILE")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("aws.use_bedrock", cfg.AWS.UseBedrock)
	v.Set("aws.region", cfg.AWS.Region)
	v.Set("aws.profile", cfg.AWS.Profile)
	v.Set("swarm.queen_model", cfg.Swarm.QueenModel)
	v.Set("swarm.max_parallel_teams", cfg.Swarm.MaxParallelTeams)
	v.Set("swarm.total_cost_limit_usd", cfg.Swarm.TotalCostLimitUSD)
	v.Set("swarm.total_time_limit", cfg.Swarm.TotalTimeLimit.String())
	v.Set("swarm.per_team_cost_limit_usd", cfg.Swarm.PerTeamCostLimitUSD)
	v.Set("swarm.per_team_time_limit", cfg.Swarm.PerTeamTimeLimit.String())
	v.Set("memory.path", cfg.Memory.Path)
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values, mirroring models.DefaultSwarmConfig.
func setDefaults(v *viper.Viper) {
	defaults := models.DefaultSwarmConfig()

	v.SetDefault("anthropic.api_key", "")

	v.SetDefault("aws.use_bedrock", false)
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.profile", "")

	v.SetDefault("swarm.queen_model", defaults.QueenModel)
	v.SetDefault("swarm.max_parallel_teams", defaults.MaxParallelTeams)
	v.SetDefault("swarm.total_cost_limit_usd", defaults.TotalCostLimitUSD)
	v.SetDefault("swarm.total_time_limit", defaults.TotalTimeLimit.String())
	v.SetDefault("swarm.per_team_cost_limit_usd", defaults.PerTeamCostLimitUSD)
	v.SetDefault("swarm.per_team_time_limit", defaults.PerTeamTimeLimit.String())

	v.SetDefault("memory.path", "")

	v.SetDefault("tui.refresh_rate", "100ms")
}

// getUserConfigDir returns the XDG config directory for Apiary.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "apiary")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "apiary")
	}
	return filepath.Join(home, ".config", "apiary")
}

// findProjectConfig searches for .apiary.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".apiary.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	defaults := models.DefaultSwarmConfig()
	return &Config{
		Swarm: SwarmConfig{
			QueenModel:          defaults.QueenModel,
			MaxParallelTeams:    defaults.MaxParallelTeams,
			TotalCostLimitUSD:   defaults.TotalCostLimitUSD,
			TotalTimeLimit:      defaults.TotalTimeLimit,
			PerTeamCostLimitUSD: defaults.PerTeamCostLimitUSD,
			PerTeamTimeLimit:    defaults.PerTeamTimeLimit,
		},
		TUI: TUIConfig{
			RefreshRate: 100 * time.Millisecond,
		},
	}
}
