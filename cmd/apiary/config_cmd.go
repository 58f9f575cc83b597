package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/apiarylabs/apiary/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Apiary configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/apiary/config.yaml
Project-specific overrides can be placed in .apiary.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s (%s)\n",
		config.MaskAPIKey(cfg.Anthropic.APIKey), config.GetAPIKeySource(cfg))
	fmt.Printf("aws.use_bedrock: %t\n", cfg.AWS.UseBedrock)
	fmt.Printf("aws.region: %s\n", cfg.AWS.Region)
	fmt.Printf("aws.profile: %s\n", cfg.AWS.Profile)
	fmt.Printf("swarm.queen_model: %s\n", cfg.Swarm.QueenModel)
	fmt.Printf("swarm.max_parallel_teams: %d\n", cfg.Swarm.MaxParallelTeams)
	fmt.Printf("swarm.total_cost_limit_usd: %.2f\n", cfg.Swarm.TotalCostLimitUSD)
	fmt.Printf("swarm.total_time_limit: %s\n", cfg.Swarm.TotalTimeLimit)
	fmt.Printf("swarm.per_team_cost_limit_usd: %.2f\n", cfg.Swarm.PerTeamCostLimitUSD)
	fmt.Printf("swarm.per_team_time_limit: %s\n", cfg.Swarm.PerTeamTimeLimit)
	fmt.Printf("memory.path: %s\n", cfg.Memory.Path)
	fmt.Printf("tui.refresh_rate: %s\n", cfg.TUI.RefreshRate)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return config.MaskAPIKey(cfg.Anthropic.APIKey), nil
	case "aws.use_bedrock":
		return strconv.FormatBool(cfg.AWS.UseBedrock), nil
	case "aws.region":
		return cfg.AWS.Region, nil
	case "aws.profile":
		return cfg.AWS.Profile, nil
	case "swarm.queen_model":
		return cfg.Swarm.QueenModel, nil
	case "swarm.max_parallel_teams":
		return strconv.Itoa(cfg.Swarm.MaxParallelTeams), nil
	case "swarm.total_cost_limit_usd":
		return strconv.FormatFloat(cfg.Swarm.TotalCostLimitUSD, 'f', 2, 64), nil
	case "swarm.total_time_limit":
		return cfg.Swarm.TotalTimeLimit.String(), nil
	case "swarm.per_team_cost_limit_usd":
		return strconv.FormatFloat(cfg.Swarm.PerTeamCostLimitUSD, 'f', 2, 64), nil
	case "swarm.per_team_time_limit":
		return cfg.Swarm.PerTeamTimeLimit.String(), nil
	case "memory.path":
		return cfg.Memory.Path, nil
	case "tui.refresh_rate":
		return cfg.TUI.RefreshRate.String(), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "aws.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for aws.use_bedrock: %w", err)
		}
		cfg.AWS.UseBedrock = b
	case "aws.region":
		cfg.AWS.Region = value
	case "aws.profile":
		cfg.AWS.Profile = value
	case "swarm.queen_model":
		cfg.Swarm.QueenModel = value
	case "swarm.max_parallel_teams":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_parallel_teams: %w", err)
		}
		cfg.Swarm.MaxParallelTeams = n
	case "swarm.total_cost_limit_usd":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for total_cost_limit_usd: %w", err)
		}
		cfg.Swarm.TotalCostLimitUSD = f
	case "swarm.total_time_limit":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for total_time_limit: %w", err)
		}
		cfg.Swarm.TotalTimeLimit = d
	case "swarm.per_team_cost_limit_usd":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for per_team_cost_limit_usd: %w", err)
		}
		cfg.Swarm.PerTeamCostLimitUSD = f
	case "swarm.per_team_time_limit":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for per_team_time_limit: %w", err)
		}
		cfg.Swarm.PerTeamTimeLimit = d
	case "memory.path":
		cfg.Memory.Path = value
	case "tui.refresh_rate":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for refresh_rate: %w", err)
		}
		cfg.TUI.RefreshRate = d
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
