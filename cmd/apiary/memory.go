package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/apiarylabs/apiary/internal/config"
	"github.com/apiarylabs/apiary/internal/memory"
)

var (
	memoryRecallCategory string
	memoryRecallTags     []string
	memoryRecallLimit    int
	memoryPruneMin       float64
	memoryDecayFactor    float64
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and maintain the collective memory",
	Long: `Inspect and maintain the collective memory.

The collective memory stores learnings from past swarm runs (success
patterns, failure patterns, model insights) and feeds them back into
planning. Entries carry a relevance score that orders recall results
and can be decayed and pruned over time.

Usage:
  apiary memory stats
  apiary memory recall "query" [--category success_pattern] [--tag swarm]
  apiary memory decay [--factor 0.95]
  apiary memory prune [--min-relevance 0.3]`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show entry counts and relevance statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openMemoryStore()
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Stats()
		if err != nil {
			return fmt.Errorf("reading memory stats: %w", err)
		}

		fmt.Printf("Total entries:  %d\n", stats.TotalEntries)
		fmt.Printf("Avg relevance:  %.3f\n", stats.AvgRelevance)
		if len(stats.ByCategory) > 0 {
			fmt.Println("\nBy category:")
			for category, count := range stats.ByCategory {
				fmt.Printf("  %-18s %d\n", category, count)
			}
		}
		return nil
	},
}

var memoryRecallCmd = &cobra.Command{
	Use:   "recall <query>",
	Short: "Search stored learnings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openMemoryStore()
		if err != nil {
			return err
		}
		defer store.Close()

		query := strings.Join(args, " ")
		category := memory.Category(memoryRecallCategory)

		entries, err := store.Recall(query, category, memoryRecallTags, memoryRecallLimit)
		if err != nil {
			return fmt.Errorf("recalling memories: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No matching memories.")
			return nil
		}

		fmt.Printf("Found %d memori(es):\n\n", len(entries))
		for _, e := range entries {
			printMemoryEntry(e)
		}
		return nil
	},
}

var memoryDecayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Decay all relevance scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		if memoryDecayFactor <= 0 || memoryDecayFactor > 1 {
			return fmt.Errorf("decay factor must be in (0, 1], got %v", memoryDecayFactor)
		}

		store, err := openMemoryStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DecayScores(memoryDecayFactor); err != nil {
			return fmt.Errorf("decaying scores: %w", err)
		}
		fmt.Printf("Decayed all relevance scores by %.2f\n", memoryDecayFactor)
		return nil
	},
}

var memoryPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove low-relevance entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openMemoryStore()
		if err != nil {
			return err
		}
		defer store.Close()

		removed, err := store.Prune(memoryPruneMin)
		if err != nil {
			return fmt.Errorf("pruning memories: %w", err)
		}
		fmt.Printf("Pruned %d entri(es) below relevance %.2f\n", removed, memoryPruneMin)
		return nil
	},
}

func init() {
	memoryRecallCmd.Flags().StringVarP(&memoryRecallCategory, "category", "c", "", "Filter by category")
	memoryRecallCmd.Flags().StringSliceVarP(&memoryRecallTags, "tag", "t", nil, "Filter by tag (repeatable)")
	memoryRecallCmd.Flags().IntVarP(&memoryRecallLimit, "limit", "n", 10, "Maximum entries to return")
	memoryDecayCmd.Flags().Float64Var(&memoryDecayFactor, "factor", 0.95, "Multiplier applied to every relevance score")
	memoryPruneCmd.Flags().Float64Var(&memoryPruneMin, "min-relevance", 0.3, "Entries below this score are removed")

	memoryCmd.AddCommand(memoryStatsCmd)
	memoryCmd.AddCommand(memoryRecallCmd)
	memoryCmd.AddCommand(memoryDecayCmd)
	memoryCmd.AddCommand(memoryPruneCmd)
}

// openMemoryStore opens the collective memory at the configured path.
func openMemoryStore() (*memory.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	path := cfg.Memory.Path
	if path == "" {
		path, err = memory.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolving memory path: %w", err)
		}
	}

	store, err := memory.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening collective memory: %w", err)
	}
	return store, nil
}

// printMemoryEntry prints one recalled entry.
func printMemoryEntry(e memory.Entry) {
	categoryColor := color.New(color.FgCyan)
	switch e.Category {
	case memory.CategorySuccessPattern:
		categoryColor = color.New(color.FgGreen)
	case memory.CategoryFailurePattern:
		categoryColor = color.New(color.FgRed)
	}

	fmt.Printf("[%d] %s (relevance %.2f)\n", e.ID, categoryColor.Sprint(e.Category), e.RelevanceScore)
	fmt.Printf("    %s\n", e.Content)
	if len(e.Tags) > 0 {
		fmt.Printf("    tags: %s\n", strings.Join(e.Tags, ", "))
	}
	if e.SourceRunID != "" {
		fmt.Printf("    run: %s\n", e.SourceRunID)
	}
	if !e.CreatedAt.IsZero() {
		fmt.Printf("    created: %s\n", e.CreatedAt.Format(time.RFC3339))
	}
	fmt.Println()
}
