package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "apiary",
	Short: "Swarm meta-orchestrator for model-driven work",
	Long: `Apiary takes one high-level goal, plans a set of dependency-ordered
team objectives with a model call, executes them in waves under budget
and time ceilings, merges the outputs, and records learnings in a
collective memory.

Each team runs under one of four strategies:
  hive_mind        multi-agent consensus (architect, coder, reviewer, ...)
  coordinator      investigate/implement/verify task chain
  native_provider  one focused model call with scope context
  single_shot      one budget-tier model call

Start a run with:
  apiary run "your goal here"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(memoryCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
