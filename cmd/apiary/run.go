package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/apiarylabs/apiary/internal/ai"
	"github.com/apiarylabs/apiary/internal/config"
	"github.com/apiarylabs/apiary/internal/memory"
	"github.com/apiarylabs/apiary/internal/queen"
	"github.com/apiarylabs/apiary/internal/watch"
	"github.com/apiarylabs/apiary/pkg/models"
)

var (
	runPlanFile      string
	runWatch         bool
	runHeadless      bool
	runOutput        string
	runQueenModel    string
	runMaxParallel   int
	runBudget        float64
	runTimeLimit     time.Duration
	runTeamBudget    float64
	runTeamTimeLimit time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <goal>",
	Short: "Run a goal through the swarm",
	Long: `Run a high-level goal through the swarm orchestrator.

The goal is planned into dependency-ordered team objectives, each
executed under one of four strategies, then the team outputs are
synthesized into a single result. Learnings from the run are stored
in the collective memory and fed back into future planning.

A pre-authored plan skips the planning model call:
  apiary run --plan plan.yaml "goal description"

Plan files are YAML:
  teams:
    - id: team-1
      name: Research
      description: Investigate the existing caching layer
      mode: single_shot
    - id: team-2
      name: Build
      description: Implement the new cache
      mode: coordinator
      dependencies: [team-1]

Watch mode re-runs the goal whenever files under the plan's scope
paths change:
  apiary run --watch "keep the API docs in sync"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSwarm,
}

func init() {
	runCmd.Flags().StringVar(&runPlanFile, "plan", "", "Execute a pre-authored YAML plan instead of planning")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Re-run the goal when scope paths change")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run without the TUI, printing progress to stdout")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "text", "Result format: text, json, or yaml")
	runCmd.Flags().StringVar(&runQueenModel, "model", "", "Override the queen (planning/synthesis) model")
	runCmd.Flags().IntVar(&runMaxParallel, "max-parallel", 0, "Override the per-wave team cap")
	runCmd.Flags().Float64Var(&runBudget, "budget", 0, "Override the total cost ceiling in USD")
	runCmd.Flags().DurationVar(&runTimeLimit, "time-limit", 0, "Override the total time ceiling")
	runCmd.Flags().Float64Var(&runTeamBudget, "team-budget", 0, "Override the per-team cost ceiling in USD")
	runCmd.Flags().DurationVar(&runTeamTimeLimit, "team-time-limit", 0, "Override the per-team time ceiling")
}

func runSwarm(cmd *cobra.Command, args []string) error {
	goal := strings.Join(args, " ")

	switch runOutput {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("invalid output format %q: must be text, json, or yaml", runOutput)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	swarmCfg := applyRunFlags(cmd, cfg.ToSwarmConfig())

	var plan *models.SwarmPlan
	if runPlanFile != "" {
		plan, err = loadPlanFile(runPlanFile)
		if err != nil {
			return err
		}
	}

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}

	store := openMemoryStoreOrWarn(cfg)
	if store != nil {
		defer store.Close()
	}

	q := queen.New(client, swarmCfg)
	if store != nil {
		q = q.WithMemory(store)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nReceived interrupt, shutting down...")
		cancel()
	}()

	// The TUI owns the terminal, so watch mode and structured output
	// run headless.
	headless := runHeadless || runWatch || runOutput != "text"

	runOnce := func() (*models.SwarmResult, error) {
		if headless {
			return runHeadlessMode(ctx, q, goal, plan)
		}
		return runWithTUI(ctx, q, goal, plan)
	}

	result, err := runOnce()
	if err != nil {
		return err
	}
	if err := renderResult(result, runOutput); err != nil {
		return err
	}

	if !runWatch {
		return nil
	}
	return watchLoop(ctx, result, runOnce)
}

// applyRunFlags overlays explicitly-set run flags onto the loaded config.
func applyRunFlags(cmd *cobra.Command, cfg models.SwarmConfig) models.SwarmConfig {
	if cmd.Flags().Changed("model") {
		cfg.QueenModel = runQueenModel
	}
	if cmd.Flags().Changed("max-parallel") {
		cfg.MaxParallelTeams = runMaxParallel
	}
	if cmd.Flags().Changed("budget") {
		cfg.TotalCostLimitUSD = runBudget
	}
	if cmd.Flags().Changed("time-limit") {
		cfg.TotalTimeLimit = runTimeLimit
	}
	if cmd.Flags().Changed("team-budget") {
		cfg.PerTeamCostLimitUSD = runTeamBudget
	}
	if cmd.Flags().Changed("team-time-limit") {
		cfg.PerTeamTimeLimit = runTeamTimeLimit
	}
	return cfg
}

// buildClient constructs the model client from config: Bedrock when
// enabled, the Anthropic API otherwise.
func buildClient(cfg *config.Config) (*ai.Client, error) {
	clientCfg := ai.ClientConfig{
		UseAWSBedrock: cfg.AWS.UseBedrock,
		AWSRegion:     cfg.AWS.Region,
		AWSProfile:    cfg.AWS.Profile,
	}

	if !cfg.AWS.UseBedrock {
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w\n\nSet it with:\n  export ANTHROPIC_API_KEY=your-key-here\nor:\n  apiary config anthropic.api_key your-key-here", err)
		}
		clientCfg.APIKey = key
	}

	client, err := ai.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}
	return client, nil
}

// openMemoryStoreOrWarn opens the collective memory. The store is
// optional; a warning is printed and the run continues without it.
func openMemoryStoreOrWarn(cfg *config.Config) *memory.Store {
	path := cfg.Memory.Path
	if path == "" {
		var err error
		path, err = memory.DefaultDBPath()
		if err != nil {
			fmt.Printf("Warning: collective memory unavailable: %v\n", err)
			return nil
		}
	}

	store, err := memory.Open(path)
	if err != nil {
		fmt.Printf("Warning: collective memory unavailable: %v\n", err)
		return nil
	}
	return store
}

// runHeadlessMode executes the swarm while printing progress lines.
func runHeadlessMode(ctx context.Context, q *queen.Queen, goal string, plan *models.SwarmPlan) (*models.SwarmResult, error) {
	q.WithStatusCallback(func(status models.SwarmStatus, detail string) {
		printStatusLine(status, detail)
	})

	if plan != nil {
		return q.ExecutePlan(ctx, goal, plan)
	}
	return q.Execute(ctx, goal)
}

// printStatusLine prints one progress update with a status-keyed color.
func printStatusLine(status models.SwarmStatus, detail string) {
	var c *color.Color
	switch status {
	case models.SwarmStatusTeamCompleted, models.SwarmStatusComplete:
		c = color.New(color.FgGreen)
	case models.SwarmStatusTeamFailed, models.SwarmStatusFailed:
		c = color.New(color.FgRed)
	case models.SwarmStatusTimedOut, models.SwarmStatusBudgetExceeded, models.SwarmStatusPartialSuccess:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgCyan)
	}
	fmt.Printf("%s %s\n", c.Sprintf("[%s]", status), detail)
}

// planFile is the YAML shape of a pre-authored plan.
type planFile struct {
	Teams []planFileTeam `yaml:"teams"`
}

type planFileTeam struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Dependencies   []string `yaml:"dependencies"`
	Mode           string   `yaml:"mode"`
	ScopePaths     []string `yaml:"scope_paths"`
	Priority       *int     `yaml:"priority"`
	PreferredModel string   `yaml:"preferred_model"`
}

// loadPlanFile reads and validates a pre-authored YAML plan.
func loadPlanFile(path string) (*models.SwarmPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}

	var pf planFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing plan file: %w", err)
	}

	plan := &models.SwarmPlan{}
	for _, t := range pf.Teams {
		priority := 5
		if t.Priority != nil {
			priority = *t.Priority
		}
		plan.Teams = append(plan.Teams, models.TeamObjective{
			ID:                t.ID,
			Name:              t.Name,
			Description:       t.Description,
			Dependencies:      t.Dependencies,
			OrchestrationMode: models.ParseOrchestrationMode(t.Mode),
			ScopePaths:        t.ScopePaths,
			Priority:          priority,
			PreferredModel:    t.PreferredModel,
		})
	}

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan file %s: %w", path, err)
	}
	return plan, nil
}

// watchLoop re-runs the goal whenever the plan's scope paths change.
func watchLoop(ctx context.Context, last *models.SwarmResult, runOnce func() (*models.SwarmResult, error)) error {
	paths := scopePathsFromPlan(&last.Plan)
	if len(paths) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		paths = []string{cwd}
	}

	w, err := watch.New(paths, 0)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	fmt.Printf("\nWatching %d path(s) for changes (ctrl-c to stop)...\n", len(paths))

	for {
		select {
		case <-ctx.Done():
			return nil
		case changed := <-w.Events():
			fmt.Printf("\nChange detected: %s\n", changed)
			result, err := runOnce()
			if err != nil {
				fmt.Printf("Re-run failed: %v\n", err)
				continue
			}
			if err := renderResult(result, runOutput); err != nil {
				return err
			}
		}
	}
}

// scopePathsFromPlan collects the distinct scope paths that exist on disk.
func scopePathsFromPlan(plan *models.SwarmPlan) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, team := range plan.Teams {
		for _, p := range team.ScopePaths {
			if seen[p] {
				continue
			}
			seen[p] = true
			if _, err := os.Stat(p); err == nil {
				paths = append(paths, p)
			}
		}
	}
	return paths
}

// renderResult prints the run result in the requested format.
func renderResult(result *models.SwarmResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Println(string(data))
		return nil
	case "yaml":
		data, err := yaml.Marshal(resultView(result))
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Print(string(data))
		return nil
	default:
		printResultSummary(result)
		return nil
	}
}

// resultYAML is the YAML shape of a run result.
type resultYAML struct {
	RunID             string           `yaml:"run_id"`
	Goal              string           `yaml:"goal"`
	Status            string           `yaml:"status"`
	Teams             []resultTeamYAML `yaml:"teams"`
	SynthesizedOutput string           `yaml:"synthesized_output"`
	TotalCostUSD      float64          `yaml:"total_cost_usd"`
	Duration          string           `yaml:"duration"`
	LearningsRecorded int              `yaml:"learnings_recorded"`
}

type resultTeamYAML struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Status   string   `yaml:"status"`
	CostUSD  float64  `yaml:"cost_usd"`
	Duration string   `yaml:"duration"`
	Insights []string `yaml:"insights,omitempty"`
	Error    string   `yaml:"error,omitempty"`
}

func resultView(result *models.SwarmResult) resultYAML {
	view := resultYAML{
		RunID:             result.RunID,
		Goal:              result.Goal,
		Status:            string(result.Status),
		SynthesizedOutput: result.SynthesizedOutput,
		TotalCostUSD:      result.TotalCost,
		Duration:          result.Duration.Round(time.Millisecond).String(),
		LearningsRecorded: result.LearningsRecorded,
	}
	for _, tr := range result.TeamResults {
		view.Teams = append(view.Teams, resultTeamYAML{
			ID:       tr.TeamID,
			Name:     tr.TeamName,
			Status:   string(tr.Status),
			CostUSD:  tr.Cost,
			Duration: tr.Duration.Round(time.Millisecond).String(),
			Insights: tr.Insights,
			Error:    tr.Error,
		})
	}
	return view
}

// printResultSummary prints the human-readable run summary.
func printResultSummary(result *models.SwarmResult) {
	fmt.Println()
	switch result.Status {
	case models.SwarmStatusComplete:
		color.Green("Swarm complete")
	case models.SwarmStatusPartialSuccess:
		color.Yellow("Swarm partially succeeded")
	case models.SwarmStatusTimedOut:
		color.Yellow("Swarm timed out")
	case models.SwarmStatusBudgetExceeded:
		color.Yellow("Swarm budget exceeded")
	default:
		color.Red("Swarm failed")
	}

	fmt.Printf("  Run:       %s\n", result.RunID)
	fmt.Printf("  Teams:     %d\n", len(result.TeamResults))
	fmt.Printf("  Cost:      $%.4f\n", result.TotalCost)
	fmt.Printf("  Duration:  %s\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("  Learnings: %d\n", result.LearningsRecorded)
	fmt.Println()

	for _, tr := range result.TeamResults {
		switch tr.Status {
		case models.TeamStatusCompleted:
			fmt.Printf("  %s %s ($%.4f, %s)\n",
				color.GreenString("✓"), tr.TeamName, tr.Cost, tr.Duration.Round(time.Millisecond))
		case models.TeamStatusFailed:
			fmt.Printf("  %s %s: %s\n", color.RedString("✗"), tr.TeamName, tr.Error)
		case models.TeamStatusSkipped:
			fmt.Printf("  %s %s: %s\n", color.YellowString("-"), tr.TeamName, tr.Error)
		}
	}

	fmt.Println()
	fmt.Println(result.SynthesizedOutput)
}
