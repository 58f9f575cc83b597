package main

import (
	"context"
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/apiarylabs/apiary/internal/queen"
	"github.com/apiarylabs/apiary/pkg/models"
)

// runWithTUI executes the swarm behind a live progress view.
func runWithTUI(ctx context.Context, q *queen.Queen, goal string, plan *models.SwarmPlan) (result *models.SwarmResult, retErr error) {
	// Log output corrupts the alt-screen display.
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("PANIC in runWithTUI: %v", r)
		}
	}()

	program := tea.NewProgram(newRunModel(goal))

	q.WithStatusCallback(func(status models.SwarmStatus, detail string) {
		program.Send(swarmStatusMsg{Status: status, Detail: detail})
	})

	type runOutcome struct {
		result *models.SwarmResult
		err    error
	}
	orchDone := make(chan runOutcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				orchDone <- runOutcome{err: fmt.Errorf("PANIC in orchestrator: %v", r)}
			}
		}()
		var res *models.SwarmResult
		var err error
		if plan != nil {
			res, err = q.ExecutePlan(ctx, goal, plan)
		} else {
			res, err = q.Execute(ctx, goal)
		}
		orchDone <- runOutcome{result: res, err: err}
	}()

	tuiDone := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				tuiDone <- fmt.Errorf("PANIC in TUI: %v", r)
			}
		}()
		_, err := program.Run()
		tuiDone <- err
	}()

	select {
	case outcome := <-orchDone:
		program.Send(swarmDoneMsg{Err: outcome.err})
		// Let the user read the final state before the screen is restored.
		if err := <-tuiDone; err != nil && outcome.err == nil {
			return outcome.result, err
		}
		return outcome.result, outcome.err

	case err := <-tuiDone:
		// TUI quit before the run finished; the caller's context cancel
		// tears down the orchestration.
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("run aborted")
	}
}
