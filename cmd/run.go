// -- cmd/run.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/internal/agent"
	"github.com/webpilot-ai/webpilot/internal/config"
	"github.com/webpilot-ai/webpilot/internal/events"
	"github.com/webpilot-ai/webpilot/internal/llmclient"
	"github.com/webpilot-ai/webpilot/internal/observability"
	"github.com/webpilot-ai/webpilot/internal/runner"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [task...]",
		Short: "Executes a task with the autonomous agent",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their Viper keys so command-line values override
			// the config file and environment with the right precedence.
			if err := viper.BindPFlag("runner.max_steps", cmd.Flags().Lookup("max-steps")); err != nil {
				return err
			}
			if err := viper.BindPFlag("runner.use_vision", cmd.Flags().Lookup("use-vision")); err != nil {
				return err
			}
			if err := viper.BindPFlag("planner.use_server_for_first_plan", cmd.Flags().Lookup("server-plan")); err != nil {
				return err
			}
			if err := viper.BindPFlag("planner.server_plan_endpoint", cmd.Flags().Lookup("plan-endpoint")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from main (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			task := strings.Join(args, " ")
			logger.Info("Starting task",
				zap.String("task", task),
				zap.Int("max_steps", cfg.Runner.MaxSteps),
				zap.String("provider", string(cfg.LLM.Provider)),
				zap.Bool("server_plan", cfg.Planner.UseServerForFirstPlan),
			)

			model, err := llmclient.NewChatModel(cfg.LLM, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize chat model: %w", err)
			}
			defer model.Close()

			bus := events.NewBus(logger, 0)
			defer bus.Shutdown()
			stopEcho := echoEvents(cmd, bus)
			defer stopEcho()

			planner := agent.NewPlanner(logger, model, bus, cfg.Planner)
			driver := runner.NewRunner(logger, planner, bus, cfg.Runner)

			result, err := driver.Run(ctx, task)
			if err != nil {
				var cancelled *agent.CancelledError
				if errors.As(err, &cancelled) || errors.Is(err, context.Canceled) {
					logger.Warn("Task aborted by user signal")
					return context.Canceled
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), result.FinalAnswer)
			return nil
		},
	}

	runCmd.Flags().Int("max-steps", 20, "maximum planning steps before the task is abandoned")
	runCmd.Flags().Bool("use-vision", false, "allow image segments in the conversation")
	runCmd.Flags().Bool("server-plan", false, "consult the plan server for the first step")
	runCmd.Flags().String("plan-endpoint", "", "base URL of the plan server")
	return runCmd
}

// echoEvents mirrors lifecycle events to the command's output until the
// returned stop function is called.
func echoEvents(cmd *cobra.Command, bus *events.Bus) func() {
	ch, unsubscribe := bus.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range ch {
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", ev.Actor, ev.State, ev.Message)
		}
	}()
	return func() {
		unsubscribe()
		wg.Wait()
	}
}
