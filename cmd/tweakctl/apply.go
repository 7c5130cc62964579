package main

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/tweakctl/internal/engine"
	"codeberg.org/mutker/tweakctl/internal/logger"
	"codeberg.org/mutker/tweakctl/internal/pid"
	"codeberg.org/mutker/tweakctl/internal/tweak"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newRevertCmd())
}

func newApplyCmd() *cobra.Command {
	var option string

	cmd := &cobra.Command{
		Use:   "apply <tweak>",
		Short: "Apply a tweak",
		Long: `Apply a tweak and report the state observed afterwards.
Multi-valued tweaks take their value from --option.

Example:
  tweakctl apply power.ultimate_performance
  tweakctl apply display.low_resolution --option 1024x768@60`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, engine.Request{
				ID:     tweak.ID(args[0]),
				Action: engine.ActionApply,
				State:  tweak.State{Enabled: true, Option: option},
			})
		},
	}
	cmd.Flags().StringVarP(&option, "option", "o", "", "Value for multi-valued tweaks")

	return cmd
}

func newRevertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert <tweak>",
		Short: "Revert a tweak to the system's original state",
		Long: `Revert a tweak to the state it had before it was first applied.
The state is saved in the journal by the first apply and cleared by a
successful revert. A tweak that was never applied reverts to the state
found when tweakctl started; register tweaks without a saved state write
the opposite of their desired bits.

Example:
  tweakctl revert msr.disable_c1e`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, engine.Request{
				ID:     tweak.ID(args[0]),
				Action: engine.ActionRevert,
			})
		},
	}
}

// guarded runs fn while holding the PID file. Only one tweakctl may touch
// the hardware at a time.
func guarded(ctx context.Context, fn func() error) error {
	if err := pid.Write(ctx, ""); err != nil {
		return err
	}
	defer func() {
		if err := pid.Remove(""); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove PID file")
		}
	}()

	return fn()
}

// runRequest executes one request through the dispatcher.
func runRequest(cmd *cobra.Command, req engine.Request) error {
	return guarded(cmd.Context(), func() error {
		return dispatch(cmd.Context(), req)
	})
}

func dispatch(ctx context.Context, req engine.Request) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := engine.New(a.catalog,
		engine.WithWorkers(cfg.Engine.Workers),
		engine.WithQueueSize(cfg.Engine.QueueSize),
		engine.WithRecorder(a.journal),
	)
	if err != nil {
		return err
	}
	if err := d.Start(ctx); err != nil {
		return err
	}

	if _, err := d.Submit(req); err != nil {
		_ = d.Close()
		return err
	}

	res := <-d.Results()
	if err := d.Close(); err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}

	state := "disabled"
	if res.State.Enabled {
		state = "enabled"
	}
	if res.State.Option != "" {
		state += " (" + res.State.Option + ")"
	}
	fmt.Printf("%s: %s in %s\n", req.ID, state, res.Duration.Round(time.Microsecond))

	return nil
}
