package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"windowresizer/internal/config"
)

var (
	configMoveFn     = config.Move
	configLoadFn     = config.Load
	portableModeFn   = config.PortableMode
	engineRunningFn  = engineRunning
	errEngineRunning = errors.New("stop the running engine before moving the config document")
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or relocate the config document",
	}
	cmd.AddCommand(newConfigPathCommand())
	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigMoveCommand())
	return cmd
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the active config document path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := "roaming"
			if portableModeFn() {
				mode = "portable"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", defaultPathFn(), mode)
			return nil
		},
	}
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the config document as the engine would load it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultPathFn()
			cfg, err := configLoadFn(path)
			if err != nil {
				return err
			}
			raw, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", path, raw)
			return nil
		},
	}
}

func newConfigMoveCommand() *cobra.Command {
	var portable, roaming bool
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move the config document next to the executable or into the user profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if engineRunningFn(cmd.Context()) {
				return errEngineRunning
			}
			target, err := configMoveFn(portable)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}
	cmd.Flags().BoolVar(&portable, "portable", false, "keep the document next to the executable")
	cmd.Flags().BoolVar(&roaming, "roaming", false, "keep the document in the user profile")
	cmd.MarkFlagsMutuallyExclusive("portable", "roaming")
	cmd.MarkFlagsOneRequired("portable", "roaming")
	return cmd
}
