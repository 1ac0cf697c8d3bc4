package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/refline/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a refline repository in the current directory",
	Long: `Create a .refline directory with default configuration.

Examples:
  refline init           # Initialize here
  refline init --human   # Human-readable confirmation`,
	RunE: runInit,
}

// InitResult is the JSON response for init.
type InitResult struct {
	Status string `json:"status"`
	Path   string `json:"path"`
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if config.IsRepository(cwd) {
		exitWithError(ExitConfigError, "already a refline repository: %s", cwd)
	}

	for _, dir := range []string{config.ReflinePath(cwd), config.TimelinesPath(cwd)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	if err := config.Default().Save(cwd); err != nil {
		return err
	}

	if humanOutput {
		fmt.Printf("Initialized refline repository at %s\n", cwd)
	} else {
		outputJSON(InitResult{Status: "initialized", Path: cwd})
	}
	return nil
}
