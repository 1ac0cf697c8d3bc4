package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get or set repository configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := mustFindRepository()
		cfg := mustLoadConfig(repoRoot)
		if humanOutput {
			fmt.Printf("response_overdue_days: %d\n", cfg.Thresholds.ResponseOverdueDays)
			fmt.Printf("report_overdue_days:   %d\n", cfg.Thresholds.ReportOverdueDays)
			fmt.Printf("repair_warn_days:      %d\n", cfg.RepairWarnDays)
			fmt.Printf("operator_address:      %s\n", cfg.OperatorAddress)
			fmt.Printf("digest_markers:        %v\n", cfg.DigestMarkers)
			return nil
		}
		return outputJSON(cfg)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and save it.

Keys:
  response_overdue_days   Days before an unanswered invitation is overdue
  report_overdue_days     Days before an accepted referee's report is overdue
  repair_warn_days        Date-move size that triggers a repair warning
  operator_address        The extracting user's own email address

Examples:
  refline config set response_overdue_days 21
  refline config set operator_address ae@university.edu`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	key, value := args[0], args[1]
	switch key {
	case "response_overdue_days", "report_overdue_days", "repair_warn_days":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			exitWithError(ExitError, "%s must be a positive integer, got %q", key, value)
		}
		switch key {
		case "response_overdue_days":
			cfg.Thresholds.ResponseOverdueDays = n
		case "report_overdue_days":
			cfg.Thresholds.ReportOverdueDays = n
		case "repair_warn_days":
			cfg.RepairWarnDays = n
		}
	case "operator_address":
		cfg.OperatorAddress = value
	default:
		exitWithError(ExitError, "unknown config key %q", key)
	}

	if err := cfg.Save(repoRoot); err != nil {
		return err
	}

	if humanOutput {
		fmt.Printf("%s = %s\n", key, value)
	} else {
		outputJSON(map[string]string{key: value})
	}
	return nil
}
