package commands

import (
	"fmt"
	"tieba-assist/internal/tasks"
	"tieba-assist/lib/serviceutil"

	"github.com/spf13/cobra"
)

var dryNotify *bool

func init() {
	dryNotify = runCmd.Flags().Bool("no-notify", false, "Print the summaries instead of sending them to the configured channels.")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(followCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--no-notify]",
	Short: "Runs every enabled task once.",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := loadEnvironment()
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}
		if *dryNotify {
			env.sinks = nil
		}
		printSummaries(tasks.NewRunner(env.tasks(), env.sinks, env.tel).Run(cmd.Context()))
	},
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Signs in to every followed forum.",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := loadEnvironment()
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}
		runner := tasks.NewRunner([]tasks.Task{env.signFollowed()}, env.sinks, env.tel)
		printSummaries(runner.Run(cmd.Context()))
	},
}

var followCmd = &cobra.Command{
	Use:   "follow",
	Short: "Follows the currently trending forums.",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := loadEnvironment()
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}
		runner := tasks.NewRunner([]tasks.Task{env.followTrending()}, env.sinks, env.tel)
		printSummaries(runner.Run(cmd.Context()))
	},
}

func printSummaries(summaries []tasks.Summary) {
	for _, summary := range summaries {
		fmt.Printf("[%s]\n%s\n", summary.Task, summary.Message)
	}
}
