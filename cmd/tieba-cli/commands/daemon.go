package commands

import (
	"context"
	"log/slog"
	"time"
	"tieba-assist/internal/components/chrono"
	"tieba-assist/internal/components/telemetry"
	"tieba-assist/internal/tasks"
	"tieba-assist/lib/serviceutil"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var runImmediately *bool

func init() {
	runImmediately = daemonCmd.Flags().Bool("now", false, "Also run the tasks once on startup.")
	rootCmd.AddCommand(daemonCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon [--now]",
	Short: "Runs the enabled tasks on the configured cron schedule until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		env, err := loadEnvironment()
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}

		providers, err := telemetry.Setup(ctx, "tieba-cli", env.config.Otlp)
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := providers.Shutdown(shutdownCtx)
			if err != nil {
				slog.Warn("failed to flush telemetry", "err", err)
			}
		}()
		telemetry.InstrumentPerfStats(ctx, env.tel)

		runner := tasks.NewRunner(env.tasks(), env.sinks, env.tel)
		// the startup run finishes before the scheduler starts, the client is not shared
		// between goroutines
		if *runImmediately {
			runner.Run(ctx)
		}

		cron := chrono.NewStandardCron(env.clock.Location(), env.tel)
		defer cron.Stop()

		spec := env.config.Schedule.Cron
		logNextRun := func() {
			next, err := cron.Next(spec, env.clock.Now())
			if err != nil {
				return
			}
			slog.Info("next run scheduled", "at", next.Format(time.DateTime), "in", humanize.Time(next))
		}

		err = cron.Cron(spec, func() {
			runner.Run(ctx)
			logNextRun()
		})
		if err != nil {
			serviceutil.Fatal("invalid schedule", err)
		}

		logNextRun()

		<-ctx.Done()
	},
}
