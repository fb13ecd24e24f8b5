package commands

import (
	"context"
	"fmt"
	"os"
	"tieba-assist/internal/components/chrono"
	"tieba-assist/internal/components/telemetry"
	"tieba-assist/internal/config"
	"tieba-assist/internal/notify"
	"tieba-assist/internal/tasks"
	"tieba-assist/internal/tieba"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var configPath *string
var envFile *string
var verbose *bool

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "", "The config file to read, by default tieba.json5 is searched for from the working directory upwards.")
	envFile = rootCmd.PersistentFlags().String("env-file", config.DefaultEnvFile, "A dotenv file loaded before reading the config.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug information, including every http request.")
}

var rootCmd = &cobra.Command{
	Use:   "tieba-cli",
	Short: "tieba-cli signs in to followed tieba forums, follows trending ones and reports the results.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// environment is everything a command needs, built from the config.
type environment struct {
	config config.Config
	clock  chrono.StandardImpl
	client *tieba.Client
	sinks  []notify.Sink
	tel    telemetry.API
}

func loadEnvironment() (environment, error) {
	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		return environment{}, err
	}

	clock, err := chrono.NewStandardImpl(cfg.Schedule.Timezone)
	if err != nil {
		return environment{}, err
	}

	tel := telemetry.SlogAPI{}
	client, err := tieba.NewClient(cfg.ClientOptions(), clock, tel)
	if err != nil {
		return environment{}, err
	}

	return environment{
		config: cfg,
		clock:  clock,
		client: client,
		sinks:  cfg.Sinks(tel),
		tel:    tel,
	}, nil
}

// tasks returns the enabled tasks, trending forums are followed first so the sign-in sweep
// covers them too.
func (e environment) tasks() []tasks.Task {
	var out []tasks.Task
	if e.config.TrendingEnabled() {
		out = append(out, e.followTrending())
	}
	if e.config.SignEnabled() {
		out = append(out, e.signFollowed())
	}
	return out
}

func (e environment) signFollowed() tasks.Task {
	return tasks.NewSignFollowed(e.client, e.clock, e.config.SignInterval(), e.tel)
}

func (e environment) followTrending() tasks.Task {
	return tasks.NewFollowTrending(e.client, e.clock, e.config.Trending.Page, e.config.Trending.Size, e.tel)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
