package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"searcharr/internal/config"
	"searcharr/internal/core/domain/models"
	"searcharr/internal/core/service"
)

// Exit codes, one per outcome class, so the surrounding scheduler can tell a
// clean no-action run apart from each failure mode.
const (
	exitOK           = 0
	exitFailure      = 1
	exitConfig       = 2
	exitNoAction     = 3
	exitFetch        = 4
	exitTrigger      = 5
	exitStateCorrupt = 6
	exitStatePersist = 7
)

const runTimeout = 10 * time.Minute

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var verbose, quiet int

	v := viper.New()
	config.SetDefaults(v)

	cmd := &cobra.Command{
		Use:           "searcharr",
		Short:         "Trigger one search for a random missing or cutoff-unmet item",
		Long:          "searcharr asks a Radarr, Sonarr, or Lidarr server for missing and\ncutoff-unmet items and triggers exactly one search per invocation,\nhonoring a per-item cooldown recorded in a local state file.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(verbose, quiet)
			slog.SetDefault(logger)

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			source, err := service.CreateWantedSource(cfg, logger)
			if err != nil {
				return err
			}
			state, err := service.CreateStateStore(cfg)
			if err != nil {
				return err
			}

			rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
			worker := service.NewWorkerService(cfg, source, state, rng, logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
			defer cancel()
			return worker.Run(ctx)
		},
	}

	flags := cmd.Flags()
	flags.String("type", "", "server type: radarr, sonarr, or lidarr")
	flags.String("hostname", "", "server hostname, with or without http/https")
	flags.String("api-key", "", "server API key")
	flags.Int("missing-weight", config.DefaultMissingWeight, "relative weight for missing items")
	flags.Int("cutoff-unmet-weight", config.DefaultCutoffUnmetWeight, "relative weight for cutoff-unmet items")
	flags.Float64("cooldown-hours", config.DefaultCooldownHours, "minimum hours before the same item may be searched again")
	flags.Int("page-size", config.DefaultPageSize, "page size for wanted listings")
	flags.String("state-file", "", "state path (default: XDG state dir)")
	flags.String("state-backend", config.StateBackendFile, "state backend: file or sqlite")
	flags.CountVarP(&verbose, "verbose", "v", "increase log verbosity by one step per use")
	flags.CountVarP(&quiet, "quiet", "q", "decrease log verbosity by one step per use")

	_ = godotenv.Load()
	bindSettings(v, cmd)

	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return exitOK
	}

	code := exitCodeFor(err)
	if code == exitNoAction {
		slog.Warn("no eligible missing/cutoff-unmet entries remain after cooldown")
		return code
	}
	slog.Error("run failed", "error", err)
	return code
}

// bindSettings wires flags and the ARR_* environment into one viper instance.
// Flags win over environment, environment over defaults.
func bindSettings(v *viper.Viper, cmd *cobra.Command) {
	v.SetEnvPrefix("ARR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(cmd.Flags())
	// The cooldown variable predates the flag name.
	_ = v.BindEnv("cooldown-hours", "ARR_SEARCH_COOLDOWN_HOURS", "ARR_COOLDOWN_HOURS")
}

func exitCodeFor(err error) int {
	switch models.KindOf(err) {
	case models.KindConfig:
		return exitConfig
	case models.KindNoEligibleItems:
		return exitNoAction
	case models.KindFetch:
		return exitFetch
	case models.KindTrigger:
		return exitTrigger
	case models.KindStateCorrupt:
		return exitStateCorrupt
	case models.KindStatePersist:
		return exitStatePersist
	default:
		return exitFailure
	}
}

// newLogger builds a stderr text logger whose level moves one slog step per
// -v/-q, clamped to the DEBUG..ERROR range around an INFO default.
func newLogger(verbose, quiet int) *slog.Logger {
	level := slog.LevelInfo + slog.Level(4*(quiet-verbose))
	if level < slog.LevelDebug {
		level = slog.LevelDebug
	}
	if level > slog.LevelError {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
