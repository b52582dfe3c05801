// cmd/dockermirror/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dockermirror/internal/config"
	"dockermirror/internal/manager"
	"dockermirror/internal/scheduler"
	"dockermirror/internal/storage/database"
	"dockermirror/internal/types"
	"dockermirror/internal/types/options"
	"dockermirror/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cfg := config.NewConfig()
	code := execute(ctx, newRootCmd(cfg), cfg.Logger)

	stop()
	os.Exit(code)
}

// execute lance la commande et convertit la première erreur fatale en code de sortie
func execute(ctx context.Context, cmd *cobra.Command, logger *logrus.Logger) int {
	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		logger.Info("Interrupted by user, exiting")
		return 0
	default:
		logger.Error(err)
		return 1
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := options.NewRunOptions()
	var keepImages bool

	rootCmd := &cobra.Command{
		Use:   "dockermirror",
		Short: "Mirror public container images to a private registry",
		Long: `Mirror container images listed in a file to a private registry.

Each image is pulled, retagged under the destination namespace and pushed.
Images sharing a name but coming from different namespaces are prefixed with
their source namespace; images pulled for a specific platform are prefixed
with the platform.

Image list format (one image per line, # for comments):
  nginx:latest
  library/nginx:1.25
  --platform linux/arm64 redis:7

Registry settings (settings file or environment):
  ALIYUN_REGISTRY          : Destination registry host
  ALIYUN_NAME_SPACE        : Destination namespace
  ALIYUN_REGISTRY_USER     : Registry username
  ALIYUN_REGISTRY_PASSWORD : Registry password

Environment variables:
  DOCKER_MIRROR_LOG_LEVEL   : Logging level (debug, info, warn, error)
  DOCKER_MIRROR_FILE        : Image list file
  DOCKER_MIRROR_RUNTIME     : Container runtime (cli, engine)
  DOCKER_MIRROR_RUNTIME_BIN : Runtime binary in cli mode
  DOCKER_MIRROR_DB          : History database path
  DOCKER_MIRROR_APPRISE_URL : Apprise URL for notifications
  DOCKER_MIRROR_RETENTION   : Number of runs kept in history`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.LoadFromEnv(cmd.Flags()); err != nil {
				return err
			}
			return cfg.Validate()
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Cleanup = !keepImages
			return runMirror(cmd.Context(), cfg, opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfg.LogLevel, "log-level", "l",
		config.DefaultLogLevel, "Log level")
	rootCmd.PersistentFlags().StringVarP(&cfg.ImagesFile, "file", "f",
		config.DefaultImagesFile, "Image list file")
	rootCmd.PersistentFlags().StringVar(&cfg.EnvFile, "env-file",
		config.DefaultEnvFile, "Registry settings file")
	rootCmd.PersistentFlags().StringVarP(&cfg.Runtime, "runtime", "r",
		config.DefaultRuntime, "Container runtime (cli|engine)")
	rootCmd.PersistentFlags().StringVar(&cfg.RuntimeBin, "runtime-bin",
		config.DefaultRuntimeBin, "Runtime binary in cli mode (docker, podman, nerdctl)")
	rootCmd.PersistentFlags().StringVarP(&cfg.DbPath, "db", "D",
		"", "History database path (history disabled if empty)")
	rootCmd.PersistentFlags().StringVarP(&cfg.AppriseURL, "apprise-url", "a",
		"", "Apprise URL for notifications")
	rootCmd.PersistentFlags().IntVar(&cfg.Retention, "retention",
		config.DefaultRetention, "Number of runs kept in history")

	rootCmd.Flags().BoolVar(&opts.Notify, "notify", false,
		"Send a run summary through Apprise")
	rootCmd.Flags().BoolVar(&keepImages, "keep-images", false,
		"Keep pulled and tagged images locally")

	rootCmd.AddCommand(
		newPlanCmd(cfg),
		newHistoryCmd(cfg),
		newScheduleCmd(cfg),
	)

	return rootCmd
}

// runMirror exécute un mirroir complet.
// La liste est chargée avant toute création du runtime.
func runMirror(ctx context.Context, cfg *config.Config, opts options.RunOptions) error {
	settings, err := config.LoadSettings(cfg.EnvFile, true, cfg.Logger)
	if err != nil {
		return err
	}

	entries, err := types.LoadImageList(cfg.ImagesFile)
	if err != nil {
		return err
	}
	cfg.Logger.Infof("Loaded %d images from %s", len(entries), cfg.ImagesFile)

	m, err := manager.NewMirrorManager(cfg, settings)
	if err != nil {
		return err
	}
	defer m.Close()

	_, err = m.Run(ctx, entries, opts)
	return err
}

// newPlanCmd crée la commande plan
func newPlanCmd(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show destination names without mirroring",
		Long: `Compute the destination reference of every image in the list.
Nothing is pulled or pushed and no login is performed, so registry
credentials are not required.

Examples:
  # Show the mapping for images.txt
  dockermirror plan

  # Use another list and print JSON
  dockermirror plan -f mirror.txt --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(cfg.EnvFile, false, cfg.Logger)
			if err != nil {
				return err
			}

			entries, err := types.LoadImageList(cfg.ImagesFile)
			if err != nil {
				return err
			}

			items := manager.Plan(settings.Target, entries)

			if jsonOutput {
				fmt.Fprintln(cmd.OutOrStdout(), utils.PrettyJSON(items))
				return nil
			}

			var invalid int
			for _, item := range items {
				marker := " "
				if item.Collision {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", marker, item.Entry, item.Destination)
				if item.Invalid != "" {
					invalid++
					cfg.Logger.Warnf("Line %d: %s is not a valid reference: %s",
						item.Entry.Line, item.Destination, item.Invalid)
				}
			}

			cfg.Logger.Infof("Summary: %d images, %d invalid destinations", len(items), invalid)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	return cmd
}

// newHistoryCmd crée la commande history
func newHistoryCmd(cfg *config.Config) *cobra.Command {
	var opts options.HistoryOptions
	var since string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show mirror history",
		Long: `Show recorded mirror results, most recent first.
Requires a history database (--db or DOCKER_MIRROR_DB).

Examples:
  # Show the last 20 entries
  dockermirror --db mirror.db history -n 20

  # Show failures of a given run
  dockermirror --db mirror.db history --run 1b2c3d4e --status failed

  # Show as JSON
  dockermirror --db mirror.db history -j`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DbPath == "" {
				return fmt.Errorf("history requires a database (use --db)")
			}

			if since != "" {
				t, err := utils.ParseDay(since)
				if err != nil {
					return fmt.Errorf("invalid --since value: %w", err)
				}
				opts.Since = t
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			db, err := database.NewDatabase(cfg.DbPath, cfg.Logger)
			if err != nil {
				return err
			}
			defer db.Close()

			history, err := db.GetHistory(opts)
			if err != nil {
				return err
			}

			if opts.JSON {
				if err := json.NewEncoder(cmd.OutOrStdout()).Encode(history); err != nil {
					return fmt.Errorf("failed to encode JSON: %v", err)
				}
				return nil
			}

			if len(history) == 0 {
				cfg.Logger.Info("No history found")
				return nil
			}

			out := cmd.OutOrStdout()
			for _, entry := range history {
				fmt.Fprintf(out, "[%s] run %s line %d: %s\n",
					entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					utils.ShortenID(entry.RunID),
					entry.Line,
					entry.Status,
				)
				fmt.Fprintf(out, "  %s -> %s\n", entry.Source, entry.Destination)
				if entry.Message != "" {
					fmt.Fprintf(out, "  Message: %s\n", entry.Message)
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0,
		"Limit number of entries")
	cmd.Flags().StringVar(&opts.RunID, "run", "",
		"Show entries of a run (ID prefix)")
	cmd.Flags().StringVar(&opts.Status, "status", "",
		"Filter on status (mirrored|failed|interrupted)")
	cmd.Flags().BoolVarP(&opts.JSON, "json", "j", false,
		"Output in JSON format")
	cmd.Flags().StringVarP(&opts.Search, "search", "q", "",
		"Search in references and messages")
	cmd.Flags().StringVarP(&since, "since", "S", "",
		"Show entries since date (YYYY-MM-DD)")

	return cmd
}

// newScheduleCmd crée la commande schedule
func newScheduleCmd(cfg *config.Config) *cobra.Command {
	opts := options.NewRunOptions()
	var keepImages bool

	cmd := &cobra.Command{
		Use:   `schedule "cron-expression"`,
		Short: "Mirror images on a schedule",
		Long: `Run the mirror on a cron schedule until interrupted.
The image list is reloaded for every run. A run still in progress
when the next one is due causes that next run to be skipped.

Cron Expression Format:
  ┌───────────── minute (0 - 59)
  │ ┌───────────── hour (0 - 23)
  │ │ ┌───────────── day of month (1 - 31)
  │ │ │ ┌───────────── month (1 - 12)
  │ │ │ │ ┌───────────── day of week (0 - 6)
  │ │ │ │ │
  * * * * *`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Cleanup = !keepImages
			ctx := cmd.Context()

			settings, err := config.LoadSettings(cfg.EnvFile, true, cfg.Logger)
			if err != nil {
				return err
			}

			m, err := manager.NewMirrorManager(cfg, settings)
			if err != nil {
				return err
			}
			defer m.Close()

			s := scheduler.NewScheduler(m, scheduler.Options{
				ImagesFile: cfg.ImagesFile,
				RunOpts:    opts,
				Logger:     cfg.Logger,
			})

			if err := s.Start(ctx, args[0]); err != nil {
				return err
			}

			if next := s.NextRun(); next != nil {
				cfg.Logger.Infof("First run scheduled at: %s",
					next.Format("2006-01-02 15:04:05"))
			}

			// Attendre jusqu'à Ctrl+C
			<-ctx.Done()
			s.Stop()
			return ctx.Err()
		},
	}

	cmd.Flags().BoolVar(&opts.Notify, "notify", true,
		"Send a run summary through Apprise")
	cmd.Flags().BoolVar(&keepImages, "keep-images", false,
		"Keep pulled and tagged images locally")

	return cmd
}
