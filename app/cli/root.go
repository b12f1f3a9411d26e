package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/datumcontrole/category-store/app/config"
	"github.com/datumcontrole/category-store/app/database"
	"github.com/datumcontrole/category-store/app/logging"
	"github.com/datumcontrole/category-store/app/server"
	"github.com/datumcontrole/category-store/models"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type globalOptions struct {
	databaseURL string
	envFile     string
}

// runEnv is what every command needs once flags are parsed.
type runEnv struct {
	cfg    *config.Config
	logger zerolog.Logger
	closer io.Closer
}

func NewRootCommand(out io.Writer) *cobra.Command {
	cmd, _ := newRootCommand(out)
	return cmd
}

func newRootCommand(out io.Writer) (*cobra.Command, *runEnv) {
	opts := &globalOptions{}
	rt := &runEnv{}

	cmd := &cobra.Command{
		Use:          "datumcontrole",
		Short:        "Manage the categories of the datumcontrole inventory",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.setup(cmd, opts)
		},
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "database url (overrides DATUMCONTROLE_DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	cmd.AddCommand(
		newServeCommand(rt),
		newMigrateCommand(rt),
		newCategoryCommand(rt),
	)
	closeLogAfterRun(cmd, rt)
	return cmd, rt
}

// closeLogAfterRun wraps every RunE in the tree so the log file is released
// whether the command succeeds or fails.
func closeLogAfterRun(cmd *cobra.Command, rt *runEnv) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) (err error) {
			defer func() {
				if closeErr := rt.closeLog(); closeErr != nil && err == nil {
					err = closeErr
				}
			}()
			return run(c, args)
		}
	}
	for _, sub := range cmd.Commands() {
		closeLogAfterRun(sub, rt)
	}
}

func (rt *runEnv) closeLog() error {
	if rt.closer == nil {
		return nil
	}
	closer := rt.closer
	rt.closer = nil
	return closer.Close()
}

func (rt *runEnv) setup(cmd *cobra.Command, opts *globalOptions) error {
	overrides := map[string]string{}
	if opts.databaseURL != "" {
		overrides["database_url"] = opts.databaseURL
	}

	cfg, err := config.LoadWithOverrides(overrides, opts.envFile)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		return err
	}

	rt.cfg = cfg
	rt.logger = logger
	rt.closer = closer
	return nil
}

// withRepository opens the database for the duration of fn.
func (rt *runEnv) withRepository(ctx context.Context, fn func(db *gorm.DB, repo *models.CategoriesRepository) error) (err error) {
	db, err := database.Open(ctx, rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := database.Close(db); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(db, models.NewCategoriesRepository(db))
}

func newServeCommand(rt *runEnv) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the category HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return rt.withRepository(ctx, func(db *gorm.DB, repo *models.CategoriesRepository) error {
				if !skipMigrate {
					if err := database.Migrate(db); err != nil {
						return err
					}
				}
				return server.New(rt.cfg, rt.logger, repo).Run(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not create or update tables before serving")
	return cmd
}

func newMigrateCommand(rt *runEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withRepository(cmd.Context(), func(db *gorm.DB, _ *models.CategoriesRepository) error {
				if err := database.Migrate(db); err != nil {
					return err
				}
				rt.logger.Info().Msg("migrations applied")
				return nil
			})
		},
	}
}
