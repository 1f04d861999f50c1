// Package cmd contains the federationctl CLI commands. Unlike the gwo CLI
// it is built from, these commands call the manager constructors directly
// in-process against the configured database rather than going over HTTP,
// so there is no api.Client here — only a store.Store and a set of manager
// services shared by every subcommand.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/federationserver/federationserver/internal/attachment"
	"github.com/federationserver/federationserver/internal/audit"
	"github.com/federationserver/federationserver/internal/blacklist"
	"github.com/federationserver/federationserver/internal/cache"
	"github.com/federationserver/federationserver/internal/config"
	"github.com/federationserver/federationserver/internal/entity"
	"github.com/federationserver/federationserver/internal/evidence"
	"github.com/federationserver/federationserver/internal/logging"
	"github.com/federationserver/federationserver/internal/operator"
	"github.com/federationserver/federationserver/internal/storage"
	"github.com/federationserver/federationserver/internal/store"
	"github.com/rs/zerolog"
)

var cfgFile string

// deps bundles everything a subcommand needs. It is populated once by
// rootCmd's PersistentPreRunE and torn down by PersistentPostRunE.
type deps struct {
	cfg         *config.Config
	logger      zerolog.Logger
	db          *store.Store
	cache       cache.Cache
	operators   *operator.Service
	entities    *entity.Service
	evidenceSvc *evidence.Service
	attachments *attachment.Service
	blacklist   *blacklist.Service
	audit       *audit.Service
}

var d deps

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "federationctl",
	Short: "federationctl - administer a FederationServer instance",
	Long: `federationctl operates directly against a FederationServer database and
storage directory using the same FEDERATION_*/DATABASE_* configuration as
the federationd daemon. It does not speak HTTP to a running server.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

		db, err := store.Open(cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		if err := db.Bootstrap(context.Background()); err != nil {
			db.Close()
			return fmt.Errorf("bootstrap schema: %w", err)
		}

		c := cache.Cache(cache.Noop{})

		files, err := storage.New(cfg.Server.StoragePath)
		if err != nil {
			db.Close()
			return fmt.Errorf("initialize attachment storage: %w", err)
		}

		operators := operator.NewService(operator.NewRepository(db.DB), c, cfg.Cache, logger)
		entities := entity.NewService(entity.NewRepository(db.DB), c, cfg.Cache, logger)
		evidenceSvc := evidence.NewService(evidence.NewRepository(db.DB), entities, operators, c, cfg.Cache, logger)
		blacklistSvc := blacklist.NewService(blacklist.NewRepository(db.DB), entities, evidenceSvc, cfg.Server.MinBlacklistTime, logger)
		attachments := attachment.NewService(attachment.NewRepository(db.DB), files, evidenceSvc, cfg.Server.MaxUploadSize, cfg.Server.MaxItemsPerKind, logger)
		auditSvc := audit.NewService(audit.NewRepository(db.DB), logger)

		d = deps{
			cfg:         cfg,
			logger:      logger,
			db:          db,
			cache:       c,
			operators:   operators,
			entities:    entities,
			evidenceSvc: evidenceSvc,
			attachments: attachments,
			blacklist:   blacklistSvc,
			audit:       auditSvc,
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if d.db != nil {
			return d.db.Close()
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.federationctl.yaml)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(createOperatorCmd)
	rootCmd.AddCommand(getOperatorCmd)
	rootCmd.AddCommand(deleteOperatorCmd)
	rootCmd.AddCommand(editOperatorCmd)
	rootCmd.AddCommand(listOperatorsCmd)
	rootCmd.AddCommand(refreshOperatorAPIKeyCmd)
	rootCmd.AddCommand(listAuditCmd)
	rootCmd.AddCommand(maintenanceCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".federationctl")
	}

	viper.SetEnvPrefix("FEDERATION")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// versionCmd shows the CLI version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("federationctl version 0.1.0")
	},
}
