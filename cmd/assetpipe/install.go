package main

import (
	"io/fs"

	"github.com/spf13/cobra"

	migrations "github.com/assetpipe/assetpipe/db"
	"github.com/assetpipe/assetpipe/internal/config"
	"github.com/assetpipe/assetpipe/internal/db"
	"github.com/assetpipe/assetpipe/internal/install"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Bootstrap a new deployment",
}

var (
	installDBHost      string
	installDBPort      int
	installDBUser      string
	installDBPassword  string
	installDBName      string
	installStorageRoot string
)

var installConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate a config.toml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgPath
		if path == "" {
			path = config.DefaultConfigPath
		}
		generated := config.Default()
		generated.Postgres.Host = installDBHost
		generated.Postgres.Port = installDBPort
		generated.Postgres.User = installDBUser
		generated.Postgres.Password = installDBPassword
		generated.Postgres.Database = installDBName
		generated.Storage.Root = installStorageRoot
		return install.CreateConfig(path, generated)
	},
}

var installDatabaseCmd = &cobra.Command{
	Use:   "database",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, err := migrationsFS()
		if err != nil {
			return err
		}
		return install.CreateDatabase(log, cfg.Postgres, sub)
	},
}

var installSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the file settings and admin user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		return install.Seed(ctx, log, pool, cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate <up|down|version|force N>",
	Short: "Run database migrations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, err := migrationsFS()
		if err != nil {
			return err
		}
		return db.RunMigrate(log, cfg.Postgres, sub, args[0], args[1:])
	},
}

func init() {
	flags := installConfigCmd.Flags()
	flags.StringVar(&installDBHost, "db-host", config.DefaultPGHost, "database host")
	flags.IntVar(&installDBPort, "db-port", config.DefaultPGPort, "database port")
	flags.StringVar(&installDBUser, "db-user", config.DefaultPGUser, "database user")
	flags.StringVar(&installDBPassword, "db-password", "", "database password")
	flags.StringVar(&installDBName, "db-name", config.DefaultPGDatabase, "database name")
	flags.StringVar(&installStorageRoot, "storage-root", config.DefaultStorageRoot, "storage root directory")

	installCmd.AddCommand(installConfigCmd)
	installCmd.AddCommand(installDatabaseCmd)
	installCmd.AddCommand(installSeedCmd)
}

// migrationsFS exposes the embedded .sql files at the root of the FS, as
// the migration runner expects.
func migrationsFS() (fs.FS, error) {
	return fs.Sub(migrations.MigrationsFS, "migrations")
}
