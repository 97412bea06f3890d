package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/kyiku/caritas-study-back/internal/config"
	"github.com/kyiku/caritas-study-back/internal/logger"
	"github.com/kyiku/caritas-study-back/internal/pool"
	"github.com/kyiku/caritas-study-back/internal/storage"
)

// newMirror builds the S3 snapshot mirror. Replaced in tests.
var newMirror = func(ctx context.Context, cfg *config.Config) (*storage.S3Mirror, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := storage.NewS3Adapter(s3.NewFromConfig(awsCfg), cfg.PoolBackupBucket)
	return storage.NewS3Mirror(client, cfg.PoolBackupBucket, cfg.PoolBackupPrefix), nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "poolctl",
		Short:         "Problem pool maintenance tool",
		Long:          "poolctl inspects, imports, exports and backs up the problem pool file used by the study server.",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("file", "", "Path to the pool file (overrides POOL_FILE env var)")
	root.PersistentFlags().Bool("verbose", false, "Log pool operations to stderr")

	root.AddCommand(newStatsCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newBackupCmd())
	root.AddCommand(newRestoreCmd())
	root.AddCommand(newSnapshotsCmd())
	return root
}

// loadConfig reads the environment and applies the --file flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("file"); p != "" {
		cfg.PoolFile = p
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command) *logger.Logger {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		if l, err := logger.New("development"); err == nil {
			return l
		}
	}
	return logger.NewNop()
}

// openPool returns the pool for the configured file.
func openPool(cmd *cobra.Command) (*pool.Pool, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	log := newLogger(cmd)
	return pool.New(pool.NewStore(cfg.PoolFile, log), log), cfg, nil
}

// openMirror returns the S3 mirror, or an error when no bucket is set.
func openMirror(cmd *cobra.Command, cfg *config.Config) (*storage.S3Mirror, error) {
	if !cfg.BackupEnabled() {
		return nil, fmt.Errorf("POOL_BACKUP_BUCKET is not set")
	}
	return newMirror(cmd.Context(), cfg)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
