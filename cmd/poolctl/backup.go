package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Upload the pool file as a new S3 snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			mirror, err := openMirror(cmd, cfg)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(cfg.PoolFile)
			if err != nil {
				return fmt.Errorf("failed to read pool file: %w", err)
			}
			key, err := mirror.Upload(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded s3://%s/%s\n", mirror.Bucket(), key)
			return nil
		},
	}
}

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Replace the pool file with an S3 snapshot",
		Long:  "restore downloads a snapshot (latest.json unless --key is given) and writes it over the pool file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, _ := cmd.Flags().GetString("key")
			p, cfg, err := openPool(cmd)
			if err != nil {
				return err
			}
			mirror, err := openMirror(cmd, cfg)
			if err != nil {
				return err
			}

			var data []byte
			if key == "" {
				key = mirror.LatestKey()
				data, err = mirror.Latest(cmd.Context())
			} else {
				data, err = mirror.Get(cmd.Context(), key)
			}
			if err != nil {
				return err
			}

			if err := p.Store().Restore(data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", cfg.PoolFile, key)
			return nil
		},
	}
	cmd.Flags().String("key", "", "Snapshot key or file name under snapshots/")
	return cmd
}

func newSnapshotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots",
		Short: "List pool snapshots in S3",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			mirror, err := openMirror(cmd, cfg)
			if err != nil {
				return err
			}

			keys, err := mirror.ListSnapshots(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
