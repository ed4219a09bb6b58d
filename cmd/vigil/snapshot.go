package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/vigil-dev/vigil/internal/config"
	"github.com/vigil-dev/vigil/pkg/snapshot"
	"github.com/vigil-dev/vigil/pkg/source"
)

func snapshotCmd() *cobra.Command {
	var (
		dir    string
		bucket string
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture the record directory's current state",
		Long: `Snapshot loads every <type>.json file in the record directory,
captures the full wrapped state, and writes it as JSON to stdout.
With an S3 bucket configured (vigil.json or --bucket) the snapshot is
archived there instead and its object URL printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.Source.Dir = dir
			}
			if bucket != "" {
				cfg.Snapshot.Bucket = bucket
			}
			if prefix != "" {
				cfg.Snapshot.Prefix = prefix
			}
			return runSnapshot(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "record directory (default from vigil.json)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket to archive to (default from vigil.json)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "S3 key prefix (default from vigil.json)")

	return cmd
}

func runSnapshot(ctx context.Context, cfg config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	src, err := source.OpenDir(cfg.Source.Dir, source.WithLogger(logger))
	if err != nil {
		return err
	}
	defer src.Close()

	snap := snapshot.Capture(src, src, src)

	if cfg.Snapshot.Bucket == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: aws config: %w", err)
	}
	sink := snapshot.NewS3Sink(s3.NewFromConfig(awsCfg), cfg.Snapshot.Bucket, cfg.Snapshot.Prefix)
	ref, err := sink.Store(ctx, snap)
	if err != nil {
		return err
	}
	fmt.Println(ref)
	return nil
}
