package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xink-dev/xink/internal/build"
	"github.com/xink-dev/xink/internal/publish"
	"github.com/xink-dev/xink/pkg/manifest"
)

func publishCmd(flags *globalFlags) *cobra.Command {
	var (
		bucket    string
		prefix    string
		region    string
		endpoint  string
		prune     bool
		dryRun    bool
		skipBuild bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Build and upload the output directory to S3",
		Long: `Run a production build and upload the output directory to an S3
bucket. The manifest is uploaded last.

Credentials are read from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
AWS_SESSION_TOKEN. --endpoint targets S3-compatible stores.

Examples:
  xink publish --bucket=my-routes
  xink publish --bucket=my-routes --prefix=v2 --prune
  xink publish --endpoint=http://localhost:9000 --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadProject(flags)
			if err != nil {
				return err
			}
			if bucket != "" {
				cfg.Publish.Bucket = bucket
			}
			if prefix != "" {
				cfg.Publish.Prefix = prefix
			}
			if region != "" {
				cfg.Publish.Region = region
			}
			if endpoint != "" {
				cfg.Publish.Endpoint = endpoint
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !skipBuild {
				res, err := build.New(cfg, build.Options{Mode: manifest.Build, Logger: logger}).Build(ctx)
				if err != nil {
					return err
				}
				success("Built %d routes", len(res.Routes))
			}

			client, err := publish.NewClient(cfg.Publish)
			if err != nil {
				return err
			}

			res, err := publish.New(client, publish.Options{
				Bucket: cfg.Publish.Bucket,
				Prefix: cfg.Publish.Prefix,
				Prune:  prune,
				DryRun: dryRun,
				Logger: logger,
			}).Publish(ctx, cfg.OutputPath())
			if err != nil {
				return err
			}

			verb := "Uploaded"
			if dryRun {
				verb = "Would upload"
			}
			success("%s %d files (%d bytes) to s3://%s/%s", verb, len(res.Uploaded), res.Bytes, cfg.Publish.Bucket, cfg.Publish.Prefix)
			for _, key := range res.Deleted {
				info("deleted %s", key)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket (default from config)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix (default from config)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (default from config, then us-east-1)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Custom S3 endpoint URL")
	cmd.Flags().BoolVar(&prune, "prune", false, "Delete objects under the prefix that are not in the build")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be uploaded without uploading")
	cmd.Flags().BoolVar(&skipBuild, "skip-build", false, "Upload the existing output directory without rebuilding")

	return cmd
}
