package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asnlab/asninfo/pkg/asinfo"
	"github.com/asnlab/asninfo/pkg/config"
	"github.com/asnlab/asninfo/pkg/export"
	"github.com/asnlab/asninfo/pkg/logging"
	"github.com/asnlab/asninfo/pkg/provider"
	"github.com/asnlab/asninfo/pkg/upload"
)

var generateSimplified bool

// init wires the generate subcommand into the CLI.
func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&cfgFile, "config", "config.yaml", "Path to the configuration file")
	generateCmd.Flags().BoolVarP(&generateSimplified, "simplified", "s", false, "Export simplified records (implied for CSV)")
}

var generateCmd = &cobra.Command{
	Use:           "generate [path]",
	Short:         "Generate an ASN info dump file (JSON/JSONL/CSV) and optionally upload it",
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "./asninfo.jsonl"
		if len(args) == 1 {
			path = args[0]
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		baseLogger, err := logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		defer func() { _ = baseLogger.Sync() }()
		logger := logging.Component(baseLogger, "generate")

		format, err := export.DetectFormat(path)
		if err != nil {
			logger.Error("could not determine export format", zap.Error(err))
			return err
		}

		// CSV only ever carries the simplified schema.
		simplified := generateSimplified || format == export.FormatCSV
		mode := asinfo.ModeFull
		if simplified {
			mode = asinfo.ModeSimplified
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		logger.Info("loading ASN info data", zap.String("mode", string(mode)))
		p := provider.NewBGPKit(cfg.Provider, logging.Component(baseLogger, "provider"))
		snap, err := p.Fetch(ctx, mode)
		if err != nil {
			logger.Error("failed to load ASN info data", zap.Error(err))
			return err
		}

		logger.Info("writing ASN info data",
			zap.String("path", path),
			zap.String("format", string(format)),
			zap.Int("records", snap.Len()),
		)
		f, err := os.Create(path)
		if err != nil {
			logger.Error("could not create export file", zap.Error(err))
			return err
		}
		if err := export.Write(f, snap, format, simplified); err != nil {
			f.Close()
			logger.Error("export failed", zap.Error(err))
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close export file: %w", err)
		}

		if dest := os.Getenv("ASNINFO_UPLOAD_PATH"); dest != "" {
			if err := uploadExport(ctx, logger, dest, path); err != nil {
				return err
			}
		}

		logger.Info("asninfo export done")
		return nil
	},
}

// uploadExport pushes the export file to the configured S3/R2 destination and
// pings the heartbeat URL on success.
func uploadExport(ctx context.Context, logger *zap.Logger, dest, path string) error {
	bucket, key, err := upload.ParseDestination(dest)
	if err != nil {
		logger.Error("invalid upload destination", zap.Error(err))
		return err
	}

	uploader, err := upload.New(ctx, logger)
	if err != nil {
		logger.Error("S3 environment not usable, skipping upload", zap.Error(err))
		return err
	}
	if err := uploader.Upload(ctx, bucket, key, path); err != nil {
		logger.Error("failed to upload to destination", zap.String("destination", dest), zap.Error(err))
		return err
	}

	if heartbeatURL := os.Getenv("ASNINFO_HEARTBEAT_URL"); heartbeatURL != "" {
		logger.Info("sending heartbeat to configured URL")
		if err := upload.Heartbeat(ctx, heartbeatURL); err != nil {
			logger.Error("failed to send heartbeat", zap.Error(err))
			return err
		}
	}
	return nil
}
