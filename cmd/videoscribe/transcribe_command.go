package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"videoscribe/internal/config"
	"videoscribe/internal/download"
	"videoscribe/internal/history"
	"videoscribe/internal/subtitle"
	"videoscribe/internal/transcribe"
)

type transcribeOptions struct {
	output       string
	format       string
	languageHint string
	device       string
	maxLengthS   float64
	batchSize    int
	keepDownload bool
}

func newTranscribeCommand(global *globalOptions) *cobra.Command {
	opts := &transcribeOptions{}

	cmd := &cobra.Command{
		Use:   "transcribe <source>",
		Short: "Transcribe a media file or video URL",
		Long: "Transcribe extracts the audio track from a local media file or a video URL,\n" +
			"runs speech recognition on the selected compute device, and writes the\n" +
			"transcript in the requested subtitle format.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, global, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Transcript output path (default: <source>_transcription.<ext>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: text, srt, vtt or json")
	cmd.Flags().StringVarP(&opts.languageHint, "language", "l", "", "Language hint (e.g. en, zh, ja) or auto")
	cmd.Flags().StringVar(&opts.device, "device", "", "Compute device: auto, cuda, mps, xpu or cpu")
	cmd.Flags().Float64Var(&opts.maxLengthS, "max-length", 0, "Maximum subtitle segment length in seconds")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Recognition batch size (default: device heuristic)")
	cmd.Flags().BoolVar(&opts.keepDownload, "keep-download", false, "Keep the downloaded audio file for URL sources")

	return cmd
}

func runTranscribe(cmd *cobra.Command, global *globalOptions, opts *transcribeOptions, source string) error {
	cfg, err := loadConfiguration(global)
	if err != nil {
		return err
	}

	zapLogger, err := newCommandLogger(cfg, global)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	formatName := opts.format
	if formatName == "" {
		formatName = cfg.GetOutputFormat()
	}
	format, err := subtitle.ParseFormat(formatName)
	if err != nil {
		return err
	}

	localSource, remote, cleanup, err := resolveSource(ctx, zapLogger, cfg, opts, source)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline := transcribe.NewPipeline(cfg, zapLogger)
	result, runErr := pipeline.Transcribe(ctx, transcribe.Request{
		Source:     localSource,
		Language:   opts.languageHint,
		Device:     opts.device,
		Format:     format,
		MaxLengthS: opts.maxLengthS,
		BatchSize:  opts.batchSize,
	})

	outputPath := opts.output
	if outputPath == "" {
		outputPath = transcribe.DefaultOutputPath(localSource, format)
		if remote {
			// Downloaded audio lives in a temp directory, keep the
			// transcript in the working directory instead.
			outputPath = filepath.Base(outputPath)
		}
	}

	recordHistory(zapLogger, cfg, result, source, format, outputPath)

	if runErr != nil {
		if format == subtitle.FormatJSON && result != nil {
			if rendered, jsonErr := subtitle.JSON(result.Record()); jsonErr == nil {
				fmt.Fprintln(cmd.OutOrStdout(), rendered)
			}
		}
		return runErr
	}

	if err := transcribe.WriteOutput(outputPath, result.Formatted); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Transcript written to %s\n", outputPath)
	fmt.Fprintf(out, "  device:   %s\n", result.Device)
	fmt.Fprintf(out, "  language: %s\n", result.Language)
	fmt.Fprintf(out, "  duration: %.1fs\n", result.DurationS)
	fmt.Fprintf(out, "  segments: %d\n", len(result.Segments))
	return nil
}

// resolveSource downloads the audio track for URL sources and returns
// a local file path. Local paths pass through untouched. The returned
// cleanup removes the temp download once the run finishes, unless
// --keep-download was given.
func resolveSource(ctx context.Context, zapLogger *zap.Logger, cfg *config.Configuration, opts *transcribeOptions, source string) (string, bool, func(), error) {
	noop := func() {}
	if !download.IsRemoteSource(source) {
		return source, false, noop, nil
	}

	dl := download.NewDownloader(zapLogger, cfg.GetYtDlpPath())
	if err := dl.CheckAvailable(ctx); err != nil {
		return "", true, noop, err
	}

	info, err := dl.GetInfo(ctx, source)
	if err != nil {
		return "", true, noop, err
	}
	zapLogger.Info("downloading audio track",
		zap.String("title", info.Title),
		zap.String("uploader", info.Uploader),
		zap.Float64("duration_s", info.Duration))

	downloadDir, err := os.MkdirTemp("", "videoscribe-download-")
	if err != nil {
		return "", true, noop, fmt.Errorf("failed to create download directory: %w", err)
	}

	localPath, err := dl.DownloadAudio(ctx, source, downloadDir)
	if err != nil {
		os.RemoveAll(downloadDir)
		return "", true, noop, err
	}

	if opts.keepDownload {
		kept := filepath.Base(localPath)
		if err := os.Rename(localPath, kept); err == nil {
			localPath = kept
			os.RemoveAll(downloadDir)
		}
		return localPath, true, noop, nil
	}

	return localPath, true, func() { os.RemoveAll(downloadDir) }, nil
}

// recordHistory persists the run outcome when a history database is
// configured. History failures never fail the transcription itself.
func recordHistory(zapLogger *zap.Logger, cfg *config.Configuration, result *transcribe.Result, source string, format subtitle.Format, outputPath string) {
	historyPath := cfg.GetHistoryPath()
	if historyPath == "" || result == nil {
		return
	}

	store, err := history.Open(historyPath)
	if err != nil {
		zapLogger.Warn("failed to open history store", zap.Error(err))
		return
	}
	defer store.Close()

	entry := history.Entry{
		RunID:        result.RunID,
		Source:       source,
		Language:     result.Language,
		Format:       string(format),
		Device:       string(result.Device),
		DurationS:    result.DurationS,
		SegmentCount: len(result.Segments),
		Success:      result.Success,
	}
	if result.Success {
		entry.OutputPath = outputPath
	}
	if result.Err != nil {
		entry.ErrorKind = string(result.Err.Kind)
	}

	// A cancelled run still gets recorded, so use a fresh context.
	if _, err := store.Record(context.Background(), entry); err != nil {
		zapLogger.Warn("failed to record run history", zap.Error(err))
	}
}
