package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"videoscribe/internal/device"
	"videoscribe/internal/language"
	"videoscribe/internal/media"
	"videoscribe/internal/subtitle"
)

func newLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported language hints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := []table.Row{{language.Auto, language.DisplayName(language.Auto)}}
			for _, code := range language.Supported() {
				rows = append(rows, table.Row{code, language.DisplayName(code)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(table.Row{"Code", "Language"}, rows))
			return nil
		},
	}
}

func newFormatsCommand() *cobra.Command {
	descriptions := map[subtitle.Format]string{
		subtitle.FormatText: "Plain text, all segments joined",
		subtitle.FormatSRT:  "SubRip subtitles with cue numbers",
		subtitle.FormatVTT:  "WebVTT subtitles",
		subtitle.FormatJSON: "Structured transcript record",
	}

	return &cobra.Command{
		Use:   "formats",
		Short: "List the supported output formats and media extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([]table.Row, 0, len(descriptions))
			for _, f := range []subtitle.Format{subtitle.FormatText, subtitle.FormatSRT, subtitle.FormatVTT, subtitle.FormatJSON} {
				rows = append(rows, table.Row{string(f), f.Extension(), descriptions[f]})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(table.Row{"Format", "Extension", "Description"}, rows))
			fmt.Fprintf(out, "Supported media extensions: %s\n", strings.Join(media.SupportedExtensions(), ", "))
			return nil
		},
	}
}

func newDevicesCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "Show compute device availability on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfiguration(global)
			if err != nil {
				return err
			}
			zapLogger, err := newCommandLogger(cfg, global)
			if err != nil {
				return err
			}
			defer zapLogger.Sync()

			available := device.NewSystemProbe(zapLogger).AvailableDevices()
			rows := make([]table.Row, 0, 4)
			for _, dev := range []device.Device{device.CUDA, device.MPS, device.XPU, device.CPU} {
				status := "no"
				if available[dev] {
					status = "yes"
				}
				rows = append(rows, table.Row{string(dev), status})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(table.Row{"Device", "Available"}, rows))
			return nil
		},
	}
}
