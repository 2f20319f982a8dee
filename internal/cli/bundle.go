package cli

import (
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/c3crawl/internal/bundle"
	"github.com/danieljhkim/c3crawl/internal/config"
	"github.com/danieljhkim/c3crawl/internal/engine"
)

// progressSteps is the resolution of the bundle progress bar.
const progressSteps = 1000

func newBundleCommand(ctx *commandContext) *cobra.Command {
	bundleCmd := &cobra.Command{
		Use:   "bundle",
		Short: "Open and export zipped project bundles",
		Long: `Bundles (` + bundle.Ext + `) are zip archives of a whole project directory.
"bundle open" extracts one into the bundle cache so the other commands can
run against it with --project; "bundle export" packs a directory back up.`,
	}
	bundleCmd.AddCommand(newBundleOpenCommand(ctx), newBundleExportCommand(ctx))
	return bundleCmd
}

func newBundleOpenCommand(ctx *commandContext) *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "open <file" + bundle.Ext + ">",
		Short: "Extract a bundle and print its project root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.newEngine(cmd)
			if err != nil {
				return err
			}
			archive, err := absPath(args[0])
			if err != nil {
				return err
			}
			if dest != "" {
				if dest, err = absPath(dest); err != nil {
					return err
				}
			}

			bar, onProgress := newProgress(cmd.ErrOrStderr(), "extracting", ctx.jsonOutput)
			result, err := eng.OpenBundle(cmd.Context(), &engine.OpenBundleRequest{
				ArchivePath: archive,
				DestDir:     dest,
				OnProgress:  onProgress,
			})
			finishProgress(bar)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput {
				return outputJSON(out, result)
			}

			PrintSuccess(out, "Opened "+args[0])
			PrintLabelValue(out, "Project", result.ProjectRoot)
			PrintLabelValue(out, "Extracted", PrintCount(result.Stats.Files, "file", "files")+", "+humanize.Bytes(uint64(result.Stats.Bytes)))
			if result.Stats.Skipped > 0 {
				PrintLabelValue(out, "Kept existing", PrintCount(result.Stats.Skipped, "file", "files"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "Extract into this directory instead of the bundle cache")
	return cmd
}

func newBundleExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir> [out" + bundle.Ext + "]",
		Short: "Pack a project directory into a bundle",
		Long: `Pack a project directory into a bundle. Without an output path the bundle
is written next to the directory as <dir>-YYYYMMDD-HHMMSS` + bundle.Ext + `.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.newEngine(cmd)
			if err != nil {
				return err
			}
			root, err := absPath(args[0])
			if err != nil {
				return err
			}
			var archive string
			if len(args) == 2 {
				if archive, err = absPath(args[1]); err != nil {
					return err
				}
			}

			bar, onProgress := newProgress(cmd.ErrOrStderr(), "packing", ctx.jsonOutput)
			result, err := eng.ExportBundle(cmd.Context(), &engine.ExportBundleRequest{
				ProjectRoot: root,
				ArchivePath: archive,
				OnProgress:  onProgress,
			})
			finishProgress(bar)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput {
				return outputJSON(out, result)
			}

			PrintSuccess(out, "Exported "+result.ArchivePath)
			PrintLabelValue(out, "Packed", PrintCount(result.Stats.Files, "file", "files")+", "+humanize.Bytes(uint64(result.Stats.Bytes)))
			return nil
		},
	}
}

// newProgress returns a progress bar on interactive terminals. Pipes and
// JSON output get no bar and a nil callback.
func newProgress(w io.Writer, description string, quiet bool) (*progressbar.ProgressBar, bundle.Progress) {
	if quiet || !isTerminal(w) {
		return nil, nil
	}
	bar := progressbar.NewOptions(progressSteps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
	return bar, func(fraction float64, current string) {
		_ = bar.Set(int(fraction * progressSteps))
		if current != "" {
			bar.Describe(description + " " + current)
		}
	}
}

func finishProgress(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}

func absPath(p string) (string, error) {
	expanded, err := config.ExpandPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}
