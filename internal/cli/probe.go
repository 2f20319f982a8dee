package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/c3crawl/internal/imageprobe"
)

type probeResult struct {
	Path   string `json:"path"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <image.png>",
		Short: "Print the pixel dimensions of a PNG image",
		Long: `Read the width and height from a PNG header. Only the first 24 bytes of the
file are read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, height, err := imageprobe.Dimensions(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput {
				return outputJSON(out, probeResult{Path: args[0], Width: width, Height: height})
			}
			_, err = fmt.Fprintf(out, "%dx%d\n", width, height)
			return err
		},
	}
}
