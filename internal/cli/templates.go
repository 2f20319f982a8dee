package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/c3crawl/internal/engine"
)

func newTemplatesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List template definitions across all layouts",
		Long: `Scan every layout in the manifest and list the instances that define a
template. Layouts that are missing or unreadable are reported as warnings and
skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := ctx.projectRoot()
			if err != nil {
				return err
			}
			eng, err := ctx.newEngine(cmd)
			if err != nil {
				return err
			}

			result, err := eng.BuildRegistry(cmd.Context(), &engine.RegistryRequest{ProjectRoot: root})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput {
				return outputJSON(out, result)
			}

			PrintSection(out, "Templates")
			if len(result.Templates) == 0 {
				PrintEmptyState(out, "No templates found")
			} else {
				rows := make([][]string, 0, len(result.Templates))
				for _, def := range result.Templates {
					rows = append(rows, []string{def.Name, def.ObjectType, def.LayoutName, def.LayoutPath})
				}
				PrintTable(out, []string{"Template", "Type", "Layout", "Path"}, rows)
			}
			PrintInfo(out, "Scanned "+PrintCount(result.Scanned, "layout", "layouts"))
			printWarnings(out, result.Warnings)
			return nil
		},
	}
}
