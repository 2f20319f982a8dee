package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/c3crawl/internal/engine"
)

func newLayoutsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List the layouts declared by the project manifest",
		Long: `Read the project manifest and list every layout it declares, in manifest
order. Entries whose file is not a .json layout are omitted.`,
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

			result, err := eng.Layouts(cmd.Context(), &engine.LayoutsRequest{ProjectRoot: root})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput {
				return outputJSON(out, result)
			}

			PrintSection(out, "Layouts")
			if len(result.Layouts) == 0 {
				PrintEmptyState(out, "No layouts declared in "+result.ManifestPath)
				return nil
			}
			rows := make([][]string, 0, len(result.Layouts))
			for _, entry := range result.Layouts {
				rows = append(rows, []string{entry.Name, entry.Path})
			}
			PrintTable(out, []string{"Name", "Path"}, rows)
			return nil
		},
	}
}
