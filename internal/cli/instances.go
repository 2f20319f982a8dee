package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/c3crawl/internal/engine"
)

func newInstancesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "instances <layout.json>",
		Short: "List the instances of one layout",
		Long: `List every instance of a layout with its uid, type, position, layer and
template role. The layout path is relative to the project root.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := ctx.projectRoot()
			if err != nil {
				return err
			}
			eng, err := ctx.newEngine(cmd)
			if err != nil {
				return err
			}

			result, err := eng.ListInstances(cmd.Context(), &engine.InstancesRequest{
				ProjectRoot: root,
				LayoutPath:  args[0],
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput {
				return outputJSON(out, result)
			}

			PrintSection(out, "Instances in "+result.LayoutPath)
			if len(result.Instances) == 0 {
				PrintEmptyState(out, "No instances")
				return nil
			}
			rows := make([][]string, 0, len(result.Instances))
			for _, inst := range result.Instances {
				template := inst.TemplateName
				if inst.SourceTemplateName != "" {
					template = inst.SourceTemplateName
				}
				rows = append(rows, []string{
					strconv.FormatUint(uint64(inst.UID), 10),
					inst.Type,
					strconv.FormatFloat(inst.X, 'f', -1, 64),
					strconv.FormatFloat(inst.Y, 'f', -1, 64),
					inst.Layer,
					inst.Role,
					template,
				})
			}
			PrintTable(out,
				[]string{"UID", "Type", "X", "Y", "Layer", "Role", "Template"},
				rows,
				alignRight, alignLeft, alignRight, alignRight,
			)
			return nil
		},
	}
}
