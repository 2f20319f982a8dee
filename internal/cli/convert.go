package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/c3crawl/internal/engine"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Rebind instances as replicas of a template",
		Long: `Rewrite instances into replicas of a named template.

Use "convert uid" to target specific instances of one layout, or "convert type"
to convert every instance of an object type across the project.`,
	}
	convertCmd.AddCommand(newConvertUIDCommand(ctx), newConvertTypeCommand(ctx))
	return convertCmd
}

func newConvertUIDCommand(ctx *commandContext) *cobra.Command {
	var uids []uint
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "uid <layout.json> <template> --uid N [--uid N ...]",
		Short: "Convert instances of one layout by uid",
		Long: `Convert the instances of one layout whose uid is listed into replicas of
<template>, whatever their current role. The layout is rewritten even when no
uid matched.`,
		Example: `  c3crawl convert uid layouts/level1.json EnemyBase --uid 2 --uid 5
  c3crawl convert uid layouts/level1.json EnemyBase --uid 2,5 --dry-run`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := toUIDs(uids)
			if err != nil {
				return err
			}
			root, err := ctx.projectRoot()
			if err != nil {
				return err
			}
			eng, err := ctx.newEngine(cmd)
			if err != nil {
				return err
			}

			result, err := eng.ConvertByUID(cmd.Context(), &engine.ConvertByUIDRequest{
				ProjectRoot:  root,
				LayoutPath:   args[0],
				UIDs:         targets,
				TemplateName: args[1],
				DryRun:       dryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput {
				return outputJSON(out, result)
			}

			msg := fmt.Sprintf("Converted %s in %s to replicas of %q",
				PrintCount(result.Modified, "instance", "instances"), result.LayoutPath, args[1])
			if dryRun {
				PrintInfo(out, "[dry run] "+msg)
			} else {
				PrintSuccess(out, msg)
			}
			printWarnings(out, result.Warnings)
			return nil
		},
	}

	cmd.Flags().UintSliceVar(&uids, "uid", nil, "Instance uid to convert (repeatable or comma-separated)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Count matches without writing the layout")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}

func newConvertTypeCommand(ctx *commandContext) *cobra.Command {
	var layouts []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "type <objectType> <template>",
		Short: "Convert every instance of an object type across layouts",
		Long: `Convert every instance of <objectType> into a replica of <template> across
all layouts of the manifest, or only those given with --layout.

Instances that already define a template are left alone. Layouts without a
match are not rewritten. A layout that fails to write does not stop the
others; the command exits non-zero after reporting the partial result.`,
		Example: `  c3crawl convert type Enemy EnemyBase
  c3crawl convert type Enemy EnemyBase --layout layouts/level1.json --layout layouts/level2.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := ctx.projectRoot()
			if err != nil {
				return err
			}
			eng, err := ctx.newEngine(cmd)
			if err != nil {
				return err
			}

			req := &engine.ConvertByTypeRequest{
				ProjectRoot:  root,
				ObjectType:   args[0],
				TemplateName: args[1],
				DryRun:       dryRun,
			}
			if cmd.Flags().Changed("layout") {
				req.LayoutPaths = layouts
			}

			result, runErr := eng.ConvertByType(cmd.Context(), req)
			if result == nil {
				return runErr
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput {
				if err := outputJSON(out, result); err != nil {
					return err
				}
				return runErr
			}

			if len(result.Layouts) > 0 {
				rows := make([][]string, 0, len(result.Layouts))
				for _, change := range result.Layouts {
					written := "no"
					if change.Written {
						written = "yes"
					}
					rows = append(rows, []string{
						change.Path,
						fmt.Sprint(change.Converted),
						fmt.Sprint(change.SkippedTemplates),
						written,
					})
				}
				PrintSection(out, "Layouts")
				PrintTable(out, []string{"Layout", "Converted", "Templates kept", "Written"}, rows,
					alignLeft, alignRight, alignRight)
				fmt.Fprintln(out)
			}

			if runErr != nil {
				PrintWarning(out, result.Summary)
			} else {
				PrintSuccess(out, result.Summary)
			}
			printWarnings(out, result.Warnings)
			return runErr
		},
	}

	cmd.Flags().StringSliceVar(&layouts, "layout", nil, "Layout path to include (repeatable; default: all manifest layouts)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Count matches without writing any layout")
	return cmd
}

// toUIDs narrows flag values to the uid range.
func toUIDs(values []uint) ([]uint32, error) {
	out := make([]uint32, 0, len(values))
	for _, v := range values {
		if v > math.MaxUint32 {
			return nil, fmt.Errorf("%w: uid %d out of range", engine.ErrValidation, v)
		}
		out = append(out, uint32(v))
	}
	return out, nil
}
