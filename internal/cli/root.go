package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	// Colors for help output sections
	groupTitleColor   = color.New(color.FgCyan, color.Bold)
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// Command group IDs.
const (
	groupInspect = "project-inspection"
	groupConvert = "replica-conversion"
	groupBundles = "bundles-assets"
	groupTooling = "cli-tooling"
)

// SetVersion sets the version reported by --version and the version command.
func SetVersion(v string) {
	if v == "" {
		return
	}
	version = v
}

// customHelpFunc returns a custom help function that colors group titles
func customHelpFunc(cmd *cobra.Command, args []string) {
	var help strings.Builder

	if cmd.Long != "" {
		help.WriteString(cmd.Long)
		help.WriteString("\n\n")
	} else if cmd.Short != "" {
		help.WriteString(cmd.Short)
		help.WriteString("\n\n")
	}

	help.WriteString(sectionTitleColor.Sprint("Usage:"))
	help.WriteString("\n")
	fmt.Fprintf(&help, "  %s\n\n", cmd.UseLine())

	for _, group := range cmd.Groups() {
		help.WriteString(groupTitleColor.Sprint(group.Title))
		help.WriteString("\n")

		for _, c := range cmd.Commands() {
			if c.GroupID == group.ID && !c.Hidden {
				fmt.Fprintf(&help, "  %-11s %s\n", c.Name(), c.Short)
			}
		}
		help.WriteString("\n")
	}

	// Ungrouped subcommands (e.g. convert uid/type)
	hasUngrouped := false
	for _, c := range cmd.Commands() {
		if c.GroupID == "" && !c.Hidden {
			if !hasUngrouped {
				title := "Additional Commands:"
				if len(cmd.Groups()) == 0 {
					title = "Commands:"
				}
				help.WriteString(sectionTitleColor.Sprint(title))
				help.WriteString("\n")
				hasUngrouped = true
			}
			fmt.Fprintf(&help, "  %-11s %s\n", c.Name(), c.Short)
		}
	}
	if hasUngrouped {
		help.WriteString("\n")
	}

	if cmd.HasAvailableLocalFlags() || cmd.HasAvailableInheritedFlags() {
		help.WriteString(sectionTitleColor.Sprint("Flags:"))
		help.WriteString("\n")
		help.WriteString(cmd.LocalFlags().FlagUsages())
		help.WriteString(cmd.InheritedFlags().FlagUsages())
		help.WriteString("\n")
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(&help, "Use \"%s [command] --help\" for more information about a command.\n", cmd.CommandPath())
	}

	fmt.Fprint(cmd.OutOrStdout(), help.String())
}

// newRootCommand builds the full command tree. Each call returns fresh flag
// state.
func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:     "c3crawl",
		Version: version,
		Short:   "Template and replica consistency tool for game project layouts",
		Long: `c3crawl scans a game project's layouts for template definitions and keeps
replica instances bound to them.

It reads the project manifest, lists layouts, templates and instances, and
rewrites instances into replicas of a named template, either by uid within
one layout or by object type across the whole project.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.SetHelpFunc(customHelpFunc)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.projectFlag, "project", "p", "", "Project root directory (default: current directory)")
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	flags.BoolVar(&ctx.jsonOutput, "json", false, "Output in JSON format")
	flags.StringVar(&ctx.logLevelFlag, "log-level", "", "Log level override (debug, info, warn, error)")
	flags.StringVar(&ctx.logFormatFlag, "log-format", "", "Log format override (console, json)")

	rootCmd.AddGroup(&cobra.Group{ID: groupInspect, Title: "Project Inspection:"})
	rootCmd.AddGroup(&cobra.Group{ID: groupConvert, Title: "Replica Conversion:"})
	rootCmd.AddGroup(&cobra.Group{ID: groupBundles, Title: "Bundles & Assets:"})
	rootCmd.AddGroup(&cobra.Group{ID: groupTooling, Title: "CLI & Tooling:"})

	// Project Inspection commands
	for _, cmd := range []*cobra.Command{
		newLayoutsCommand(ctx),
		newTemplatesCommand(ctx),
		newInstancesCommand(ctx),
	} {
		cmd.GroupID = groupInspect
		rootCmd.AddCommand(cmd)
	}

	// Replica Conversion commands
	convertCmd := newConvertCommand(ctx)
	convertCmd.GroupID = groupConvert
	rootCmd.AddCommand(convertCmd)

	// Bundles & Assets commands
	bundleCmd := newBundleCommand(ctx)
	bundleCmd.GroupID = groupBundles
	probeCmd := newProbeCommand(ctx)
	probeCmd.GroupID = groupBundles
	rootCmd.AddCommand(bundleCmd, probeCmd)

	// CLI & Tooling commands
	rootCmd.AddCommand(&cobra.Command{
		Use:     "version",
		Short:   "Print the c3crawl CLI version",
		Args:    cobra.NoArgs,
		GroupID: groupTooling,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	rootCmd.SetHelpCommand(&cobra.Command{
		Use:     "help [command]",
		Short:   "Help about any command",
		GroupID: groupTooling,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _, err := cmd.Root().Find(args)
			if err != nil || target == nil {
				target = cmd.Root()
			}
			return target.Help()
		},
	})

	rootCmd.AddCommand(newCompletionCommand(rootCmd))
	return rootCmd
}

func newCompletionCommand(rootCmd *cobra.Command) *cobra.Command {
	completionCmd := &cobra.Command{
		Use:     "completion",
		Short:   "Generate the autocompletion script for the specified shell",
		GroupID: groupTooling,
		Long: `Generate the autocompletion script for c3crawl for the specified shell.
See each sub-command's help for details on how to use the generated script.`,
	}
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "bash",
		Short:                 "Generate the autocompletion script for bash",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "zsh",
		Short:                 "Generate the autocompletion script for zsh",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "fish",
		Short:                 "Generate the autocompletion script for fish",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "powershell",
		Short:                 "Generate the autocompletion script for powershell",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		},
	})
	return completionCmd
}

// Execute executes the root command.
func Execute(ctx context.Context) error {
	return newRootCommand().ExecuteContext(ctx)
}
