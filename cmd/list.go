package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"squeeze/internal/assets"
	"squeeze/internal/config"
	"squeeze/internal/processor"
	"squeeze/internal/tui"
)

var listFlags runFlags

var listCmd = &cobra.Command{
	Use:   "list -i <path> [flags]",
	Short: "Show which files optimize would touch, without modifying anything",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		mode, err := assets.ParseMode(listFlags.mode)
		if err != nil {
			return err
		}

		plan, err := processor.BuildPlan(processor.Options{
			Mode:             mode,
			InputPath:        listFlags.input,
			Exclude:          listFlags.exclude,
			IncludeRootFiles: listFlags.includeRootFiles,
		}, cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		sections := []struct {
			title string
			paths []string
		}{
			{assets.StyleOrScript.String(), plan.Groups.Text},
			{assets.Image.String(), plan.Groups.Images},
			{assets.Ignored.String(), plan.Groups.Ignored},
			{"excluded", plan.Excluded},
		}
		for i, section := range sections {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s\n", listHeaderStyle.Render(fmt.Sprintf("%s (%d)", section.title, len(section.paths))))
			if len(section.paths) == 0 {
				fmt.Fprintf(out, "  %s %s\n", listBulletStyle.Render("-"), listDimStyle.Render("none"))
				continue
			}
			for _, p := range section.paths {
				fmt.Fprintf(out, "  %s %s\n", listBulletStyle.Render("-"), listValueStyle.Render(p))
			}
		}
		for _, fe := range plan.ListingErrors {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", listWarnStyle.Render("unreadable:"), fe.Error())
		}
		return nil
	},
}

var (
	listHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	listValueStyle  = lipgloss.NewStyle().Foreground(tui.ColorInk)
	listDimStyle    = lipgloss.NewStyle().Foreground(tui.ColorDim)
	listBulletStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	listWarnStyle   = lipgloss.NewStyle().Foreground(tui.ColorWarn)
)

func init() {
	bindRunFlags(listCmd, &listFlags)
	_ = listCmd.MarkFlagRequired("inputpath")
	rootCmd.AddCommand(listCmd)
}
