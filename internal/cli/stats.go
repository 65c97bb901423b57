package cli

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var statsFailed int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local record counts",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsFailed, "failed", 5, "Number of recent failed tasks to list")
}

func runStats(cmd *cobra.Command, args []string) error {
	tables := app.Syncer.Registry().Tables()
	stats, err := app.DB.GetStats(tables)
	if err != nil {
		return err
	}

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B6B6B"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render("Records"))
	for _, table := range tables {
		fmt.Fprintf(out, "  %s %d\n", labelStyle.Render(fmt.Sprintf("%-32s", table)), stats.Counts[table])
	}
	fmt.Fprintf(out, "  %s %d\n", labelStyle.Render(fmt.Sprintf("%-32s", "eve_entities")), stats.Entities)
	fmt.Fprintf(out, "\n%s %.1f MB\n", labelStyle.Render("Database size:"), float64(stats.DatabaseSizeBytes)/(1<<20))

	meta, err := app.DB.GetAllSyncMeta()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintln(out)
	for _, k := range keys {
		v := meta[k]
		if v == "" {
			v = "never"
		}
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-20s", k+":")), v)
	}

	if stats.FailedTasks == 0 {
		return nil
	}
	fmt.Fprintf(out, "\n%s\n", warnStyle.Render(fmt.Sprintf("Failed tasks: %d", stats.FailedTasks)))
	failed, err := app.DB.ListFailedTasks(statsFailed)
	if err != nil {
		return err
	}
	for _, t := range failed {
		fmt.Fprintf(out, "  %s %s %d: %s\n", t.FailedAt.Format("2006-01-02 15:04"), t.Kind, t.EntityID, t.Error)
	}
	return nil
}
