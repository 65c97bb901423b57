package cli

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/asteroid-belt/eveuniverse/internal/models"
)

var purgeForce bool

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all local universe data",
	Long: `Delete every mirrored record from the local database.

This will:
  - Delete all regions, systems, types and related records
  - Delete resolved entity names and market prices
  - Clear the response cache

Units, sync metadata and the failed task ledger are kept.

Examples:
  # Purge after confirming
  eveuniverse purge

  # Purge with force (skip confirmation)
  eveuniverse purge --force`,
	Args: cobra.NoArgs,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().BoolVarP(&purgeForce, "force", "f", false, "Skip confirmation prompt")
}

func runPurge(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if !purgeForce {
		confirmed, err := showPurgeConfirmation(cmd)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(out, "Aborting.")
			return nil
		}
	}

	fmt.Fprintln(out, "\n[1/2] Removing from database...")
	removed, err := app.DB.Purge()
	if err != nil {
		return fmt.Errorf("purge database: %w", err)
	}
	var total int64
	for _, table := range slices.Sorted(maps.Keys(removed)) {
		if n := removed[table]; n > 0 {
			fmt.Fprintf(out, "      %-36s %d\n", table, n)
			total += n
		}
	}
	fmt.Fprintf(out, "      Deleted %d records\n", total)

	fmt.Fprintln(out, "\n[2/2] Clearing cache...")
	if err := app.Cache.Clear(); err != nil {
		fmt.Fprintf(out, "      Warning: failed to clear cache: %v\n", err)
	} else {
		fmt.Fprintln(out, "      Cleared cache")
	}

	if err := app.DB.SetSyncMeta(models.SyncMetaLastFullLoad, ""); err != nil {
		return fmt.Errorf("reset load time: %w", err)
	}
	if err := app.DB.SetSyncMeta(models.SyncMetaLastTypesLoad, ""); err != nil {
		return fmt.Errorf("reset load time: %w", err)
	}
	if err := app.DB.SetSyncMeta(models.SyncMetaLastPriceUpdate, ""); err != nil {
		return fmt.Errorf("reset price time: %w", err)
	}

	fmt.Fprintln(out, "\nLocal universe data purged.")
	return nil
}

// showPurgeConfirmation displays what would be deleted and asks to proceed.
func showPurgeConfirmation(cmd *cobra.Command) (bool, error) {
	out := cmd.OutOrStdout()
	stats, err := app.DB.GetStats(app.Syncer.Registry().Tables())
	if err != nil {
		return false, fmt.Errorf("read stats: %w", err)
	}
	var records int64
	for _, n := range stats.Counts {
		records += n
	}

	fmt.Fprintln(out, "\nYou are about to purge the local universe.")
	fmt.Fprintf(out, "  Records: %d\n", records)
	fmt.Fprintf(out, "  Entity names: %d\n", stats.Entities)
	if last, err := app.DB.GetSyncTime(models.SyncMetaLastFullLoad); err == nil && !last.IsZero() {
		fmt.Fprintf(out, "  Last full load: %s\n", last.Format(time.RFC3339))
	}
	return confirm(cmd, "Are you sure?"), nil
}
