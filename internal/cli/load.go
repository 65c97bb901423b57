package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/asteroid-belt/eveuniverse/internal/models"
	"github.com/asteroid-belt/eveuniverse/internal/schema"
	"github.com/asteroid-belt/eveuniverse/internal/syncer"
)

var (
	loadForce bool
	loadWait  bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the whole map",
	Long: `Load every region together with its constellations and solar systems.

Sections switched on in the configuration (planets, stargates, stations,
...) are loaded along with each solar system. Children are handed to
background workers; the command returns once all of them are done.

Examples:
  # Load the map after confirming
  eveuniverse load

  # Load without confirmation, each region in one go
  eveuniverse load --force --wait`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

var (
	loadTypesForce      bool
	loadTypesCategories []int64
	loadTypesGroups     []int64
	loadTypesTypes      []int64
)

var loadTypesCmd = &cobra.Command{
	Use:   "load-types",
	Short: "Load categories, groups and types",
	Long: `Load inventory categories, groups and types by id.

Categories are loaded with their groups and types, groups with their
types, and types on their own.

Examples:
  # Load all ships
  eveuniverse load-types --category-id 6

  # Load one group and two types
  eveuniverse load-types --group-id 18 --type-id 34 --type-id 35`,
	Args: cobra.NoArgs,
	RunE: runLoadTypes,
}

func init() {
	loadCmd.Flags().BoolVarP(&loadForce, "force", "f", false, "Skip confirmation prompt")
	loadCmd.Flags().BoolVar(&loadWait, "wait", false, "Load each region's children inline instead of in the background")

	loadTypesCmd.Flags().BoolVarP(&loadTypesForce, "force", "f", false, "Skip confirmation prompt")
	loadTypesCmd.Flags().Int64SliceVar(&loadTypesCategories, "category-id", nil, "Category id to load with its groups and types (repeatable)")
	loadTypesCmd.Flags().Int64SliceVar(&loadTypesGroups, "group-id", nil, "Group id to load with its types (repeatable)")
	loadTypesCmd.Flags().Int64SliceVar(&loadTypesTypes, "type-id", nil, "Type id to load (repeatable)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if !loadForce {
		fmt.Fprintln(out, "\nYou are about to load all regions, constellations and solar systems.")
		printExtraSections(cmd, schema.KindSolarSystem, schema.KindPlanet)
		if !confirm(cmd, "Are you sure?") {
			fmt.Fprintln(out, "Aborting.")
			return nil
		}
	}

	req := syncer.Request{IncludeChildren: true, WaitForChildren: loadWait}
	n, err := app.Syncer.LoadAll(cmd.Context(), schema.KindRegion, nil, req)
	if err != nil {
		return fmt.Errorf("load regions: %w", err)
	}
	fmt.Fprintf(out, "Loading %d regions\n", n)

	if err := drain(cmd); err != nil {
		return err
	}
	if err := app.DB.SetSyncTime(models.SyncMetaLastFullLoad, time.Now()); err != nil {
		return fmt.Errorf("record load time: %w", err)
	}
	fmt.Fprintln(out, "Map loaded.")
	return nil
}

func runLoadTypes(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(loadTypesCategories)+len(loadTypesGroups)+len(loadTypesTypes) == 0 {
		fmt.Fprintln(out, "No ids given. Use --category-id, --group-id or --type-id.")
		return nil
	}

	if !loadTypesForce {
		fmt.Fprintln(out, "\nYou are about to load:")
		printIDs(cmd, "Categories", loadTypesCategories)
		printIDs(cmd, "Groups", loadTypesGroups)
		printIDs(cmd, "Types", loadTypesTypes)
		printExtraSections(cmd, schema.KindType)
		if !confirm(cmd, "Are you sure?") {
			fmt.Fprintln(out, "Aborting.")
			return nil
		}
	}

	err := app.Syncer.LoadTypes(cmd.Context(), loadTypesCategories, loadTypesGroups, loadTypesTypes, syncer.Request{})
	if err != nil {
		return fmt.Errorf("load types: %w", err)
	}
	if err := drain(cmd); err != nil {
		return err
	}
	if err := app.DB.SetSyncTime(models.SyncMetaLastTypesLoad, time.Now()); err != nil {
		return fmt.Errorf("record load time: %w", err)
	}
	fmt.Fprintln(out, "Types loaded.")
	return nil
}

// printExtraSections lists the default-on sections the given kinds will
// load on top of their base records.
func printExtraSections(cmd *cobra.Command, kinds ...schema.Kind) {
	enabled := make(map[string]bool)
	for _, s := range app.Config.DefaultSections() {
		enabled[s] = true
	}
	var extra []string
	seen := make(map[string]bool)
	for _, kind := range kinds {
		d, ok := app.Syncer.Registry().Lookup(kind)
		if !ok {
			continue
		}
		for _, s := range d.OptionalSections() {
			if enabled[s] && !seen[s] {
				seen[s] = true
				extra = append(extra, s)
			}
		}
	}
	if len(extra) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "  Also loading: %s\n", strings.Join(extra, ", "))
	}
}

func printIDs(cmd *cobra.Command, label string, ids []int64) {
	if len(ids) == 0 {
		return
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", label, strings.Join(parts, ", "))
}
