package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/asteroid-belt/eveuniverse/internal/schema"
	"github.com/asteroid-belt/eveuniverse/internal/syncer"
)

var (
	getRefresh  bool
	getChildren bool
	getSections []string
)

var getCmd = &cobra.Command{
	Use:   "get <kind> <id>",
	Short: "Load one record and print it",
	Long: `Load one record, creating it from ESI when missing, and print it.

Kinds are given as type names (EveSolarSystem) or in snake case
(solar_system).

Examples:
  # Load Jita
  eveuniverse get solar_system 30000142

  # Reload a type with its dogma attributes and effects
  eveuniverse get type 603 --refresh --section dogmas

  # Load a constellation and all its systems
  eveuniverse get constellation 20000020 --children`,
	Args: cobra.ExactArgs(2),
	RunE: runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getRefresh, "refresh", false, "Fetch and apply the record even if it exists locally")
	getCmd.Flags().BoolVar(&getChildren, "children", false, "Also load child records inline")
	getCmd.Flags().StringSliceVar(&getSections, "section", nil, "Optional section to load (repeatable)")
}

func runGet(cmd *cobra.Command, args []string) error {
	kind, err := schema.ParseKind(args[0])
	if err != nil {
		return err
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}

	req := syncer.Request{
		IncludeChildren: getChildren,
		WaitForChildren: true,
		Sections:        getSections,
		Force:           getRefresh,
	}
	var res *syncer.Result
	if getRefresh {
		res, err = app.Syncer.UpdateOrCreate(cmd.Context(), kind, id, req)
	} else {
		res, err = app.Syncer.GetOrCreate(cmd.Context(), kind, id, req)
	}
	if err != nil {
		return err
	}

	d, _ := app.Syncer.Registry().Lookup(kind)
	record, err := app.DB.Record(d.Table, id)
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	out := cmd.OutOrStdout()
	status := "loaded"
	if res.Created {
		status = "created"
	}
	fmt.Fprintf(out, "%s %d %s\n", res.Kind, res.ID, status)
	if len(res.Sections) > 0 {
		fmt.Fprintf(out, "Sections: %s\n", strings.Join(res.Sections, ", "))
	}
	fmt.Fprintln(out, string(body))
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
