package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asteroid-belt/eveuniverse/internal/schema"
	"github.com/asteroid-belt/eveuniverse/internal/syncer"
)

var loadAllCmd = &cobra.Command{
	Use:   "load-all <kind> [id]...",
	Short: "Load every record of one kind",
	Long: `Load every record listed by a kind's list endpoint, or only the
given ids among them.

Races, bloodlines, ancestries and factions come as one list and are stored
in a single pass. Other kinds are loaded one record at a time.

Examples:
  # Load all factions
  eveuniverse load-all faction

  # Load two graphics
  eveuniverse load-all graphic 20 21`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoadAll,
}

func runLoadAll(cmd *cobra.Command, args []string) error {
	kind, err := schema.ParseKind(args[0])
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(args)-1)
	for _, arg := range args[1:] {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	n, err := app.Syncer.LoadAll(cmd.Context(), kind, ids, syncer.Request{})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loading %d %s records\n", n, kind)
	if err := drain(cmd); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Done.")
	return nil
}
