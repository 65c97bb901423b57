package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <id>...",
	Short: "Resolve ids to names",
	Long: `Resolve any EVE ids (characters, corporations, systems, types, ...) to
names and categories, and store them locally.

Ids already stored are not requested again. Ids unknown to ESI are
skipped and reported.

Examples:
  eveuniverse resolve 30000142 1000125 587`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	created, err := app.Bulk.BulkCreate(cmd.Context(), ids)
	if err != nil {
		return fmt.Errorf("resolve names: %w", err)
	}
	names, err := app.Bulk.Names(cmd.Context(), ids)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, id := range ids {
		if name, ok := names[id]; ok {
			fmt.Fprintf(out, "%-12d %s\n", id, name)
		} else {
			fmt.Fprintf(out, "%-12d (unknown)\n", id)
		}
	}
	fmt.Fprintf(out, "\n%d new names stored\n", created)
	return nil
}
