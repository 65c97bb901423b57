package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/asteroid-belt/eveuniverse/internal/models"
)

var loadUnitsCmd = &cobra.Command{
	Use:   "load-units",
	Short: "Load the units of measurement",
	Long: `Load the units of measurement from the static data export.

Units are not served by ESI. Dogma attributes only link their unit when
it is present locally, so run this before loading types.`,
	Args: cobra.NoArgs,
	RunE: runLoadUnits,
}

func runLoadUnits(cmd *cobra.Command, args []string) error {
	rows, err := app.SDE.Units(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetch units: %w", err)
	}
	units := make([]models.EveUnit, 0, len(rows))
	for _, r := range rows {
		units = append(units, models.EveUnit{
			Entity:      models.Entity{ID: r.UnitID, Name: r.UnitName},
			DisplayName: r.DisplayName,
			Description: r.Description,
		})
	}
	if err := app.DB.SeedUnits(units); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d units\n", len(units))
	return nil
}
