package google

import (
	"strings"
	"time"

	"costeapp/internal/sheets"
)

var headerRow = []interface{}{"ID", "Concepto", "Costo mensual", "Actualizado"}

// snapshotValues lays a snapshot out as rows: a header, one line per
// record, a blank spacer and the total.
func snapshotValues(snap sheets.Snapshot) [][]interface{} {
	values := make([][]interface{}, 0, len(snap.FixedCosts)+3)
	values = append(values, headerRow)
	for _, fc := range snap.FixedCosts {
		values = append(values, []interface{}{
			fc.ID,
			fc.CostName,
			fc.MonthlyCost.String(),
			fc.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	values = append(values,
		[]interface{}{},
		[]interface{}{"", "Total", snap.Total.String(), snap.TakenAt.UTC().Format(time.RFC3339)},
	)
	return values
}

// a1Range prefixes cells with a quoted sheet name, e.g. 'Costos Fijos'!A1.
func a1Range(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}
