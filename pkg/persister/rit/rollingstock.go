package rit

import (
	"strconv"

	"github.com/treinwerk/treinwerk/pkg/database"
	"github.com/treinwerk/treinwerk/pkg/infoplus"
)

// buildRollingStock emits one composition row per unit departing from the
// stop. Units that are uncoupled at this station and stay behind are not
// part of the departing consist.
func buildRollingStock(journeyID string, journeyEventID string, stop *infoplus.RitStop) []database.RollingStock {
	var rows []database.RollingStock

	for _, unit := range stop.RollingStock {
		if unit.RemainsBehind == infoplus.BoolTrue {
			continue
		}

		departureOrder := 1
		if parsed, err := strconv.Atoi(unit.DepartureOrder); err == nil {
			departureOrder = parsed
		}

		rows = append(rows, database.RollingStock{
			JourneyID:      journeyID,
			JourneyEventID: journeyEventID,
			DepartureOrder: departureOrder,

			MaterialType:    unit.Kind,
			MaterialSubtype: unit.Designation,
			MaterialNumber:  unit.ID,
		})
	}

	return rows
}
