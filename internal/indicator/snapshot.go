package indicator

import (
	"github.com/astra-quant/recallbot/internal/types"
)

// ComputeSnapshot runs the named indicators from the registry against the
// input and assembles their latest values into a snapshot. Indicators with
// insufficient data leave their field absent; unknown names are skipped.
// The snapshot is transient and recomputed every cycle.
func ComputeSnapshot(registry Registry, names []types.IndicatorType, in Input) types.IndicatorSnapshot {
	var snapshot types.IndicatorSnapshot

	for _, name := range names {
		ind, err := registry.GetIndicator(name)
		if err != nil {
			continue
		}

		ind.Apply(in, &snapshot)
	}

	return snapshot
}
