package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/nectar-cli/internal/model"
)

func TestDistributionMatches(t *testing.T) {
	opts := MatchOptions{MinKnownRows: 2, MinUnknownRows: 2, MaxDistance: 0.35}

	t.Run("close distribution matches", func(t *testing.T) {
		in := []model.Observation{
			obs(1, "A", 10, model.UnitInflorescence),
			obs(2, "A", 20, model.UnitInflorescence),
			obs(3, "A", 30, model.UnitInflorescence),
			obs(4, "A", 12, model.UnitNone),
			obs(5, "A", 22, model.UnitNone),
			obs(6, "A", 28, model.UnitNone),
		}
		m := DistributionMatches(in, opts)
		require.Contains(t, m, "A")
		assert.Equal(t, model.UnitInflorescence, m["A"].Unit)
		assert.LessOrEqual(t, m["A"].Distance, 0.35)
	})

	t.Run("too few rows", func(t *testing.T) {
		in := []model.Observation{
			obs(1, "B", 10, model.UnitFlower),
			obs(2, "B", 10, model.UnitFlower),
			obs(3, "B", 10, model.UnitNone),
			obs(4, "B", 10, model.UnitNone),
			obs(5, "B", 10, model.UnitNone),
		}
		assert.Empty(t, DistributionMatches(in, opts))
	})

	t.Run("disjoint distribution rejected", func(t *testing.T) {
		in := []model.Observation{
			obs(1, "C", 1, model.UnitFlower),
			obs(2, "C", 2, model.UnitFlower),
			obs(3, "C", 3, model.UnitFlower),
			obs(4, "C", 100, model.UnitNone),
			obs(5, "C", 200, model.UnitNone),
			obs(6, "C", 300, model.UnitNone),
		}
		assert.Empty(t, DistributionMatches(in, opts))
	})

	t.Run("rows without a count do not meet the gate", func(t *testing.T) {
		noCount := func(id int, unit model.CountUnit) model.Observation {
			o := obs(id, "E", 0, unit)
			o.Count = model.NA
			return o
		}
		in := []model.Observation{
			obs(1, "E", 5, model.UnitFlower),
			noCount(2, model.UnitFlower),
			noCount(3, model.UnitFlower),
			obs(4, "E", 5, model.UnitNone),
			noCount(5, model.UnitNone),
			noCount(6, model.UnitNone),
		}
		assert.Empty(t, DistributionMatches(in, opts))
	})

	t.Run("gate applies per known unit", func(t *testing.T) {
		in := []model.Observation{
			obs(1, "F", 10, model.UnitFlower),
			obs(2, "F", 20, model.UnitInflorescence),
			obs(3, "F", 30, model.UnitFlower),
			obs(4, "F", 12, model.UnitNone),
			obs(5, "F", 22, model.UnitNone),
			obs(6, "F", 28, model.UnitNone),
		}
		assert.Empty(t, DistributionMatches(in, opts), "two samples per unit are not enough")
	})

	t.Run("non-positive counts ignored", func(t *testing.T) {
		in := []model.Observation{
			obs(1, "D", 5, model.UnitFlower),
			obs(2, "D", 6, model.UnitFlower),
			obs(3, "D", 7, model.UnitFlower),
			obs(4, "D", 0, model.UnitNone),
			obs(5, "D", 0, model.UnitNone),
			obs(6, "D", 0, model.UnitNone),
		}
		assert.Empty(t, DistributionMatches(in, opts))
	})
}
