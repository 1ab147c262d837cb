package flowers

import (
	"math"
	"sort"

	"github.com/sells-group/nectar-cli/internal/model"
)

// BractKey maps bract counts to flower counts for the focal species.
type BractKey struct {
	Entries   []model.BractKeyEntry
	Threshold int
	Floor     float64

	byCount map[int]float64
}

// BuildBractKey takes the median flower count per bract count over focal
// observations that recorded both. Bract counts above threshold are forced
// to floor flowers: samples there are too thin for a monotone median.
// Zero bracts always map to zero flowers.
func BuildBractKey(obs []model.Observation, isFocal func(string) bool, threshold int, floor float64) *BractKey {
	values := make(map[int][]float64)
	seenRow := make(map[int]bool)
	for _, o := range obs {
		if !isFocal(o.SpeciesCode) || !o.BractCount.Valid || !o.FlowerCount.Valid {
			continue
		}
		// Bracketed rows share a RowID; count each field record once.
		if seenRow[o.RowID] {
			continue
		}
		seenRow[o.RowID] = true
		b := int(math.Round(o.BractCount.V))
		values[b] = append(values[b], o.FlowerCount.V)
	}
	if _, ok := values[0]; !ok {
		values[0] = nil
	}

	counts := make([]int, 0, len(values))
	for b := range values {
		counts = append(counts, b)
	}
	sort.Ints(counts)

	k := &BractKey{Threshold: threshold, Floor: floor, byCount: make(map[int]float64, len(counts))}
	for _, b := range counts {
		e := model.BractKeyEntry{BractCount: b, N: len(values[b])}
		switch {
		case b == 0:
			e.Flowers = 0
		case b > threshold:
			e.Flowers, e.Overridden = floor, true
		default:
			e.Flowers = median(values[b])
		}
		k.Entries = append(k.Entries, e)
		k.byCount[b] = e.Flowers
	}
	return k
}

// Lookup returns the flower count for a bract count. Counts above the
// threshold get the floor even when never observed; other unobserved counts
// are undefined.
func (k *BractKey) Lookup(bracts model.Num) model.Num {
	if k == nil || !bracts.Valid {
		return model.NA
	}
	b := int(math.Round(bracts.V))
	if b > k.Threshold {
		return model.Some(k.Floor)
	}
	if f, ok := k.byCount[b]; ok {
		return model.Some(f)
	}
	return model.NA
}
