package videoindex

import (
	"math/rand/v2"
	"time"

	"github.com/loopreel/loopreel/internal/config"
	"github.com/loopreel/loopreel/internal/timecond"
)

// GetRandomVideo implements the deterministic selection contract of
// spec §4.2/§4.3: evaluate each seasonal bucket in order as an
// independent Bernoulli trial; the first successful draw wins and picks
// uniformly among that bucket's non-excluded entries. If no bucket
// wins, fall back to a uniform pick among non-excluded regular entries.
// now and the random source are parameters so tests can make the
// outcome deterministic.
func (idx *Index) GetRandomVideo(seasonalCfg []config.SeasonalDirectoryConfig, excludePaths map[string]bool, now time.Time, rng *rand.Rand) (VideoEntry, bool) {
	if v, ok := idx.selectSeasonal(seasonalCfg, excludePaths, now, rng); ok {
		return v, true
	}
	return idx.selectRegular(excludePaths, rng)
}

func (idx *Index) selectSeasonal(seasonalCfg []config.SeasonalDirectoryConfig, excludePaths map[string]bool, now time.Time, rng *rand.Rand) (VideoEntry, bool) {
	for _, bucket := range seasonalCfg {
		cond := timecond.Condition{
			DayOfWeek:    bucket.Conditions.DayOfWeek,
			HourRange:    bucket.Conditions.HourRange,
			Hour:         bucket.Conditions.Hour,
			Minute:       bucket.Conditions.Minute,
			MinuteParity: bucket.Conditions.MinuteParity,
			DayOfMonth:   bucket.Conditions.DayOfMonth,
			Month:        bucket.Conditions.Month,
			Year:         bucket.Conditions.Year,
			DateRange:    bucket.Conditions.DateRange,
		}
		if !timecond.Evaluate(cond, now) {
			continue
		}
		var draw float64
		if rng != nil {
			draw = rng.Float64()
		} else {
			draw = rand.Float64()
		}
		if draw >= bucket.Likelihood {
			continue
		}
		candidates := idx.SeasonalEntries(bucket.Directory)
		pick, ok := pickExcluding(candidates, excludePaths, rng)
		if ok {
			return pick, true
		}
		// Bucket won the trial but had no eligible entries: the trial is
		// still consumed per-bucket (spec §4.3 says "first successful
		// draw wins" on conditions+likelihood, not on entry availability),
		// but with nothing to return we keep evaluating later buckets.
	}
	return VideoEntry{}, false
}

func (idx *Index) selectRegular(excludePaths map[string]bool, rng *rand.Rand) (VideoEntry, bool) {
	return pickExcluding(idx.RegularEntries(), excludePaths, rng)
}

func pickExcluding(entries []VideoEntry, excludePaths map[string]bool, rng *rand.Rand) (VideoEntry, bool) {
	var candidates []VideoEntry
	for _, e := range entries {
		if excludePaths != nil && excludePaths[e.OriginalPath] {
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return VideoEntry{}, false
	}
	var n int
	if rng != nil {
		n = rng.IntN(len(candidates))
	} else {
		n = rand.IntN(len(candidates))
	}
	return candidates[n], true
}
