package scoring

import (
	"math"

	"github.com/jonathan/ray-assessment/internal/bank"
	"github.com/jonathan/ray-assessment/internal/types"
)

// dataQuality assembles the quality record for a scored run. Raw-response
// statistics (variance, longest identical run) are computed over answered
// items in assigned order so the result never depends on map iteration.
func dataQuality(in Input, assigned map[string]types.Item, scores map[string]float64, lowCoverage []string, closeCall bool) types.DataQuality {
	var values []float64
	longest, current := 0, 0
	lastValue := -1
	answered := 0

	for _, id := range in.ItemIDs {
		value, ok := in.Responses[id]
		if !ok {
			lastValue = -1
			current = 0
			continue
		}
		answered++

		// Normalize to the 0..4 scale before pooling variance so
		// scenario items do not read as artificially low.
		maxVal := bank.MaxValue(assigned[id])
		values = append(values, float64(value)*4/float64(maxVal))

		if value == lastValue {
			current++
		} else {
			current = 1
			lastValue = value
		}
		if current > longest {
			longest = current
		}
	}

	q := types.DataQuality{
		AssignedCount:   len(in.ItemIDs),
		AnsweredCount:   answered,
		Completeness:    float64(answered) / float64(len(in.ItemIDs)),
		ResponseStdDev:  stdDev(values),
		LongestRun:      longest,
		DurationSeconds: in.CompletedAt.Sub(in.StartedAt).Seconds(),
		LowCoverageRays: lowCoverage,
		CloseCall:       closeCall,
	}

	var rayValues []float64
	for _, rayID := range types.RayIDs {
		rayValues = append(rayValues, scores[rayID])
	}
	q.FlatProfile = stdDev(rayValues) < FlatProfileStdDev

	if q.DurationSeconds < speedFloorSeconds {
		q.Flags = append(q.Flags, FlagSpeeding)
	}
	if q.Completeness < completenessFlagBelow {
		q.Flags = append(q.Flags, FlagLowCompleteness)
	}
	if q.LongestRun >= straightlineRunLength || q.ResponseStdDev < lowVarianceStdDev {
		q.Flags = append(q.Flags, FlagFlatPattern)
	}
	if len(q.LowCoverageRays) >= lowCoverageRayFlagCount {
		q.Flags = append(q.Flags, FlagLowRayCoverage)
	}

	return q
}

// confidenceBand grades the profile from the quality record. This is the
// only place the band is computed; downstream readers treat the stored
// band as authoritative. Speeding is an automatic LOW regardless of other
// flags; otherwise zero flags grade HIGH, one MODERATE, two or more LOW.
func confidenceBand(q types.DataQuality) types.ConfidenceBand {
	if q.DurationSeconds < speedFloorSeconds {
		return types.BandLow
	}

	flags := 0
	for _, flag := range q.Flags {
		if flag != FlagSpeeding {
			flags++
		}
	}
	switch {
	case flags == 0:
		return types.BandHigh
	case flags == 1:
		return types.BandModerate
	default:
		return types.BandLow
	}
}

func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
