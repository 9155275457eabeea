package scoring

// ScorerVersion identifies the scoring algorithm revision. It is embedded
// in every profile and signature pair; recomputation for verification must
// use the version recorded on the pair.
const ScorerVersion = "v2.1.0"

// Coverage and quality thresholds.
const (
	// MinCoverage is the minimum fraction of assigned scorable items that
	// must be answered for a run to be scorable at all.
	MinCoverage = 0.70

	// RayMinItems is the minimum answered items per ray before the ray's
	// score is considered well covered.
	RayMinItems = 3

	// TieThreshold is the score window, in points, within which two rays
	// count as tied for top-two selection.
	TieThreshold = 2.0

	// FlatProfileStdDev marks a profile as flat when the standard
	// deviation across the nine ray scores falls below it.
	FlatProfileStdDev = 5.0

	// completenessFlagBelow raises a quality flag when the answered
	// fraction drops under it.
	completenessFlagBelow = 0.90

	// straightlineRunLength flags a response pattern when this many
	// consecutive identical values appear.
	straightlineRunLength = 18

	// lowVarianceStdDev flags a response pattern whose raw values barely
	// vary.
	lowVarianceStdDev = 0.35

	// speedFloorSeconds is the hard floor on run duration. Anything
	// faster is treated as non-deliberate responding.
	speedFloorSeconds = 360

	// lowCoverageRayFlagCount raises a quality flag when at least this
	// many rays are under-covered.
	lowCoverageRayFlagCount = 3
)

// Quality flag labels recorded in DataQuality.Flags.
const (
	FlagLowCompleteness = "low_completeness"
	FlagFlatPattern     = "flat_response_pattern"
	FlagLowRayCoverage  = "low_ray_coverage"
	FlagSpeeding        = "speeding"
)
