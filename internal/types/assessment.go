package types

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of an assessment run.
type RunStatus string

const (
	RunStatusDraft     RunStatus = "draft"
	RunStatusActive    RunStatus = "active"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCanceled  RunStatus = "canceled"
)

// IsTerminal reports whether the status admits no further transitions.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusCanceled
}

// ConfidenceBand grades how much to trust a scored profile.
type ConfidenceBand string

const (
	BandHigh     ConfidenceBand = "HIGH"
	BandModerate ConfidenceBand = "MODERATE"
	BandLow      ConfidenceBand = "LOW"
)

// ResponseType determines the legal value range for an item.
// Frequency items accept 0..4, scenario items 0..3.
type ResponseType string

const (
	ResponseTypeFrequency ResponseType = "frequency"
	ResponseTypeScenario  ResponseType = "scenario"
)

// Polarity controls whether a raw value is reversed before scoring.
type Polarity string

const (
	PolarityNormal  Polarity = "normal"
	PolarityReverse Polarity = "reverse"
)

// ItemSection groups items within the catalog.
type ItemSection string

const (
	SectionRayShine   ItemSection = "ray_shine"
	SectionRayAccess  ItemSection = "ray_access"
	SectionRayEclipse ItemSection = "ray_eclipse"
	SectionValidity   ItemSection = "validity"
)

// Item is one catalog entry. RayID is empty for validity items, which are
// never scored.
type Item struct {
	ID           string       `json:"id"`
	RayID        string       `json:"ray_id,omitempty"`
	Weight       float64      `json:"weight"`
	PromptText   string       `json:"prompt_text"`
	ResponseType ResponseType `json:"response_type"`
	Polarity     Polarity     `json:"polarity"`
	Section      ItemSection  `json:"section"`
}

// Run is one assessment attempt by one user. ItemIDs is fixed at start and
// never changes afterward. Exactly one of CompletedAt/CanceledAt is set once
// the run is terminal.
type Run struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	RunNumber   int        `json:"run_number"`
	Status      RunStatus  `json:"status"`
	ItemIDs     []string   `json:"item_ids,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CanceledAt  *time.Time `json:"canceled_at,omitempty"`
}

// Response is one stored answer, keyed by (run, item). Last write wins
// while the run is active.
type Response struct {
	RunID      uuid.UUID `json:"run_id"`
	ItemID     string    `json:"item_id"`
	Value      int       `json:"value"`
	AnsweredAt time.Time `json:"answered_at"`
}

// DataQuality captures the scorer's quality assessment of one run's answers.
type DataQuality struct {
	AssignedCount   int      `json:"assigned_count"`
	AnsweredCount   int      `json:"answered_count"`
	Completeness    float64  `json:"completeness"`
	ResponseStdDev  float64  `json:"response_std_dev"`
	LongestRun      int      `json:"longest_run"`
	DurationSeconds float64  `json:"duration_seconds"`
	LowCoverageRays []string `json:"low_coverage_rays,omitempty"`
	FlatProfile     bool     `json:"flat_profile"`
	CloseCall       bool     `json:"close_call"`
	Flags           []string `json:"flags,omitempty"`
}

// RayScoreProfile is the scored output of a completed run. It carries no
// timestamps so that identical inputs produce byte-identical profiles.
type RayScoreProfile struct {
	ScorerVersion  string             `json:"scorer_version"`
	RayScores      map[string]float64 `json:"ray_scores"`
	TopRays        []string           `json:"top_rays"`
	ArchetypeID    string             `json:"archetype_id"`
	ArchetypeName  string             `json:"archetype_name"`
	ConfidenceBand ConfidenceBand     `json:"confidence_band"`
	DataQuality    DataQuality        `json:"data_quality"`
}

// SignaturePair is the tamper-evidence record stored alongside a result.
type SignaturePair struct {
	RunID         uuid.UUID `json:"run_id"`
	ScorerVersion string    `json:"scorer_version"`
	InputHash     string    `json:"input_hash"`
	OutputHash    string    `json:"output_hash"`
}

// VerificationReport is the outcome of re-deriving a run's signature pair
// from its stored responses and profile.
type VerificationReport struct {
	RunID         uuid.UUID `json:"run_id"`
	ScorerVersion string    `json:"scorer_version"`
	InputMatch    bool      `json:"input_match"`
	OutputMatch   bool      `json:"output_match"`
	Match         bool      `json:"match"`
}

// RayIDs lists the nine rays in canonical order.
var RayIDs = []string{"R1", "R2", "R3", "R4", "R5", "R6", "R7", "R8", "R9"}

// RayNames maps ray IDs to their display names.
var RayNames = map[string]string{
	"R1": "Ray of Intention",
	"R2": "Ray of Connection",
	"R3": "Ray of Expression",
	"R4": "Ray of Harmony",
	"R5": "Ray of Insight",
	"R6": "Ray of Devotion",
	"R7": "Ray of Structure",
	"R8": "Ray of Power",
	"R9": "Be The Light",
}

// ValidRayID reports whether id names one of the nine rays.
func ValidRayID(id string) bool {
	_, ok := RayNames[id]
	return ok
}
