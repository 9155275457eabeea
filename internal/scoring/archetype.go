package scoring

import (
	"fmt"
	"strconv"
	"strings"
)

// archetypeNames is the fixed table of the 36 light signatures, keyed by
// pair code with the lower ray number first. The pair is unordered: both
// (R2, R7) and (R7, R2) resolve to "R2-R7".
var archetypeNames = map[string]string{
	"R1-R2": "Guiding Weaver",
	"R1-R3": "Visionary Herald",
	"R1-R4": "Steady Pathfinder",
	"R1-R5": "Clear-Eyed Pioneer",
	"R1-R6": "Devoted Vanguard",
	"R1-R7": "Nova Architect",
	"R1-R8": "Sovereign Trailblazer",
	"R1-R9": "Beacon of Intention",
	"R2-R3": "Radiant Storyteller",
	"R2-R4": "Harmonic Bridge",
	"R2-R5": "Empathic Seer",
	"R2-R6": "Heartbound Steward",
	"R2-R7": "Circle Architect",
	"R2-R8": "Magnetic Catalyst",
	"R2-R9": "Luminous Companion",
	"R3-R4": "Graceful Voice",
	"R3-R5": "Insightful Orator",
	"R3-R6": "Faithful Bard",
	"R3-R7": "Structured Creator",
	"R3-R8": "Commanding Muse",
	"R3-R9": "Shining Messenger",
	"R4-R5": "Balanced Observer",
	"R4-R6": "Gentle Guardian",
	"R4-R7": "Mindful Architect",
	"R4-R8": "Grounded Dynamo",
	"R4-R9": "Peaceful Light",
	"R5-R6": "Wise Devotee",
	"R5-R7": "Pattern Cartographer",
	"R5-R8": "Strategic Force",
	"R5-R9": "Illuminated Sage",
	"R6-R7": "Servant Architect",
	"R6-R8": "Resolute Champion",
	"R6-R9": "Radiant Keeper",
	"R7-R8": "Master Builder",
	"R7-R9": "Illuminated Architect",
	"R8-R9": "Nova Sovereign",
}

// Archetype resolves the light signature for a top-two pair. The lookup is
// symmetric: order of the arguments never changes the result.
func Archetype(rayA, rayB string) (pairCode, name string) {
	a, b := rayNumber(rayA), rayNumber(rayB)
	if a > b {
		a, b = b, a
	}
	pairCode = fmt.Sprintf("R%d-R%d", a, b)
	return pairCode, archetypeNames[pairCode]
}

func rayNumber(rayID string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(rayID, "R"))
	return n
}
