// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/ray-assessment/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// barWidth is the width of the score bar in profile output
	barWidth = 20
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProfile outputs a human-readable summary of a scored profile.
func (p *Printer) PrintProfile(profile *types.RayScoreProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Archetype:  %s (%s)\n", profile.ArchetypeName, profile.ArchetypeID))
	sb.WriteString(fmt.Sprintf("Confidence: %s\n", profile.ConfidenceBand))
	sb.WriteString(fmt.Sprintf("Scorer:     %s\n", profile.ScorerVersion))
	sb.WriteString("\n")

	top := make(map[string]bool, len(profile.TopRays))
	for _, rayID := range profile.TopRays {
		top[rayID] = true
	}

	rayIDs := make([]string, 0, len(profile.RayScores))
	for rayID := range profile.RayScores {
		rayIDs = append(rayIDs, rayID)
	}
	sort.Strings(rayIDs)

	for _, rayID := range rayIDs {
		score := profile.RayScores[rayID]
		filled := int(score / 100 * barWidth)
		if filled > barWidth {
			filled = barWidth
		}
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
		marker := " "
		if top[rayID] {
			marker = "★"
		}
		sb.WriteString(fmt.Sprintf("%s %s %s %5.1f\n", marker, rayID, bar, score))
	}

	if len(profile.DataQuality.Flags) > 0 {
		sb.WriteString("\nFlags:\n")
		for _, flag := range profile.DataQuality.Flags {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", flag))
		}
	}

	p.printBox("RAY SCORE PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDataQuality outputs the scorer's quality assessment.
func (p *Printer) PrintDataQuality(quality *types.DataQuality) {
	if quality == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Answered:     %d of %d (%.0f%%)\n",
		quality.AnsweredCount, quality.AssignedCount, quality.Completeness*100))
	sb.WriteString(fmt.Sprintf("Duration:     %.0fs\n", quality.DurationSeconds))
	sb.WriteString(fmt.Sprintf("Response sd:  %.2f\n", quality.ResponseStdDev))
	sb.WriteString(fmt.Sprintf("Longest run:  %d\n", quality.LongestRun))
	if len(quality.LowCoverageRays) > 0 {
		sb.WriteString(fmt.Sprintf("Low coverage: %s\n", strings.Join(quality.LowCoverageRays, ", ")))
	}
	if quality.FlatProfile {
		sb.WriteString("Flat profile: yes\n")
	}
	if quality.CloseCall {
		sb.WriteString("Close call:   yes\n")
	}

	p.printBox("DATA QUALITY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintVerification outputs the outcome of a signature verification.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintVerification(report *types.VerificationReport) {
	if report == nil {
		return
	}

	if report.Match {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ SIGNATURE VERIFIED")
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, fmt.Sprintf("   run %s", report.RunID))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:    %s\n", report.RunID))
	sb.WriteString(fmt.Sprintf("Scorer: %s\n\n", report.ScorerVersion))
	sb.WriteString(fmt.Sprintf("⚠ input hash:  %s\n", matchWord(report.InputMatch)))
	sb.WriteString(fmt.Sprintf("⚠ output hash: %s\n", matchWord(report.OutputMatch)))

	p.printBox("SIGNATURE MISMATCH", strings.TrimSuffix(sb.String(), "\n"))
}

func matchWord(ok bool) string {
	if ok {
		return "match"
	}
	return "MISMATCH"
}
