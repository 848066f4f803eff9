package warehouse

import (
	"strconv"
	"strings"
)

// minProposalCells is the minimum number of cells a table line must carry:
// channel, current_spend, proposed_spend, delta%, rationale. Extra cells are
// ignored.
const minProposalCells = 5

// ParseProposalTable extracts proposal rows from a Markdown table like
//
//	| channel | current_spend | proposed_spend | Δ% | brief_rationale |
//	|---------|---------------|----------------|----|-----------------|
//	| google  | 100           | 105            | 5% | Good perf       |
//
// Only lines starting with the pipe delimiter are considered. The header
// row ("channel" first cell, case-insensitive) and all-dash separator rows
// are skipped; lines with fewer than five cells are dropped silently, so
// partial model output is tolerated rather than fatal. ProposalDate is left empty;
// SaveProposal stamps it.
//
// Single quotes in the rationale are doubled so the text is safe to embed
// in persisted SQL regardless of the storage backend.
func ParseProposalTable(markdown string) []ProposalRow {
	var rows []ProposalRow

	for _, line := range strings.Split(markdown, "\n") {
		if !strings.HasPrefix(line, "|") {
			continue
		}

		cells := splitCells(line)
		if len(cells) < minProposalCells {
			continue
		}

		first := strings.ToLower(cells[0])
		if first == "channel" {
			continue // header row
		}
		if isDashRun(cells[0]) {
			continue // separator row
		}

		current, okCur := parseSpend(cells[1])
		proposed, okProp := parseSpend(cells[2])
		if !okCur || !okProp {
			continue
		}

		rows = append(rows, ProposalRow{
			Channel:       cells[0],
			CurrentSpend:  current,
			ProposedSpend: proposed,
			Rationale:     strings.ReplaceAll(cells[4], "'", "''"),
		})
	}

	return rows
}

// splitCells strips the outer pipes and splits a table line into trimmed
// cells.
func splitCells(line string) []string {
	trimmed := strings.Trim(strings.TrimSpace(line), "|")
	parts := strings.Split(trimmed, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// isDashRun reports whether the cell consists entirely of dashes.
func isDashRun(cell string) bool {
	if cell == "" {
		return false
	}
	for _, r := range cell {
		if r != '-' {
			return false
		}
	}
	return true
}

// parseSpend parses a spend cell, tolerating currency symbols and thousands
// separators the model likes to add.
func parseSpend(cell string) (float64, bool) {
	cleaned := strings.TrimSpace(cell)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
