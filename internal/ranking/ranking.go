// Package ranking orders, filters and truncates report findings.
package ranking

import (
	"cmp"
	"slices"

	"github.com/phobologic/notifyguard/internal/model"
)

// Sort orders findings most severe first, then by file, line, column and
// rule. The slice is sorted in place.
func Sort(findings []model.Finding) {
	slices.SortStableFunc(findings, func(a, b model.Finding) int {
		return cmp.Or(
			cmp.Compare(b.Severity.Rank(), a.Severity.Rank()),
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Column, b.Column),
			cmp.Compare(a.Rule, b.Rule),
		)
	})
}

// FilterBySeverity returns the findings at or above floor. An empty floor keeps
// everything.
func FilterBySeverity(findings []model.Finding, floor model.Severity) []model.Finding {
	if floor == "" {
		return findings
	}
	var kept []model.Finding
	for _, f := range findings {
		if f.Severity.Rank() >= floor.Rank() {
			kept = append(kept, f)
		}
	}
	return kept
}

// Summarize counts findings per rule, ordered by rule ID.
func Summarize(findings []model.Finding) []model.RuleCount {
	counts := make(map[string]int)
	for _, f := range findings {
		counts[f.Rule]++
	}
	out := make([]model.RuleCount, 0, len(counts))
	for rule, n := range counts {
		out = append(out, model.RuleCount{Rule: rule, Count: n})
	}
	slices.SortFunc(out, func(a, b model.RuleCount) int { return cmp.Compare(a.Rule, b.Rule) })
	return out
}

// SelectFindings returns a new Report with only the first maxFindings
// findings. If maxFindings is <= 0 or >= len(findings), rp is returned.
// The summary keeps counting every finding.
func SelectFindings(rp *model.Report, maxFindings int) *model.Report {
	if maxFindings <= 0 || maxFindings >= len(rp.Findings) {
		return rp
	}
	out := *rp
	out.Findings = rp.Findings[:maxFindings]
	out.Omitted = rp.Omitted + len(rp.Findings) - maxFindings
	return &out
}
