// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/notifyguard/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a Report into TOON format.
func Encode(rp *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("repo: %s", encodeValue(rp.RepoName)))
	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(rp.Root)))
	parts = append(parts, fmt.Sprintf("files: %d", rp.Files))

	var findingRows [][]string
	for i := range rp.Findings {
		f := &rp.Findings[i]
		findingRows = append(findingRows, []string{
			f.Rule,
			string(f.Severity),
			f.File,
			strconv.Itoa(f.Line),
			strconv.Itoa(f.Column),
			f.Message,
			f.Fix,
		})
	}
	parts = append(parts, formatTabular("findings",
		[]string{"rule", "severity", "file", "line", "column", "message", "fix"}, findingRows))

	var relatedRows [][]string
	for i := range rp.Findings {
		f := &rp.Findings[i]
		for _, r := range f.Related {
			relatedRows = append(relatedRows, []string{
				f.Rule,
				fmt.Sprintf("%s:%d", f.File, f.Line),
				r.File,
				strconv.Itoa(r.Line),
				r.Message,
			})
		}
	}
	if len(relatedRows) > 0 {
		parts = append(parts, formatTabular("related",
			[]string{"rule", "at", "file", "line", "message"}, relatedRows))
	}

	var summaryRows [][]string
	for _, rc := range rp.Summary {
		summaryRows = append(summaryRows, []string{rc.Rule, strconv.Itoa(rc.Count)})
	}
	parts = append(parts, formatTabular("summary", []string{"rule", "count"}, summaryRows))

	if rp.Omitted > 0 {
		parts = append(parts, fmt.Sprintf("omitted: %d", rp.Omitted))
	}

	return strings.Join(parts, "\n")
}

// EncodeRules renders the rule catalog as a single table.
func EncodeRules(rs []model.RuleInfo) string {
	rows := make([][]string, 0, len(rs))
	for _, r := range rs {
		fixable := "no"
		if r.Fixable {
			fixable = "yes"
		}
		rows = append(rows, []string{r.ID, string(r.Severity), fixable, r.Title})
	}
	return formatTabular("rules", []string{"id", "severity", "fixable", "title"}, rows)
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
