package analyze

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/phobologic/notifyguard/internal/syntax"
)

// ignoreDirective marks a comment that suppresses findings on its own line
// and the next one. Without rule IDs it suppresses every rule.
const ignoreDirective = "notifyguard:ignore"

// allRules is the key for directives that name no rule.
const allRules = "*"

type lineRange struct{ from, to int }

type suppressions struct {
	// lines maps a line to the rules ignored on it.
	lines map[int][]string
	// regions maps a rule to `#pragma warning disable` ranges.
	regions map[string][]lineRange
}

func parseSuppressions(f *syntax.File) suppressions {
	s := suppressions{lines: map[int][]string{}, regions: map[string][]lineRange{}}
	for _, c := range f.Comments {
		_, rest, ok := strings.Cut(c.Text, ignoreDirective)
		if !ok {
			continue
		}
		ids := ruleIDs(strings.TrimSuffix(strings.TrimSpace(rest), "*/"))
		s.lines[c.Line] = append(s.lines[c.Line], ids...)
		s.lines[c.Line+1] = append(s.lines[c.Line+1], ids...)
	}
	s.pragmas(f.Source)
	return s
}

// pragmas scans `#pragma warning disable|restore` lines. A disable without
// a matching restore lasts until the end of the file.
func (s *suppressions) pragmas(src []byte) {
	open := map[string]int{}
	for i, line := range strings.Split(string(src), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] != "#pragma" || fields[1] != "warning" {
			continue
		}
		lineNo := i + 1
		ids := ruleIDs(strings.Join(fields[3:], " "))
		switch fields[2] {
		case "disable":
			for _, id := range ids {
				if _, ok := open[id]; !ok {
					open[id] = lineNo
				}
			}
		case "restore":
			for _, id := range ids {
				if id == allRules {
					for k, from := range open {
						s.regions[k] = append(s.regions[k], lineRange{from, lineNo})
					}
					clear(open)
					continue
				}
				if from, ok := open[id]; ok {
					s.regions[id] = append(s.regions[id], lineRange{from, lineNo})
					delete(open, id)
				}
			}
		}
	}
	for id, from := range open {
		s.regions[id] = append(s.regions[id], lineRange{from, math.MaxInt})
	}
}

// ruleIDs splits a comma or space separated list of IDs. Only IDs of this
// tool count; an empty list means every rule.
func ruleIDs(list string) []string {
	if i := strings.Index(list, "//"); i >= 0 {
		list = list[:i]
	}
	fields := strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\r' })
	if len(fields) == 0 {
		return []string{allRules}
	}
	var ids []string
	for _, f := range fields {
		f = strings.ToUpper(f)
		if strings.HasPrefix(f, "INPC") {
			ids = append(ids, f)
		}
	}
	return ids
}

func (s suppressions) suppressed(id string, line int) bool {
	for _, ignored := range s.lines[line] {
		if ignored == id || ignored == allRules {
			return true
		}
	}
	for _, key := range []string{id, allRules} {
		for _, r := range s.regions[key] {
			if line >= r.from && line <= r.to {
				return true
			}
		}
	}
	return false
}

// IsGenerated reports whether f is generated code: named *.g.cs,
// *.g.i.cs or *.designer.cs, or marked with an <auto-generated> comment.
func IsGenerated(f *syntax.File) bool {
	name := strings.ToLower(filepath.Base(f.Path))
	for _, suffix := range []string{".g.cs", ".g.i.cs", ".designer.cs"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	for _, c := range f.Comments {
		if strings.Contains(c.Text, "<auto-generated") {
			return true
		}
	}
	return false
}
