package toon

import (
	"strings"
	"testing"

	"github.com/phobologic/notifyguard/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "ViewModels/Person.cs", "ViewModels/Person.cs"},
		{"rule id", "INPC005", "INPC005"},
		{"message", "use nameof(Name) instead", "use nameof(Name) instead"},
		{"generic type", "List<string>", "List<string>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	rp := &model.Report{
		RepoName: "myapp",
		Root:     "myapp",
		Files:    2,
		Findings: []model.Finding{
			{
				Rule:     "INPC010",
				Severity: model.Warning,
				File:     "ViewModels/Person.cs",
				Line:     12,
				Column:   16,
				Message:  "property Name gets display but sets name",
				Related: []model.Related{
					{File: "ViewModels/Person.cs", Line: 17, Message: "field assigned here"},
				},
			},
			{
				Rule:     "INPC013",
				Severity: model.Info,
				File:     "ViewModels/Person.cs",
				Line:     20,
				Column:   31,
				Message:  "use nameof(Name) instead of the string literal",
				Fix:      "Use nameof(Name)",
			},
		},
		Summary: []model.RuleCount{{Rule: "INPC010", Count: 1}, {Rule: "INPC013", Count: 1}},
	}

	got := Encode(rp)

	want := []string{
		"repo: myapp",
		"root: myapp",
		"files: 2",
		"findings[2]{rule,severity,file,line,column,message,fix}:",
		`  INPC010,warning,ViewModels/Person.cs,12,16,property Name gets display but sets name,""`,
		"  INPC013,info,ViewModels/Person.cs,20,31,use nameof(Name) instead of the string literal,Use nameof(Name)",
		"related[1]{rule,at,file,line,message}:",
		`  INPC010,"ViewModels/Person.cs:12",ViewModels/Person.cs,17,field assigned here`,
		"summary[2]{rule,count}:",
		"  INPC010,1",
		"  INPC013,1",
	}
	lines := strings.Split(got, "\n")
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	rp := &model.Report{
		RepoName: "empty",
		Root:     "empty",
	}

	got := Encode(rp)
	if !strings.Contains(got, "findings[0]{rule,severity,file,line,column,message,fix}:") {
		t.Errorf("expected empty findings section, got:\n%s", got)
	}
	if strings.Contains(got, "related") {
		t.Errorf("related section should be omitted when empty, got:\n%s", got)
	}
	if strings.Contains(got, "omitted") {
		t.Errorf("omitted should only appear after truncation, got:\n%s", got)
	}
}

func TestEncodeOmitted(t *testing.T) {
	t.Parallel()

	got := Encode(&model.Report{RepoName: "r", Root: "r", Omitted: 7})
	if !strings.HasSuffix(got, "omitted: 7") {
		t.Errorf("expected trailing omitted count, got:\n%s", got)
	}
}

func TestEncodeRules(t *testing.T) {
	t.Parallel()
	got := EncodeRules([]model.RuleInfo{
		{ID: "INPC005", Severity: model.Warning, Fixable: true, Title: "Check if value is different before notifying"},
		{ID: "INPC015", Severity: model.Warning, Title: "Property is recursive"},
	})
	want := `rules[2]{id,severity,fixable,title}:
  INPC005,warning,yes,Check if value is different before notifying
  INPC015,warning,no,Property is recursive`
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}
