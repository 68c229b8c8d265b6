package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phobologic/notifyguard/internal/rules"
)

const (
	sentinelStart = "# notifyguard:start"
	sentinelEnd   = "# notifyguard:end"
)

// runInit implements the `notifyguard init` subcommand, which writes (or
// updates) a block of rule severities in an .editorconfig file.
func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("notifyguard init", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var dryRun bool
	fs.BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: notifyguard init [flags] [path-to-.editorconfig]

Write the notifyguard rule severities to an .editorconfig file. The block is
wrapped in sentinel comments so it can be updated in place on subsequent runs
without touching surrounding content. Creates the file if it does not exist.

path-to-.editorconfig defaults to ./.editorconfig.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	section := generateSection()

	// --dry-run with no path: just print the section itself.
	if dryRun && fs.NArg() == 0 {
		_, _ = fmt.Fprintln(stdout, section)
		return nil
	}

	path := ".editorconfig"
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	existing, _ := os.ReadFile(path)
	updated := applySection(string(existing), section)

	if dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote notifyguard section to %s\n", path)
	return nil
}

// editorconfigSeverity maps a rule severity to the .editorconfig value.
func editorconfigSeverity(s rules.Severity) string {
	if s == rules.Info {
		return "suggestion"
	}
	return string(s)
}

// generateSection returns the sentinel-wrapped block with one severity line
// per rule, titled by a comment.
func generateSection() string {
	var b strings.Builder
	b.WriteString(sentinelStart + "\n")
	b.WriteString("# Generated by `notifyguard init`. Edit severities below; rerun to add new rules.\n")
	b.WriteString("[*.cs]\n")
	for _, r := range rules.All() {
		if r.ID == rules.InternalError {
			continue
		}
		fmt.Fprintf(&b, "\n# %s: %s\n", r.ID, r.Title)
		fmt.Fprintf(&b, "dotnet_diagnostic.%s.severity = %s\n", r.ID, editorconfigSeverity(r.Severity))
	}
	b.WriteString(sentinelEnd)
	return b.String()
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
