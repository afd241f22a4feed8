// Package render produces the Markdown texts users and the channel see.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Mur0dDev/Classification-Bot/internal/flow"
	"github.com/Mur0dDev/Classification-Bot/internal/models"
)

var markdownEscaper = strings.NewReplacer(
	`_`, `\_`,
	`*`, `\*`,
	"`", "\\`",
	`[`, `\[`,
)

// Escape protects user supplied text inside legacy Markdown messages.
func Escape(s string) string {
	return markdownEscaper.Replace(s)
}

// Visible returns the steps of f that hold an answered value, skipping
// values set by a filling branch.
func Visible(f *flow.Flow, fields map[string]string) []*flow.Step {
	filled := f.FilledByBranch(fields)
	out := make([]*flow.Step, 0, len(f.Steps))
	for _, s := range f.Steps {
		if _, ok := fields[s.Field]; !ok || filled[s.Field] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Summary is the review screen, computed from the current field map.
func Summary(f *flow.Flow, fields map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 *%s Classification Summary*\n\n", f.Title)
	for _, s := range Visible(f, fields) {
		line(&b, s, s.Display(fields[s.Field]))
	}
	return b.String()
}

// EditMenu lists the fields that can be edited with their current values.
func EditMenu(f *flow.Flow, fields map[string]string) string {
	var b strings.Builder
	b.WriteString("✏️ *Which field would you like to edit?*\n\n")
	for i, s := range Visible(f, fields) {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, s.Label, Escape(s.Display(fields[s.Field])))
	}
	return b.String()
}

// Report is the message posted to the broadcast channel. Every field is
// labeled, including values set by a filling branch.
func Report(f *flow.Flow, rec models.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 *%s Classification Report*\n\n", f.Title)
	for _, s := range f.Steps {
		v, ok := rec.Fields[s.Field]
		if !ok {
			v = "N/A"
		}
		line(&b, s, s.Display(v))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "🔢 *No.*: %s\n", strconv.Itoa(rec.Ordinal))
	fmt.Fprintf(&b, "🆔 *ID*: %s\n", Escape(rec.ID))
	fmt.Fprintf(&b, "👤 *Initiator*: %s\n", Escape(rec.Submitter))
	fmt.Fprintf(&b, "📅 *Date*: %s\n", rec.Date())
	return b.String()
}

// Candidates lists a numbered candidate list below a question.
func Candidates(candidates []string) string {
	var b strings.Builder
	b.WriteString("Did you mean one of these?\n\n")
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, Escape(c))
	}
	b.WriteString("\nPlease select one using the buttons below:")
	return b.String()
}

func line(b *strings.Builder, s *flow.Step, value string) {
	if s.Emoji != "" {
		b.WriteString(s.Emoji)
		b.WriteString(" ")
	}
	fmt.Fprintf(b, "*%s*: %s\n", s.Label, Escape(value))
}
