package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/flowvault/flowvault/internal/flow"
)

// writeVersionText renders the standard version block shared by the
// publish, show, active, set-active, and rollback commands.
func writeVersionText(w io.Writer, read *flow.VersionRead, verbose bool) {
	tag := ""
	if read.VersionTag != nil {
		tag = fmt.Sprintf(" (%s)", *read.VersionTag)
	}
	fmt.Fprintf(w, "Version %d%s [%s]\n", read.VersionNumber, tag, read.Status())
	fmt.Fprintf(w, "  ID:         %s\n", read.ID)
	fmt.Fprintf(w, "  Published:  %s by %s\n", formatTime(read.PublishedAt), truncateID(read.PublishedBy.String()))
	fmt.Fprintf(w, "  Hash:       %s\n", read.ParentFlowDataHash)
	if read.DescriptionVersion != nil {
		fmt.Fprintf(w, "  Notes:      %s\n", *read.DescriptionVersion)
	}
	if read.Changelog != nil {
		fmt.Fprintf(w, "  Changelog:  %s\n", *read.Changelog)
	}
	if read.CreatedFromVersionID != nil {
		fmt.Fprintf(w, "  Lineage:    restored from %s\n", truncateID(read.CreatedFromVersionID.String()))
	}
	fmt.Fprintf(w, "  Executions: %d (%d errors)\n", read.ExecutionCount, read.ErrorCount)

	if verbose {
		fmt.Fprintf(w, "  Data:       %s\n", formatDocument(read.Data))
	}
}

// writeSummaryLines renders compact per-version lines, newest first.
// The active version is marked with a star and the word "active".
func writeSummaryLines(w io.Writer, summaries []flow.VersionSummary) {
	for _, s := range summaries {
		marker := " "
		status := ""
		if s.IsActive {
			marker = "*"
			status = "active  "
		}
		tag := ""
		if s.VersionTag != nil {
			tag = fmt.Sprintf(" (%s)", *s.VersionTag)
		}
		fmt.Fprintf(w, "%s v%d%s %spublished %s  execs=%d errors=%d\n",
			marker, s.VersionNumber, tag, status, formatTime(s.PublishedAt),
			s.ExecutionCount, s.ErrorCount)
	}
}

// formatTime renders timestamps in RFC 3339 UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// formatDocument renders a document tree as compact JSON, falling back
// to Go syntax when marshaling fails.
func formatDocument(doc any) string {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Sprintf("%v", doc)
	}
	return string(data)
}

// formatValue formats a single value for display, handling nested
// structures deterministically.
func formatValue(v any) string {
	switch val := v.(type) {
	case map[string]any:
		return formatMap(val)
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = formatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatMap formats a map with sorted keys for deterministic output.
func formatMap(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(m[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
