package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/test-moodle/moodle-tiny-translations/internal/cli/config"
	"github.com/test-moodle/moodle-tiny-translations/internal/cli/ui"
	"github.com/test-moodle/moodle-tiny-translations/pkg/content"
	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate"
)

// encode writes v as JSON or TOML.
func encode(w io.Writer, v any, format string) error {
	switch format {
	case config.ReportFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.ReportFormatTOML:
		return toml.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("%w: no encoder for report format %q", config.ErrConfigValidation, format)
	}
}

type styler struct{ enabled bool }

func (s styler) label(text string) string {
	if !s.enabled {
		return text
	}
	return ui.LabelStyle.Render(text)
}

func (s styler) hash(text string) string {
	if !s.enabled {
		return text
	}
	return ui.HashStyle.Render(text)
}

func (s styler) failed(text string) string {
	if !s.enabled {
		return text
	}
	return ui.StatusStyleFailed.Render(text)
}

// writeInspect renders an inspection report as aligned text.
func writeInspect(w io.Writer, r content.Report, st styler) error {
	hashes := make([]string, len(r.Hashes))
	for i, h := range r.Hashes {
		hashes[i] = st.hash(h)
	}
	list := strings.Join(hashes, ", ")
	if list == "" {
		list = "-"
	}
	_, err := fmt.Fprintf(w, "%s %d\n%s %s\n%s %d canonical, %d legacy\n%s %t\n",
		st.label("markers:    "), r.Count(),
		st.label("hashes:     "), list,
		st.label("shapes:     "), r.Canonical, r.Legacy,
		st.label("markerOnly: "), r.MarkerOnly)
	return err
}

// writeSummary renders the migration summary as text.
func writeSummary(w io.Writer, r migrate.Report, st styler) error {
	s := r.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", st.label("mode:      "), s.Mode)
	fmt.Fprintf(&b, "%s %d processed, %d cached, %d skipped, %d failed (%.2fs)\n",
		st.label("files:     "), s.ProcessedCount, s.CachedCount, s.SkippedCount, s.ErrorCount, s.DurationSeconds)

	outcomes := make([]string, 0, len(s.Outcomes))
	for o, n := range s.Outcomes {
		if n > 0 {
			outcomes = append(outcomes, fmt.Sprintf("%s=%d", o, n))
		}
	}
	sort.Strings(outcomes)
	if len(outcomes) > 0 {
		fmt.Fprintf(&b, "%s %s\n", st.label("outcomes:  "), strings.Join(outcomes, " "))
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "%s %s: %s\n", st.failed("error:     "), e.Path, e.Error)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
