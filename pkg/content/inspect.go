package content

import "github.com/test-moodle/moodle-tiny-translations/pkg/marker"

// Report summarizes the markers found in a document.
type Report struct {
	Hashes     []string `json:"hashes" toml:"hashes"`
	Canonical  int      `json:"canonical" toml:"canonical"`
	Legacy     int      `json:"legacy" toml:"legacy"`
	MarkerOnly bool     `json:"markerOnly" toml:"markerOnly"`
}

// Count returns the number of markers found.
func (r Report) Count() int { return len(r.Hashes) }

// Inspect reports the markers present in content without modifying it.
func (t *Transformer) Inspect(content string) Report {
	r := Report{Hashes: []string{}}
	for m := range marker.Find(content) {
		r.Hashes = append(r.Hashes, m.Hash)
		if m.Canonical {
			r.Canonical++
		} else {
			r.Legacy++
		}
	}
	r.MarkerOnly = t.IsMarkerOnly(content)
	return r
}
