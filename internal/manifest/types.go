package manifest

import (
	"fmt"
	"sort"
	"strings"
)

// Record locates one derivative. Path is a site-relative path for local
// derivatives or an absolute URL for published ones.
type Record struct {
	Width int    `json:"width"`
	Path  string `json:"path"`
}

// Remote reports whether the record points at an object-store URL.
func (r Record) Remote() bool {
	return strings.HasPrefix(r.Path, "http://") || strings.HasPrefix(r.Path, "https://")
}

// Entry maps a format name to its derivatives.
type Entry map[string][]Record

// Manifest maps a source path to its entry.
type Manifest map[string]Entry

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	if e == nil {
		return nil
	}
	out := make(Entry, len(e))
	for format, records := range e {
		out[format] = append([]Record(nil), records...)
	}
	return out
}

// Formats returns the entry's format names in sorted order.
func (e Entry) Formats() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the manifest.
func (m Manifest) Clone() Manifest {
	out := make(Manifest, len(m))
	for source, entry := range m {
		out[source] = entry.Clone()
	}
	return out
}

// Sources returns the manifest's source paths in sorted order.
func (m Manifest) Sources() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MergeRecords combines existing and incoming records of one format.
// Incoming records replace existing ones of the same width; other existing
// widths are kept. The result is sorted by ascending width.
func MergeRecords(existing, incoming []Record) []Record {
	byWidth := make(map[int]Record, len(existing)+len(incoming))
	for _, rec := range existing {
		byWidth[rec.Width] = rec
	}
	for _, rec := range incoming {
		byWidth[rec.Width] = rec
	}
	merged := make([]Record, 0, len(byWidth))
	for _, rec := range byWidth {
		merged = append(merged, rec)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Width < merged[j].Width
	})
	return merged
}

// Problem describes a structural defect found by Validate.
type Problem struct {
	Source string
	Format string
	Detail string
}

func (p Problem) String() string {
	if p.Format == "" {
		return fmt.Sprintf("%s: %s", p.Source, p.Detail)
	}
	return fmt.Sprintf("%s [%s]: %s", p.Source, p.Format, p.Detail)
}

// Validate checks that every record list has positive, unique, ascending
// widths and a non-empty path.
func (m Manifest) Validate() []Problem {
	var problems []Problem
	for _, source := range m.Sources() {
		entry := m[source]
		if entry == nil {
			problems = append(problems, Problem{Source: source, Detail: "null entry"})
			continue
		}
		for _, format := range entry.Formats() {
			records := entry[format]
			if len(records) == 0 {
				problems = append(problems, Problem{Source: source, Format: format, Detail: "no derivatives"})
				continue
			}
			prev := 0
			for i, rec := range records {
				switch {
				case rec.Width <= 0:
					problems = append(problems, Problem{Source: source, Format: format, Detail: fmt.Sprintf("record %d has non-positive width %d", i, rec.Width)})
				case i > 0 && rec.Width == prev:
					problems = append(problems, Problem{Source: source, Format: format, Detail: fmt.Sprintf("duplicate width %d", rec.Width)})
				case i > 0 && rec.Width < prev:
					problems = append(problems, Problem{Source: source, Format: format, Detail: fmt.Sprintf("width %d follows %d", rec.Width, prev)})
				}
				if strings.TrimSpace(rec.Path) == "" {
					problems = append(problems, Problem{Source: source, Format: format, Detail: fmt.Sprintf("width %d has empty path", rec.Width)})
				}
				prev = rec.Width
			}
		}
	}
	return problems
}
