package domain

import "time"

// Record describes one remote file returned by an archive search.
type Record struct {
	Provider   string
	Source     string
	Instrument string
	Physobs    string
	FileID     string
	WaveMin    float64
	WaveMax    float64
	WaveUnit   string
	Start      time.Time
	End        time.Time
	SizeKB     float64
	Info       string
}

// ResultSet is the ordered list of records returned by a search.
type ResultSet []Record

// Providers returns the distinct providers in first-seen order.
func (rs ResultSet) Providers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rs {
		if !seen[r.Provider] {
			seen[r.Provider] = true
			out = append(out, r.Provider)
		}
	}
	return out
}

// FileIDs returns the file ids held by the given provider, in order.
func (rs ResultSet) FileIDs(provider string) []string {
	var out []string
	for _, r := range rs {
		if r.Provider == provider {
			out = append(out, r.FileID)
		}
	}
	return out
}

// TotalSizeKB sums the reported record sizes.
func (rs ResultSet) TotalSizeKB() float64 {
	var total float64
	for _, r := range rs {
		total += r.SizeKB
	}
	return total
}

// DownloadedFile is a local copy of a remote record.
type DownloadedFile struct {
	Path    string
	Bytes   int64
	Skipped bool // already present locally, not transferred
}
