package domain

import "time"

// TitoCheckin reports the outcome of one ticketing check-in attempt.
// A failed check-in never fails the scan that triggered it: the internal
// record of physical movement is authoritative, the external sync is not.
type TitoCheckin struct {
	Station string `json:"station"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DashboardStats is the read-side summary computed over the full tag
// population. ByStation always carries all 11 stations, zero-filled.
type DashboardStats struct {
	TotalTags   int               `json:"total_tags"`
	ByType      map[TagType]int   `json:"by_type"`
	ByStatus    map[TagStatus]int `json:"by_status"`
	ByStation   map[Station]int   `json:"by_station"`
	RecentScans []RecentScan      `json:"recent_scans"`
	Boxes       BoxSummary        `json:"boxes"`
}

// RecentScan is one entry in the dashboard's live scan feed: a scan record
// flattened together with the identity of the tag it belongs to.
type RecentScan struct {
	EPC          string    `json:"epc"`
	TagType      TagType   `json:"tag_type"`
	GraduateName string    `json:"graduate_name,omitempty"`
	Station      Station   `json:"station"`
	Timestamp    time.Time `json:"timestamp"`
	ScannedBy    string    `json:"scanned_by"`
	Action       string    `json:"action"`
}

// BoxSummary aggregates the container tags.
type BoxSummary struct {
	TotalBoxes   int `json:"total_boxes"`
	ItemsInBoxes int `json:"items_in_boxes"`
}

// ReconciliationReport lists, for one station, which non-void tags have
// never been scanned there. A tag counts as scanned if any entry in its
// full scan history names the station, not just its current station.
type ReconciliationReport struct {
	Station          Station      `json:"station"`
	TotalEncoded     int          `json:"total_encoded"`
	ScannedAtStation int          `json:"scanned_at_station"`
	Missing          []MissingTag `json:"missing"`
}

// MissingTag carries enough context about an unreconciled tag for manual
// follow-up at the event.
type MissingTag struct {
	EPC               string    `json:"epc"`
	Type              TagType   `json:"type"`
	GraduateName      string    `json:"graduate_name,omitempty"`
	ConvocationNumber string    `json:"convocation_number,omitempty"`
	Status            TagStatus `json:"status"`
	CurrentStation    Station   `json:"current_station,omitempty"`
}
