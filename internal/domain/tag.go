// Package domain contains the core data types for the tag tracking engine.
// Apart from uuid it has no external dependencies and is imported by every
// other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TagType distinguishes the two kinds of physical tags in circulation.
type TagType string

const (
	// TagTypeGraduate is a tag bonded to a graduate's certificate.
	TagTypeGraduate TagType = "graduate"
	// TagTypeBox is a tag bonded to a shipping box that holds certificates.
	TagTypeBox TagType = "box"
)

// TagStatus is the derived lifecycle state of a tag. It is advanced by the
// scan engine as a pure function of the station scanned at; callers never
// choose a status directly.
type TagStatus string

const (
	StatusEncoded    TagStatus = "encoded"
	StatusScanned    TagStatus = "scanned"
	StatusDispatched TagStatus = "dispatched"
	StatusDelivered  TagStatus = "delivered"
	StatusReturned   TagStatus = "returned"
	// StatusVoid is the soft-delete terminal state. It is set externally,
	// never by the scan engine, and excludes the tag from reconciliation.
	StatusVoid TagStatus = "void"
)

// Tag represents a tracked physical RFID label bonded to either a graduate's
// certificate or a shipping box.
// ID is the opaque store-assigned record identifier; EPC is the code encoded
// on the physical tag, uppercase-normalized and unique across the population.
// Both are immutable once created, as are Type, EncodedAt, and EncodedBy.
type Tag struct {
	ID   string  `json:"id"`
	EPC  string  `json:"epc"`
	Type TagType `json:"type"`

	// Graduate-only fields. A graduate tag without a TitoTicketSlug is
	// non-functional for check-in sync: a warning state, not an error.
	ConvocationNumber string `json:"convocation_number,omitempty"`
	GraduateName      string `json:"graduate_name,omitempty"`
	TitoTicketID      string `json:"tito_ticket_id,omitempty"`
	TitoTicketSlug    string `json:"tito_ticket_slug,omitempty"`

	// Box-only fields. BoxContents holds item EPCs with set semantics:
	// no duplicates, order irrelevant.
	BoxID       string   `json:"box_id,omitempty"`
	BoxLabel    string   `json:"box_label,omitempty"`
	BoxContents []string `json:"box_contents,omitempty"`

	Status         TagStatus `json:"status"`
	CurrentStation Station   `json:"current_station,omitempty"`

	EncodedAt time.Time `json:"encoded_at"`
	EncodedBy string    `json:"encoded_by,omitempty"`

	LastScanAt      *time.Time `json:"last_scan_at,omitempty"` // nil until first scan
	LastScanBy      string     `json:"last_scan_by,omitempty"`
	LastScanStation Station    `json:"last_scan_station,omitempty"`

	// ScanHistory is an append-only audit log: one entry per scan event,
	// never truncated or reordered. Repeated scans at the same station
	// still append: scans are a log, not a dedup set.
	ScanHistory []ScanRecord `json:"scan_history"`
}

// ScanRecord is one immutable entry in a tag's scan history.
type ScanRecord struct {
	ID        uuid.UUID `json:"id"`
	Station   Station   `json:"station"`
	Timestamp time.Time `json:"timestamp"`
	ScannedBy string    `json:"scannedBy"`
	Action    string    `json:"action"`
	Notes     string    `json:"notes,omitempty"`
}

// NewTag carries the caller-supplied fields for encoding a fresh tag.
// Status, current station, and the encoding timestamp are filled in by the
// tag service.
type NewTag struct {
	EPC               string
	Type              TagType
	ConvocationNumber string
	GraduateName      string
	TitoTicketID      string
	TitoTicketSlug    string
	BoxID             string
	BoxLabel          string
	EncodedBy         string
}

// TagUpdate is a partial update applied to an existing tag record.
// Nil pointer fields are left unchanged; a nil slice leaves the stored
// list untouched.
type TagUpdate struct {
	Status          *TagStatus
	CurrentStation  *Station
	LastScanAt      *time.Time
	LastScanBy      *string
	LastScanStation *Station
	ScanHistory     []ScanRecord
	BoxContents     []string
}
