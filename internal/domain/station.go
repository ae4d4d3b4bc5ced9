package domain

import (
	"regexp"
	"strings"
)

// Station is a physical checkpoint in the event workflow where tags are
// scanned. The set is closed; ParseStation rejects anything else.
type Station string

const (
	StationEncoding              Station = "encoding"
	StationPacking               Station = "packing"
	StationDispatchVenue         Station = "dispatch-venue"
	StationRegistration          Station = "registration"
	StationGownIssue             Station = "gown-issue"
	StationGownReturn            Station = "gown-return"
	StationCertificateCollection Station = "certificate-collection"
	StationReturnHO              Station = "return-ho"
	StationAddressLabel          Station = "address-label"
	StationFinalDispatch         Station = "final-dispatch"
	StationHandover              Station = "handover"
)

// allStations is in workflow order; dashboards iterate it so every station
// reports a count even when nothing was ever scanned there.
var allStations = []Station{
	StationEncoding,
	StationPacking,
	StationDispatchVenue,
	StationRegistration,
	StationGownIssue,
	StationGownReturn,
	StationCertificateCollection,
	StationReturnHO,
	StationAddressLabel,
	StationFinalDispatch,
	StationHandover,
}

// AllStations returns the 11 defined stations in workflow order.
// The returned slice is a copy; callers may reorder it freely.
func AllStations() []Station {
	out := make([]Station, len(allStations))
	copy(out, allStations)
	return out
}

// Valid reports whether s is one of the 11 defined stations.
func (s Station) Valid() bool {
	for _, st := range allStations {
		if s == st {
			return true
		}
	}
	return false
}

// ParseStation normalizes and validates a caller-supplied station string.
func ParseStation(raw string) (Station, bool) {
	s := Station(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// Status returns the tag status implied by a scan at this station.
// It is a pure function of the station, independent of the tag's prior
// status, so repeated scans at the same station are idempotent in effect.
func (s Station) Status() TagStatus {
	switch s {
	case StationFinalDispatch:
		return StatusDispatched
	case StationHandover:
		return StatusDelivered
	case StationReturnHO:
		return StatusReturned
	default:
		return StatusScanned
	}
}

// titoStations maps internal stations to the ticketing system's check-in
// vocabulary. encoding and handover are deliberately absent: scans there
// never trigger a check-in.
var titoStations = map[Station]string{
	StationPacking:               "Packing",
	StationDispatchVenue:         "Dispatch to Convocation",
	StationRegistration:          "Registration",
	StationGownIssue:             "Gown Issued",
	StationGownReturn:            "Gown Returned",
	StationCertificateCollection: "Certificate Collected",
	StationReturnHO:              "Dispatch to Head Office",
	StationAddressLabel:          "Address Label Printed",
	StationFinalDispatch:         "Dispatched DTDC",
}

// TitoStation returns the ticketing system's station name for s, and false
// when scans at s should not be synced.
func (s Station) TitoStation() (string, bool) {
	name, ok := titoStations[s]
	return name, ok
}

// graduateEPC matches the certificate tag format, e.g. "118AEC1001":
// a convocation prefix, a programme code, and a serial.
var graduateEPC = regexp.MustCompile(`^[0-9]{3}[A-Z]{2,4}[0-9]{3,5}$`)

// boxEPCPrefix marks container tags.
const boxEPCPrefix = "BOX-"

// NormalizeEPC trims and uppercases a raw EPC. All lookups and writes go
// through this so the same physical tag can never appear under two spellings.
func NormalizeEPC(epc string) string {
	return strings.ToUpper(strings.TrimSpace(epc))
}

// ValidEPC reports whether a normalized EPC is syntactically acceptable:
// either the graduate tag format or a box tag. Invalid EPCs are rejected
// before any store call is made.
func ValidEPC(epc string) bool {
	if strings.HasPrefix(epc, boxEPCPrefix) {
		return len(epc) > len(boxEPCPrefix)
	}
	return graduateEPC.MatchString(epc)
}

// IsBoxEPC reports whether the EPC names a container tag.
func IsBoxEPC(epc string) bool {
	return strings.HasPrefix(epc, boxEPCPrefix)
}
