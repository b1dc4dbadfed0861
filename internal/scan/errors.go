package scan

import (
	"errors"
	"fmt"
)

// ErrAllParticipantsFailed is returned when every participant in a scan
// failed. The Result still lists the individual failures.
var ErrAllParticipantsFailed = errors.New("scan: every participant failed")

// ScanError records a participant whose directory or files could not be
// read. It is isolated to that participant.
type ScanError struct {
	Participant string
	Path        string
	Err         error
}

func (e *ScanError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("scan: participant %s: %v", e.Participant, e.Err)
	}
	return fmt.Sprintf("scan: participant %s: %s: %v", e.Participant, e.Path, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }
