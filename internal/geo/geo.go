package geo

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAddressMissing means one of the addresses was empty, so no estimate can be made.
	ErrAddressMissing = errors.New("both candidate and job site addresses are required")
	// ErrNotFound is returned by providers that had no result for an address.
	ErrNotFound = errors.New("address not found")
)

const (
	SideCandidate = "candidate"
	SideJob       = "job"
)

// Coordinates is a WGS84 latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is a successful geocoding result.
type Location struct {
	Coordinates
	FormattedAddress string  `json:"formatted_address,omitempty"`
	Confidence       float64 `json:"confidence,omitempty"`
	Provider         string  `json:"provider,omitempty"`
}

// GeocodeError records which side of a commute could not be resolved.
type GeocodeError struct {
	Candidate error
	Job       error
}

func (e *GeocodeError) Error() string {
	parts := make([]string, 0, 2)
	if e.Candidate != nil {
		parts = append(parts, fmt.Sprintf("%s: %v", SideCandidate, e.Candidate))
	}
	if e.Job != nil {
		parts = append(parts, fmt.Sprintf("%s: %v", SideJob, e.Job))
	}
	return "failed to geocode addresses: " + strings.Join(parts, "; ")
}

func (e *GeocodeError) Unwrap() []error {
	var errs []error
	if e.Candidate != nil {
		errs = append(errs, e.Candidate)
	}
	if e.Job != nil {
		errs = append(errs, e.Job)
	}
	return errs
}
