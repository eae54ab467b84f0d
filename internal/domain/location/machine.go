// Package location models the geolocation/geocoding flow as an explicit
// state machine so it can be tested without a real location provider.
package location

import (
	"context"
	"errors"
	"fmt"
)

// State names one step of the resolution flow.
type State string

const (
	StateIdle            State = "idle"
	StateLocating        State = "locating"
	StateLocated         State = "located"
	StateLocationFailed  State = "location_failed"
	StateGeocoding       State = "geocoding"
	StateResolved        State = "resolved"
	StateResolvedUnknown State = "resolved_unknown"
	StateGeocodeFailed   State = "geocode_failed"
)

// AddressNotFound is the literal placeholder used when the geocoding
// service answers with a non-OK status. Downstream submission still
// proceeds with this value.
const AddressNotFound = "Address not found"

// DefaultLocationWarning is surfaced when the platform could not determine
// a position and the fallback coordinates were used instead.
const DefaultLocationWarning = "Unable to retrieve your location. Showing default location."

// Domain errors
var (
	ErrResolverSpent = errors.New("resolver already ran; re-invoke with a fresh one")
	ErrGeocode       = errors.New("failed to fetch address")
)

// Fix is a coordinate pair.
type Fix struct {
	Latitude  float64
	Longitude float64
}

// Geocoder resolves coordinates to a human-readable address. found is
// false when the service answered but had no address for the position;
// a non-nil error means the service could not be reached at all.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (address string, found bool, err error)
}

// Result is the terminal output of one resolution run.
type Result struct {
	Latitude     float64
	Longitude    float64
	Address      string
	AddressFound bool
	Warning      string // non-fatal, set when the fallback fix was used
	State        State  // terminal state reached
}

// Resolver drives one pass through the state machine. It is single-use:
// there are no automatic retries, so a new attempt needs a new Resolver.
type Resolver struct {
	geocoder Geocoder
	fallback Fix
	state    State
	trace    []State
}

// NewResolver creates a Resolver with the given geocoder and fallback fix.
func NewResolver(g Geocoder, fallback Fix) *Resolver {
	r := &Resolver{geocoder: g, fallback: fallback, state: StateIdle}
	r.trace = append(r.trace, StateIdle)
	return r
}

// State returns the machine's current state.
func (r *Resolver) State() State { return r.state }

// Trace returns every state visited so far, in order.
func (r *Resolver) Trace() []State { return r.trace }

func (r *Resolver) to(s State) {
	r.state = s
	r.trace = append(r.trace, s)
}

// Resolve runs the machine to a terminal state. fix is the device position
// reported by the platform, or nil when the platform denied or could not
// determine one. In that case the fallback fix is used, a warning is set,
// and the flow continues as if located so missing permissions never block
// the pipeline. Only a geocoding transport failure returns an error.
// PRE: the resolver is in StateIdle
// POST: State is one of StateResolved, StateResolvedUnknown, StateGeocodeFailed
func (r *Resolver) Resolve(ctx context.Context, fix *Fix) (Result, error) {
	if r.state != StateIdle {
		return Result{}, ErrResolverSpent
	}
	r.to(StateLocating)

	var res Result
	if fix != nil {
		r.to(StateLocated)
		res.Latitude = fix.Latitude
		res.Longitude = fix.Longitude
	} else {
		r.to(StateLocationFailed)
		res.Latitude = r.fallback.Latitude
		res.Longitude = r.fallback.Longitude
		res.Warning = DefaultLocationWarning
	}

	r.to(StateGeocoding)
	address, found, err := r.geocoder.ReverseGeocode(ctx, res.Latitude, res.Longitude)
	if err != nil {
		r.to(StateGeocodeFailed)
		res.State = StateGeocodeFailed
		return res, fmt.Errorf("%w: %v", ErrGeocode, err)
	}
	if !found {
		r.to(StateResolvedUnknown)
		res.Address = AddressNotFound
		res.State = StateResolvedUnknown
		return res, nil
	}

	r.to(StateResolved)
	res.Address = address
	res.AddressFound = true
	res.State = StateResolved
	return res, nil
}
