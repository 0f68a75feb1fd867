package acquisition

import (
	"errors"
	"fmt"

	"github.com/roman-kulish/orbital-survey/internal/geotag"
)

// Kind classifies why an iteration was abandoned
type Kind int

const (
	// CollaboratorFault is a failure of a sensor, the position source or the camera
	CollaboratorFault Kind = iota + 1

	// PersistenceFault is a failure to append the sample to the record store
	PersistenceFault

	// ConversionFault is a position that cannot be expressed as a geotag
	ConversionFault

	// InternalFault is a panic recovered at the iteration boundary
	InternalFault
)

func (k Kind) String() string {
	switch k {
	case CollaboratorFault:
		return "CollaboratorFault"
	case PersistenceFault:
		return "PersistenceFault"
	case ConversionFault:
		return "ConversionFault"
	case InternalFault:
		return "InternalFault"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Fault is the error an abandoned iteration ends with
type Fault struct {
	Kind Kind
	Op   string // Step of the iteration that failed
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s: %s", f.Kind, f.Op, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// classify wraps err into a Fault of the given kind, unless err already is
// a Fault or is a geotag conversion failure
func classify(kind Kind, op string, err error) *Fault {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault
	}

	var convErr *geotag.ConversionError
	if errors.As(err, &convErr) {
		kind = ConversionFault
	}

	return &Fault{Kind: kind, Op: op, Err: err}
}
