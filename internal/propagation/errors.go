package propagation

import (
	"fmt"
	"time"
)

// DecayedError reports that the propagated radius fell below one Earth
// radius: the object has reentered and the element set is no longer
// meaningful at or after the requested time.
type DecayedError struct {
	CatalogNumber int
	At            time.Time
}

func (e *DecayedError) Error() string {
	return fmt.Sprintf("satellite %d decayed: sub-surface radius at %s",
		e.CatalogNumber, e.At.UTC().Format(time.RFC3339))
}

// ModelError reports that the perturbation model broke down for this
// element set: an eccentricity driven out of [0, 1), a Kepler solution
// that will not converge, or an orbit outside the near-earth regime the
// model supports.
type ModelError struct {
	CatalogNumber int
	Reason        string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("satellite %d: sgp4 model: %s", e.CatalogNumber, e.Reason)
}
