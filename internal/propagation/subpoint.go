package propagation

import (
	"time"

	"github.com/nmapgithub/HELLSPHERE/internal/transform"
)

// SubpointAt propagates the orbit to time t and returns the geodetic point
// directly beneath the satellite, corrected for sidereal time at that instant.
func (o *Orbit) SubpointAt(t time.Time) (transform.Subpoint, error) {
	t = t.UTC()
	teme, err := o.propagate(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	if err != nil {
		return transform.Subpoint{}, err
	}

	ecef := transform.TEMEToECEF(teme, t)
	return transform.ECEFToSubpoint(ecef), nil
}
