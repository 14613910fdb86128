package tagcog

import "github.com/pkg/errors"

// Mode selects how a batch is reduced to poses.
type Mode string

const (
	// ModeCascade folds each accepted marker into a running accumulator that is
	// divided in place by the batch size, publishing after every accepted marker.
	// The divisor counts filtered markers too, so successive poses compound.
	ModeCascade Mode = "cascade"
	// ModeMean publishes once per batch with the true mean of the accepted markers.
	ModeMean Mode = "mean"
)

// ParseMode converts a configured mode name. The empty string selects ModeCascade.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case "", ModeCascade:
		return ModeCascade, nil
	case ModeMean:
		return ModeMean, nil
	default:
		return "", errors.Errorf("unknown centroid mode %q, expected %q or %q", name, ModeCascade, ModeMean)
	}
}
