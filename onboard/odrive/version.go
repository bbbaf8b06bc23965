package odrive

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver"

	deverrors "github.com/CodedInternet/beebot/onboard/errors"
)

const (
	// DefaultFirmware is the firmware range the velocity commands have been
	// used against.
	DefaultFirmware = ">=0.5.0"

	devFirmware = "DEV"
)

// CheckVersion compares a firmware version reported by the controller with a
// semver constraint.
func CheckVersion(device, found, required string) error {
	if found == devFirmware {
		// locally built firmware, consider it safe
		return nil
	}

	constraint, err := semver.NewConstraint(required)
	if err != nil {
		return fmt.Errorf("bad firmware constraint %q: %w", required, err)
	}

	version, err := semver.NewVersion(found)
	if err != nil || !constraint.Check(version) {
		return deverrors.UnsupportedVersionError{
			Device:   device,
			Found:    found,
			Required: required,
		}
	}

	return nil
}

// Verify reads the firmware version from c and checks it against required.
func Verify(ctx context.Context, device string, c Controller, required string) (string, error) {
	found, err := c.Version(ctx)
	if err != nil {
		return "", err
	}

	return found, CheckVersion(device, found, required)
}
