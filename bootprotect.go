// Package bootprotect toggles hardware write protection on bootloader
// storage regions, so that an environment read/modify/write tool can
// temporarily unlock a read-only region, perform its write and restore
// the previous protection state.
//
// How a region is switched writable depends on the hardware, so the
// package probes a set of hardware strategies and binds the first one
// that recognizes the device. Only the eMMC boot-area strategy (the
// force_ro sysfs attribute of mmcblkXbootY partitions) exists today.
package bootprotect

import "github.com/pkg/errors"

// Protector toggles write protection for one device. Unprotect and
// Reprotect never report failure: protection toggling is an optional
// safety mechanism and must not block the caller's primary workflow.
// Failures are visible only through the logger configured at probe time.
type Protector interface {
	// Unprotect records the current protection state of the device and
	// forces it writable.
	Unprotect()

	// Reprotect restores the state observed by the most recent Unprotect
	// call. It does nothing if the device was never unprotected, or if
	// the observed state was unrecognized.
	Reprotect()
}

// matcher inspects a device path and binds a Protector when its hardware
// strategy applies. nil, nil means the strategy does not apply, which is
// not an error.
type matcher func(cfg *config, devname string) (Protector, error)

// matchers are tried in order; the first one to bind wins.
var matchers = []matcher{
	probeMmcblkBoot,
}

// Probe returns a Protector for the first hardware strategy that
// recognizes devname. It returns nil, nil when no strategy applies;
// callers should then proceed without protection toggling. Probing does
// not touch the protection control itself beyond a permission check.
func Probe(devname string, opts ...Option) (Protector, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	for _, m := range matchers {
		p, err := m(cfg, devname)
		if err != nil {
			return nil, errors.Wrapf(err, "probing write protection for %s", devname)
		}
		if p != nil {
			return p, nil
		}
	}
	return nil, nil
}
