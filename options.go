package bootprotect

import "go.uber.org/zap"

const (
	defaultDevDir    = "/dev/"
	defaultSysfsRoot = "/sys/class/block"
)

// config holds probe settings shared by all strategies.
type config struct {
	devDir    string
	sysfsRoot string
	log       *zap.Logger
}

// Option configures a probe and the Protector it produces.
type Option func(*config)

func defaultConfig() *config {
	return &config{
		devDir:    defaultDevDir,
		sysfsRoot: defaultSysfsRoot,
		log:       zap.NewNop(),
	}
}

// WithLogger directs diagnostics about swallowed control failures to l.
// Unprotect and Reprotect never return errors; this is the only way to
// observe them.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithDevDir overrides the directory a device path must start with to be
// considered by any strategy.
func WithDevDir(dir string) Option {
	return func(c *config) {
		c.devDir = dir
	}
}

// WithSysfsRoot overrides the block-device class directory under which
// control attributes are derived.
func WithSysfsRoot(root string) Option {
	return func(c *config) {
		c.sysfsRoot = root
	}
}
