package bootprotect

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// forceROAttr is the sysfs attribute that keeps an eMMC boot area
// read-only while it holds '1'.
const forceROAttr = "force_ro"

// sysfsPathMax bounds derived control paths. A longer path makes the
// probe decline instead of truncating into a wrong path.
const sysfsPathMax = 120

const (
	unprotChar = '0'
	protChar   = '1'
)

// protState is the protection state observed at unprotect time. The zero
// value means no usable state was observed and reprotect must not write.
type protState int

const (
	stateUndefined protState = iota
	stateUnprotected
	stateProtected
)

func (s protState) sentinel() byte {
	if s == stateProtected {
		return protChar
	}
	return unprotChar
}

// mmcblkBootName matches the boot-area partitions of eMMC devices,
// e.g. mmcblk0boot0.
var mmcblkBootName = regexp.MustCompile(`^mmcblk[0-9]boot[0-9]$`)

// mmcblkBoot toggles the force_ro attribute of one eMMC boot-area
// partition.
type mmcblkBoot struct {
	forceROPath string
	saved       protState
	log         *zap.Logger
}

// probeMmcblkBoot binds an mmcblkBoot protector when devname names an
// eMMC boot-area partition and its force_ro attribute is writable in the
// current permission context.
func probeMmcblkBoot(cfg *config, devname string) (Protector, error) {
	name, ok := strings.CutPrefix(devname, cfg.devDir)
	if !ok {
		return nil, nil
	}
	if !mmcblkBootName.MatchString(name) {
		return nil, nil
	}
	path := filepath.Join(cfg.sysfsRoot, name, forceROAttr)
	if len(path) >= sysfsPathMax {
		return nil, nil
	}
	if err := unix.Access(path, unix.W_OK); err != nil {
		// Absent or not writable on this platform, so the strategy does
		// not apply.
		return nil, nil
	}
	return &mmcblkBoot{
		forceROPath: path,
		log:         cfg.log.With(zap.String("forceRO", path)),
	}, nil
}

// Unprotect archives the current force_ro value and clears it so the
// boot area accepts writes.
func (m *mmcblkBoot) Unprotect() {
	f, err := os.OpenFile(m.forceROPath, os.O_RDWR, 0)
	if err != nil {
		m.log.Warn("cannot open force_ro, leaving protection as is", zap.Error(err))
		return
	}
	defer f.Close()

	var b [1]byte
	n, err := f.Read(b[:])
	if n != 1 || (b[0] != unprotChar && b[0] != protChar) {
		// Unknown baseline. Do not guess a value to write, and make sure
		// a later Reprotect does not either.
		m.saved = stateUndefined
		m.log.Warn("unrecognized force_ro state", zap.Int("read", n), zap.Error(err))
		return
	}
	if b[0] == protChar {
		m.saved = stateProtected
	} else {
		m.saved = stateUnprotected
	}
	if _, err := f.WriteAt([]byte{unprotChar}, 0); err != nil {
		m.log.Warn("cannot clear force_ro", zap.Error(err))
	}
}

// Reprotect restores the force_ro value captured by the last Unprotect.
// Protection is never re-enabled from an unknown baseline.
func (m *mmcblkBoot) Reprotect() {
	if m.saved == stateUndefined {
		return
	}
	f, err := os.OpenFile(m.forceROPath, os.O_WRONLY, 0)
	if err != nil {
		m.log.Warn("cannot open force_ro, leaving device writable", zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.WriteAt([]byte{m.saved.sentinel()}, 0); err != nil {
		m.log.Warn("cannot restore force_ro", zap.Error(err))
	}
}
