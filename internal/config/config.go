// Package config loads process-wide defaults for scope options from a
// TOML file, so a deployment can set e.g. a site-wide default wait or
// max lock time without every call site repeating it.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults mirrors the §6 configuration-options table.
type Defaults struct {
	WaitSeconds       float64 `toml:"wait"`
	UseTemporary      bool    `toml:"use_temporary"`
	BackupDuringLock  bool    `toml:"backup_during_lock"`
	Backup            bool    `toml:"backup"`
	BackupIfReadonly  bool    `toml:"backup_if_readonly"`
	CheckHash         bool    `toml:"check_hash"`
	MaxLockTimeSecond float64 `toml:"max_lock_time"`
}

// Default returns the spec.md §6 built-in defaults.
func Default() Defaults {
	return Defaults{
		WaitSeconds:  1.0,
		UseTemporary: true,
		CheckHash:    true,
	}
}

// Wait returns WaitSeconds as a time.Duration.
func (d Defaults) Wait() time.Duration {
	return time.Duration(d.WaitSeconds * float64(time.Second))
}

// MaxLockTime returns MaxLockTimeSecond as a time.Duration, or zero if
// unset (meaning "no expiry", per §6).
func (d Defaults) MaxLockTime() time.Duration {
	if d.MaxLockTimeSecond <= 0 {
		return 0
	}
	return time.Duration(d.MaxLockTimeSecond * float64(time.Second))
}

// Load reads defaults from path, starting from Default() so an omitted
// field keeps its built-in value rather than zeroing out.
func Load(path string) (Defaults, error) {
	d := Default()
	if _, err := toml.DecodeFile(path, &d); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Defaults{}, err
	}
	return d, nil
}
