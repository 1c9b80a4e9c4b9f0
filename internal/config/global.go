// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"sync"
)

// ConfigDirEnv relocates the configuration directory, for hosts that run
// every extension against a shared per-node directory.
const ConfigDirEnv = EnvPrefix + "_CONFIG_DIR"

var dirOverride struct {
	sync.RWMutex
	dir string
}

// SetConfigDirOverride makes ConfigDir return dir, ahead of ConfigDirEnv.
// An empty dir removes the override.
func SetConfigDirOverride(dir string) {
	dirOverride.Lock()
	defer dirOverride.Unlock()
	dirOverride.dir = dir
}

// Reset removes the override set by SetConfigDirOverride.
func Reset() {
	SetConfigDirOverride("")
}

// overriddenDir returns the directory chosen by SetConfigDirOverride or
// ConfigDirEnv, in that order.
func overriddenDir() (string, bool) {
	dirOverride.RLock()
	dir := dirOverride.dir
	dirOverride.RUnlock()
	if dir != "" {
		return dir, true
	}
	if dir = os.Getenv(ConfigDirEnv); dir != "" {
		return dir, true
	}
	return "", false
}
