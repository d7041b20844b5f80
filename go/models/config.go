package models

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"
)

const (
	HostErrorContinue = "continue"
	HostErrorHalt     = "halt"
)

type HooksConfig struct {
	// directory appended to the Lua module search path
	Path string `mapstructure:"path"`
	// module required at startup
	Module string `mapstructure:"module"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// optional JSON log file, in addition to stderr
	File string `mapstructure:"file"`
}

type MemConfig struct {
	Base uint64 `mapstructure:"base"`
	Size uint64 `mapstructure:"size"`
}

type Config struct {
	Hooks HooksConfig `mapstructure:"hooks"`
	Log   LogConfig   `mapstructure:"log"`
	Mem   MemConfig   `mapstructure:"mem"`

	// name of the signal that requests a pause, e.g. SIGUSR1
	Signal string `mapstructure:"signal"`
	// what to do when a hook call fails: "continue" or "halt"
	HostError string `mapstructure:"host_error"`
	// check the pc against the write breakpoint set instead of the exec set on decode
	CompatDecodeWriteSet bool `mapstructure:"compat_decode_write_set"`

	// emulator backend: "interp", or "unicorn" in builds tagged unicorn
	Backend string `mapstructure:"backend"`

	// hook journal output file
	Trace    string `mapstructure:"trace"`
	Entry    uint64 `mapstructure:"entry"`
	MaxSteps uint64 `mapstructure:"max_steps"`
	Color    bool   `mapstructure:"color"`
}

var configDirs = configdir.New("sheepbug", "sheepbug")

// ConfigDir is the per-user configuration directory.
func ConfigDir() string {
	folders := configDirs.QueryFolders(configdir.Global)
	if len(folders) == 0 {
		return "."
	}
	return folders[0].Path
}

// DefaultHookPath is where the hook module is looked up when no path is configured.
func DefaultHookPath() string {
	return filepath.Join(ConfigDir(), "hooks")
}

func DefaultConfig() *Config {
	return &Config{
		Backend:   "interp",
		Hooks:     HooksConfig{Path: DefaultHookPath(), Module: "sheepbug_hooks"},
		Log:       LogConfig{Level: "info"},
		Mem:       MemConfig{Base: 0, Size: 0x1000000},
		Signal:    "SIGUSR1",
		HostError: HostErrorContinue,
	}
}

func (c *Config) Validate() error {
	switch c.HostError {
	case HostErrorContinue, HostErrorHalt:
	default:
		return errors.Errorf("host_error must be %q or %q, got %q", HostErrorContinue, HostErrorHalt, c.HostError)
	}
	if c.Hooks.Module == "" {
		return errors.New("hooks.module must not be empty")
	}
	if c.Mem.Size == 0 || c.Mem.Base+c.Mem.Size > 1<<32 {
		return errors.Errorf("memory %#x+%#x does not fit a 32-bit address space", c.Mem.Base, c.Mem.Size)
	}
	return nil
}
