package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sheepshaver/sheepbug/go/debug"
	"github.com/sheepshaver/sheepbug/go/loader"
	"github.com/sheepshaver/sheepbug/go/lua"
	"github.com/sheepshaver/sheepbug/go/models"
	"github.com/sheepshaver/sheepbug/go/models/cpu"
	"github.com/sheepshaver/sheepbug/go/models/trace"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	c := &cobra.Command{
		Use:   "run <image>",
		Short: "Run an image under the hook module",
		Long: `Loads a 32-bit big-endian PowerPC ELF executable, or a raw code image at
mem.base, and runs it. The guest exits with the value of r3 when it
executes sc.

Send the pause signal (SIGUSR1 by default) to call hook_pause at the
next instruction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runImage(ctx, cfg, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	f := c.Flags()
	f.String("hooks-path", "", "directory searched for the hook module")
	f.String("hooks-module", "", "hook module name")
	f.String("backend", "", "emulator backend")
	f.String("signal", "", "signal that requests a pause")
	f.String("host-error", "", "on hook failure: continue or halt")
	f.Bool("compat-decode-write-set", false, "match decode breakpoints against the write set")
	f.String("trace", "", "write a hook journal to this file")
	f.Uint64("mem-size", 0, "size of guest RAM mapped at base")
	f.Uint64("entry", 0, "override the entry point")
	f.Uint64("max-steps", 0, "stop after this many instructions (0 is unlimited)")
	for key, flag := range map[string]string{
		"hooks.path":              "hooks-path",
		"hooks.module":            "hooks-module",
		"backend":                 "backend",
		"signal":                  "signal",
		"host_error":              "host-error",
		"compat_decode_write_set": "compat-decode-write-set",
		"trace":                   "trace",
		"mem.size":                "mem-size",
		"entry":                   "entry",
		"max_steps":               "max-steps",
	} {
		v.BindPFlag(key, f.Lookup(flag))
	}
	return c
}

// setup loads the image into a fresh machine with RAM mapped and the stack
// pointer at the top of RAM.
func setup(cfg *models.Config, path string) (machine, error) {
	l, err := loader.LoadFile(path, loader.Options{Base: cfg.Mem.Base, Entry: cfg.Entry})
	if err != nil {
		return nil, err
	}
	m, err := newMachine(cfg.Backend)
	if err != nil {
		return nil, err
	}
	if err := m.MemMapDesc(cfg.Mem.Base, cfg.Mem.Size, cpu.PROT_READ|cpu.PROT_WRITE, "ram"); err != nil {
		closeMachine(m)
		return nil, err
	}
	if err := loader.Map(l, m); err != nil {
		closeMachine(m)
		return nil, errors.Wrap(err, "failed to map image")
	}
	entry := l.Entry()
	if cfg.Entry != 0 {
		entry = cfg.Entry
	}
	m.SetPc(uint32(entry))
	m.SetGpr(1, uint32(cfg.Mem.Base+cfg.Mem.Size)-16)
	return m, nil
}

func closeMachine(m machine) {
	if c, ok := m.(io.Closer); ok {
		c.Close()
	}
}

func runImage(ctx context.Context, cfg *models.Config, path string, stdout, stderr io.Writer) error {
	color.NoColor = !cfg.Color
	log, logCloser, err := models.NewLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	c, err := setup(cfg, path)
	if err != nil {
		return err
	}
	defer closeMachine(c)
	log.Debug("image loaded", "path", path, "backend", cfg.Backend, "entry", c.Pc())

	bp := debug.NewRegistry(log)
	host, err := lua.NewHost(lua.Options{
		Path:   cfg.Hooks.Path,
		Module: cfg.Hooks.Module,
		Log:    log,
		Output: stdout,
		Color:  cfg.Color,
	}, c, bp)
	if err != nil {
		return err
	}
	defer host.Close()

	policy, err := debug.ParsePolicy(cfg.HostError)
	if err != nil {
		return err
	}
	opts := debug.Options{Policy: policy, CompatDecodeWriteSet: cfg.CompatDecodeWriteSet, Log: log}
	if cfg.Trace != "" {
		f, err := os.Create(cfg.Trace)
		if err != nil {
			return errors.Wrap(err, "failed to create journal")
		}
		journal, err := trace.NewWriter(f, "ppc", cfg.CompatDecodeWriteSet)
		if err != nil {
			f.Close()
			return err
		}
		defer func() {
			if err := journal.Close(); err != nil {
				log.Error("failed to close journal", "err", err)
			}
		}()
		opts.Journal = journal
	}

	pause := &debug.PauseSignal{}
	sig, err := debug.ParseSignal(cfg.Signal)
	if err != nil {
		return err
	}
	sigCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	pause.Notify(sigCtx, sig)

	d := debug.NewDispatcher(bp, pause, host, opts)
	c.Attach(d)
	err = c.Run(ctx, cfg.MaxSteps)
	if errors.Is(err, context.Canceled) {
		log.Info("interrupted", "pc", c.Pc())
	}
	stats := d.Stats()
	log.Info("emulation stopped",
		"steps", c.Steps(), "pc", c.Pc(),
		"pause", stats.Pause, "read", stats.Read, "write", stats.Write, "decode", stats.Decode)
	return err
}
