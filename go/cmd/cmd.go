package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sheepshaver/sheepbug/go/lua"
	"github.com/sheepshaver/sheepbug/go/models"
)

var errHeader = color.New(color.FgRed, color.Bold)

// NewRootCmd builds the sheepbug command tree. Each call returns an
// independent tree with its own configuration.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string
	root := &cobra.Command{
		Use:   "sheepbug",
		Short: "Scriptable breakpoints for a PowerPC emulator",
		Long: `sheepbug runs a 32-bit PowerPC image and calls a Lua hook module on
breakpoints, watched memory accesses and pause signals.

The hook module must define init_debugger, hook_pause, hook_read,
hook_write and hook_decode. It is loaded from hooks.path by name.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./sheepbug.yaml or the user config dir)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-file", "", "also write JSON logs to this file")
	flags.Bool("color", isatty.IsTerminal(os.Stdout.Fd()), "colorize output")
	flags.Uint64("base", 0, "guest RAM base and load address for raw images")
	v.BindPFlag("log.level", flags.Lookup("log-level"))
	v.BindPFlag("log.file", flags.Lookup("log-file"))
	v.BindPFlag("color", flags.Lookup("color"))
	v.BindPFlag("mem.base", flags.Lookup("base"))

	root.AddCommand(newRunCmd(v), newDisCmd(v), newJournalCmd(v))
	return root
}

func setDefaults(v *viper.Viper) {
	def := models.DefaultConfig()
	v.SetDefault("hooks.path", def.Hooks.Path)
	v.SetDefault("hooks.module", def.Hooks.Module)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("mem.base", def.Mem.Base)
	v.SetDefault("mem.size", def.Mem.Size)
	v.SetDefault("signal", def.Signal)
	v.SetDefault("host_error", def.HostError)
	v.SetDefault("compat_decode_write_set", def.CompatDecodeWriteSet)
	v.SetDefault("backend", def.Backend)
}

// initConfig reads the config file and SHEEPBUG_* environment variables.
func initConfig(v *viper.Viper, cfgFile string) error {
	setDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("sheepbug")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(models.ConfigDir())
	}
	v.SetEnvPrefix("SHEEPBUG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return errors.Wrap(err, "failed to read config")
		}
	}
	return nil
}

func loadConfig(v *viper.Viper) (*models.Config, error) {
	cfg := models.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// PrintError prints an error, and a stacktrace if available.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 40))
	errHeader.Fprint(w, "Error: ")
	fmt.Fprintf(w, "%s\n", err)
	st, ok := errors.Cause(err).(stackTracer)
	if !ok {
		st, ok = err.(stackTracer)
	}
	if !ok {
		return
	}
	// column widths for file:line and function
	var frames [][2]string
	width := 0
	for _, f := range st.StackTrace() {
		fileline := fmt.Sprintf("%s:%d", f, f)
		method := fmt.Sprintf("%n", f)
		frames = append(frames, [2]string{fileline, method})
		if len(fileline) > width {
			width = len(fileline)
		}
		if method == "main" {
			break
		}
	}
	for _, f := range frames {
		fmt.Fprintf(w, "%-*s | %s()\n", width, f[0], f[1])
	}
}

// stopped reports whether err ends a run normally: the guest exited or the
// run was interrupted.
func stopped(err error) bool {
	var status models.ExitStatus
	return errors.As(err, &status) || errors.Is(err, context.Canceled)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	var status models.ExitStatus
	if errors.As(err, &status) {
		return int(status)
	}
	var ierr *lua.InitError
	if errors.As(err, &ierr) {
		return models.ExitInitFailure
	}
	return 1
}

// Execute runs the command line and returns the process exit status.
func Execute(args []string, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetErr(stderr)
	err := root.Execute()
	if err != nil && !stopped(err) {
		PrintError(stderr, err)
	}
	return exitCode(err)
}
