package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/studiowebux/kexedit/internal/cli"
	"github.com/studiowebux/kexedit/internal/config"
	"github.com/studiowebux/kexedit/internal/device"
	"github.com/studiowebux/kexedit/internal/editor"
	"github.com/studiowebux/kexedit/internal/history"
	"github.com/studiowebux/kexedit/internal/keybinds"
	"github.com/studiowebux/kexedit/internal/keymap"
	"github.com/studiowebux/kexedit/internal/logging"
	"github.com/studiowebux/kexedit/internal/tui"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kexedit",
	Short: "Extended keymap editor for HID-to-XT converters",
	Long: `kexedit edits the extended keymap of a USB HID to XT/AT keyboard converter.

Run without arguments to start the interactive editor, or use a subcommand
for scripted access to the same device endpoints.

Examples:
  kexedit                              # Edit the active device in the TUI
  kexedit -d bench                     # Edit a named device from config.yaml
  kexedit --url http://192.168.4.1 get # Print the table of an ad-hoc device
  kexedit set 0x04 --base 1E --dead    # Change one entry
  kexedit export -o keymap_ex.json     # Save the device's table
  kexedit emulate --listen :8080       # Serve a fake device`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Load and print the keymap table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		usb := -1
		if flagGetUSB != "" {
			v, err := parseUSB(flagGetUSB)
			if err != nil {
				return err
			}
			usb = v
		}
		return withEnv(func(ctx context.Context, env *cli.Env) error {
			return cli.Get(ctx, env, cli.GetOptions{USB: usb, Query: flagQuery, OutputFormat: flagOutput})
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set <usb>",
	Short: "Change one entry; fields not given keep their current value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		usb, err := parseUSB(args[0])
		if err != nil {
			return err
		}
		opts := cli.SetOptions{USB: usb}
		flags := cmd.Flags()
		for name, dst := range map[string]**string{
			"base":  &opts.Base,
			"shift": &opts.Shift,
			"altgr": &opts.AltGr,
			"ctrl":  &opts.Ctrl,
		} {
			if flags.Changed(name) {
				v, _ := flags.GetString(name)
				*dst = &v
			}
		}
		if flags.Changed("dead") {
			opts.Dead = &flagDead
		}
		return withEnv(func(ctx context.Context, env *cli.Env) error {
			return cli.Set(ctx, env, opts)
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the device's table to a file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(func(ctx context.Context, env *cli.Env) error {
			return cli.Export(ctx, env, flagExportFile)
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Upload a 256-entry table file and reload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(func(ctx context.Context, env *cli.Env) error {
			return cli.Import(ctx, env, args[0])
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the device's default table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagYes && !cli.IsInteractive() {
			return errors.New("refusing to reset without confirmation (pass --yes)")
		}
		return withEnv(func(ctx context.Context, env *cli.Env) error {
			return cli.Reset(ctx, env, flagYes)
		})
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the device answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cli.Ping)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or clear the operation journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(func(_ context.Context, env *cli.Env) error {
			return cli.History(env, cli.HistoryOptions{Limit: flagLimit, Clear: flagClear, All: flagAll, Stats: flagStats})
		})
	},
}

var emulateCmd = &cobra.Command{
	Use:   "emulate",
	Short: "Serve an emulated device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}
		if err := logging.Console(os.Stderr, settings.LogLevel); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.Emulate(ctx, cli.EmulateOptions{
			Listen:    flagListen,
			StatePath: flagState,
			Proto:     flagProto,
			Logging:   true,
		}, os.Stdout)
	},
}

var keybindsCmd = &cobra.Command{
	Use:   "keybinds",
	Short: "Check or create the key bindings file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if flagInit {
			if err := keybinds.CreateExampleConfig(config.KeybindsFile); err != nil {
				return err
			}
			fmt.Printf("Wrote default key bindings to %s\n", config.KeybindsFile)
			return nil
		}

		registry, err := keybinds.LoadOrDefault(config.KeybindsFile)
		if err != nil {
			return err
		}
		result := keybinds.NewValidator().ValidateRegistry(registry)
		fmt.Printf("%s: %s\n", config.KeybindsFile, result)
		if result.HasErrors() {
			return errors.New("key bindings are invalid")
		}
		return nil
	},
}

// Persistent flags
var (
	flagDevice string
	flagURL    string
)

// Subcommand flags
var (
	flagGetUSB     string
	flagQuery      string
	flagOutput     string
	flagDead       bool
	flagExportFile string
	flagYes        bool
	flagLimit      int
	flagClear      bool
	flagAll        bool
	flagStats      bool
	flagListen     string
	flagState      string
	flagProto      string
	flagInit       bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDevice, "device", "d", "", "Device name from config.yaml")
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "Device address, overrides the configured device")

	getCmd.Flags().StringVar(&flagGetUSB, "usb", "", "Print only this usage code (decimal or 0x hex)")
	getCmd.Flags().StringVar(&flagQuery, "query", "", "JMESPath query or $(shell command) over the table")
	getCmd.Flags().StringVarP(&flagOutput, "output", "o", "text", "Output format (json/yaml/text)")

	setCmd.Flags().String("base", "", "Base layer output (hex)")
	setCmd.Flags().String("shift", "", "Shift layer output (hex)")
	setCmd.Flags().String("altgr", "", "AltGr layer output (hex)")
	setCmd.Flags().String("ctrl", "", "Ctrl layer output (hex)")
	setCmd.Flags().BoolVar(&flagDead, "dead", false, "Mark as dead key (--dead=false clears)")

	exportCmd.Flags().StringVarP(&flagExportFile, "output", "o", "keymap_ex.json", "Output file, - for stdout")

	resetCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip the confirmation prompt")

	historyCmd.Flags().IntVarP(&flagLimit, "limit", "n", 50, "Number of entries, 0 for all")
	historyCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete every journal entry")
	historyCmd.Flags().BoolVar(&flagAll, "all", false, "Include every device")
	historyCmd.Flags().BoolVar(&flagStats, "stats", false, "Summarize calls, failures and latency per operation")

	emulateCmd.Flags().StringVar(&flagListen, "listen", "localhost:8080", "Listen address")
	emulateCmd.Flags().StringVar(&flagState, "state", "", "Persist the table to this file")
	emulateCmd.Flags().StringVar(&flagProto, "proto", "XT", "Scancode set reported on the monitor (XT/AT/PS2)")

	keybindsCmd.Flags().BoolVar(&flagInit, "init", false, "Write the default bindings to keybinds.json")

	rootCmd.AddCommand(getCmd, setCmd, exportCmd, importCmd, resetCmd, pingCmd, historyCmd, emulateCmd, keybindsCmd)
}

// app holds what setup wired together
type app struct {
	settings config.Settings
	device   config.Device
	client   *device.Client
	editor   *editor.Editor
	history  *history.Manager
	closers  []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

// setup loads the configuration and connects the editor to the target device.
// In TUI mode logs go to the log file, otherwise to stderr.
func setup(tuiMode bool) (*app, error) {
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}

	a := &app{settings: settings}
	if tuiMode {
		f, err := logging.File(config.LogFile, settings.LogLevel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, f)
	} else if err := logging.Console(os.Stderr, settings.LogLevel); err != nil {
		return nil, err
	}

	target, err := settings.Resolve(flagDevice, flagURL)
	if err != nil {
		if flagDevice != "" || len(settings.Devices) < 2 || !cli.IsInteractive() {
			a.Close()
			return nil, err
		}
		if target, err = cli.SelectDevice(settings.Devices); err != nil {
			a.Close()
			return nil, err
		}
	}
	a.device = target

	var opts device.Options
	opts.Timeout = settings.Timeout
	if settings.History {
		mgr, err := history.NewManager(config.DatabasePath)
		if err != nil {
			log.Warn().Err(err).Msg("history disabled")
		} else {
			a.history = mgr
			a.closers = append(a.closers, mgr)
			opts.Observer = mgr.Observer(target.Name, target.URL)
		}
	}

	client, err := device.NewClient(target.URL, opts)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("device %q: %w", target.Name, err)
	}
	a.client = client
	a.editor = editor.New(keymap.NewStore(), client)

	log.Debug().Str("device", target.Name).Str("url", client.BaseURL()).Msg("device resolved")
	return a, nil
}

// withEnv runs a command against the resolved device, cancelled on interrupt
func withEnv(fn func(ctx context.Context, env *cli.Env) error) error {
	a, err := setup(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, &cli.Env{
		Editor:  a.editor,
		Client:  a.client,
		History: a.history,
		Device:  a.device,
	})
}

// runTUI starts the interactive editor
func runTUI() error {
	a, err := setup(true)
	if err != nil {
		return err
	}
	defer a.Close()

	registry, err := keybinds.LoadOrDefault(config.KeybindsFile)
	if err != nil {
		return err
	}
	result := keybinds.NewValidator().ValidateRegistry(registry)
	if result.HasErrors() {
		return fmt.Errorf("invalid key bindings in %s:\n%s", config.KeybindsFile, result)
	}
	for _, w := range result.Warnings {
		log.Warn().Str("context", string(w.Context)).Str("key", w.Key).Msg(w.Message)
	}

	return tui.Run(tui.Options{
		Editor:         a.editor,
		DeviceName:     a.device.Name,
		DeviceURL:      a.client.BaseURL(),
		Monitor:        a.client,
		MonitorOnStart: a.settings.Monitor,
		History:        a.history,
		Keybinds:       registry,
	})
}

// parseUSB accepts decimal or 0x-prefixed hex usage codes
func parseUSB(s string) (int, error) {
	v, err := strconv.ParseInt(s, 0, 0)
	if err != nil || !keymap.ValidUSB(int(v)) {
		return 0, fmt.Errorf("%q is not a usage code 0-255 (decimal or 0x hex)", s)
	}
	return int(v), nil
}
