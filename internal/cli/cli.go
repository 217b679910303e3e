package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/studiowebux/kexedit/internal/config"
	"github.com/studiowebux/kexedit/internal/device"
	"github.com/studiowebux/kexedit/internal/editor"
	"github.com/studiowebux/kexedit/internal/emulator"
	"github.com/studiowebux/kexedit/internal/filter"
	"github.com/studiowebux/kexedit/internal/history"
	"github.com/studiowebux/kexedit/internal/keymap"
	"gopkg.in/yaml.v3"
)

// Env carries the collaborators every command needs
type Env struct {
	Editor  *editor.Editor
	Client  *device.Client
	History *history.Manager // nil when the journal is disabled
	Device  config.Device

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

func (e *Env) errOut() io.Writer {
	if e.Err == nil {
		return os.Stderr
	}
	return e.Err
}

func (e *Env) in() io.Reader {
	if e.In == nil {
		return os.Stdin
	}
	return e.In
}

// GetOptions contains options for printing the table
type GetOptions struct {
	USB          int    // -1 prints the whole table
	Query        string // JMESPath expression or $(shell command)
	OutputFormat string // json, yaml, text
}

// Get loads the table and prints it, one entry of it, or a query over it
func Get(ctx context.Context, env *Env, opts GetOptions) error {
	if err := env.Editor.Load(ctx); err != nil {
		return err
	}
	table := env.Editor.Store().Snapshot()

	if opts.Query != "" {
		doc, err := filter.Table(table)
		if err != nil {
			return err
		}
		result, err := filter.Apply(doc, opts.Query)
		if err != nil {
			return err
		}
		fmt.Fprintln(env.out(), strings.TrimRight(result, "\n"))
		return nil
	}

	var output string
	var err error
	if opts.USB >= 0 {
		if !keymap.ValidUSB(opts.USB) {
			return fmt.Errorf("usb %d out of range 0-%d", opts.USB, keymap.TableSize-1)
		}
		output, err = formatEntries([]keymap.Entry{table[opts.USB]}, opts.OutputFormat, true)
	} else {
		output, err = formatEntries(table.Entries(), opts.OutputFormat, false)
	}
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprint(env.out(), output)
	return nil
}

// SetOptions names the fields to change; nil fields keep the device's value
type SetOptions struct {
	USB   int
	Base  *string
	Shift *string
	AltGr *string
	Ctrl  *string
	Dead  *bool
}

// Set edits one entry through the editor and saves it
func Set(ctx context.Context, env *Env, opts SetOptions) error {
	if err := env.Editor.Load(ctx); err != nil {
		return err
	}
	if err := env.Editor.Select(opts.USB); err != nil {
		return err
	}

	fields := map[editor.Field]*string{
		editor.FieldBase:  opts.Base,
		editor.FieldShift: opts.Shift,
		editor.FieldAltGr: opts.AltGr,
		editor.FieldCtrl:  opts.Ctrl,
	}
	for _, f := range editor.Fields {
		if v := fields[f]; v != nil {
			if err := env.Editor.SetField(f, *v); err != nil {
				return err
			}
		}
	}
	if opts.Dead != nil {
		if err := env.Editor.SetDead(*opts.Dead); err != nil {
			return err
		}
	}

	entry, err := env.Editor.Save(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.out(), "%sSaved%s %s\n", colorGreen, colorReset, entry)
	return nil
}

// Export streams the device's download attachment to path ("-" is stdout)
func Export(ctx context.Context, env *Env, path string) error {
	if path == "" || path == "-" {
		_, err := env.Client.Download(ctx, env.out())
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, config.FilePermissions)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	n, err := env.Client.Download(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	fmt.Fprintf(env.errOut(), "Exported %d bytes to %s\n", n, path)
	return nil
}

// Import uploads the table stored at path and prints what the device now holds
func Import(ctx context.Context, env *Env, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := env.Editor.Import(ctx, raw); err != nil {
		return err
	}
	fmt.Fprintf(env.out(), "%sImported%s %s: %s\n", colorGreen, colorReset, path, summarize(env.Editor.Store().Snapshot()))
	return nil
}

// Reset restores the device defaults after confirmation. yes skips the prompt.
func Reset(ctx context.Context, env *Env, yes bool) error {
	confirmFn := func() bool {
		if yes {
			return true
		}
		return confirm(env.in(), env.errOut(),
			fmt.Sprintf("Reset the keymap on %s (%s) to defaults?", env.Device.Name, env.Device.URL))
	}

	confirmed, err := env.Editor.Reset(ctx, confirmFn)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Fprintln(env.errOut(), "Reset cancelled")
		return nil
	}
	fmt.Fprintf(env.out(), "%sReset%s %s: %s\n", colorGreen, colorReset, env.Device.Name, summarize(env.Editor.Store().Snapshot()))
	return nil
}

// Ping checks that the device answers
func Ping(ctx context.Context, env *Env) error {
	rtt, err := env.Client.Ping(ctx)
	if err != nil {
		fmt.Fprintf(env.out(), "%s%s unreachable%s\n", colorRed, env.Device.URL, colorReset)
		return err
	}
	fmt.Fprintf(env.out(), "%s%s%s is up (%s)\n", colorGreen, env.Device.URL, colorReset, rtt.Round(time.Millisecond))
	return nil
}

// HistoryOptions contains options for the journal command
type HistoryOptions struct {
	Limit int
	Clear bool
	All   bool // list every device, not just the current one
	Stats bool // per-operation summary instead of the entry list
}

// History prints or clears the operation journal
func History(env *Env, opts HistoryOptions) error {
	if env.History == nil {
		return errors.New("history is disabled (set history: true in the settings)")
	}
	if opts.Clear {
		if err := env.History.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(env.out(), "History cleared")
		return nil
	}

	name := env.Device.Name
	if opts.All {
		name = ""
	}
	if opts.Stats {
		return printStats(env, name)
	}
	entries, err := env.History.Load(name, opts.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(env.out(), "No operations recorded")
		return nil
	}

	for _, e := range entries {
		usb := "  "
		if e.USB >= 0 {
			usb = keymap.FormatHexByte(byte(e.USB))
		}
		fmt.Fprintf(env.out(), "%s  %-10s %-8s %s  %s%3d%s %6dms",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Device, e.Op, usb, getStatusColor(e.Status), e.Status, colorReset,
			e.Duration.Milliseconds())
		if e.Error != "" {
			fmt.Fprintf(env.out(), "  %s%s%s", colorRed, e.Error, colorReset)
		}
		fmt.Fprintln(env.out())
	}
	return nil
}

func printStats(env *Env, deviceName string) error {
	stats, err := env.History.StatsPerOp(deviceName)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Fprintln(env.out(), "No operations recorded")
		return nil
	}

	fmt.Fprintln(env.out(), "OP         CALLS   OK  HTTP ERR  NET ERR    AVG    MIN    MAX  LAST")
	for _, s := range stats {
		errColor := ""
		if s.ErrorCount+s.NetworkErrors > 0 {
			errColor = colorRed
		}
		fmt.Fprintf(env.out(), "%-10s %5d %4d  %s%8d %8d%s %5.0fms %4dms %4dms  %s\n",
			s.Op, s.TotalCalls, s.SuccessCount, errColor, s.ErrorCount, s.NetworkErrors, colorReset,
			s.AvgDurationMs, s.MinDurationMs, s.MaxDurationMs,
			s.LastCalled.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

// EmulateOptions configures a standalone emulator
type EmulateOptions struct {
	Listen    string // host:port
	StatePath string
	Proto     string
	Logging   bool
}

// Emulate serves an emulated device until ctx is cancelled
func Emulate(ctx context.Context, opts EmulateOptions, out io.Writer) error {
	host, portStr, err := net.SplitHostPort(opts.Listen)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", opts.Listen, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid listen port %q", portStr)
	}

	proto := strings.ToUpper(opts.Proto)
	switch proto {
	case "", emulator.ProtoXT, emulator.ProtoAT, emulator.ProtoPS2:
	default:
		return fmt.Errorf("unknown proto %q (XT, AT or PS2)", opts.Proto)
	}

	state, err := emulator.NewState(opts.StatePath)
	if err != nil {
		return err
	}
	srv := emulator.NewServer(&emulator.Config{
		Host:      host,
		Port:      port,
		StatePath: opts.StatePath,
		Proto:     proto,
		Logging:   opts.Logging,
	}, state)
	if err := srv.Start(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Emulating device at %s (ctrl+c to stop)\n", srv.GetAddress())

	<-ctx.Done()
	log.Info().Msg("stopping emulator")
	return srv.Stop()
}

// summarize counts mapped entries and dead keys
func summarize(t keymap.Table) string {
	mapped, dead := 0, 0
	for _, e := range t {
		if e.Base != 0 {
			mapped++
		}
		if e.Dead {
			dead++
		}
	}
	return fmt.Sprintf("%d of %d entries mapped, %d dead keys", mapped, keymap.TableSize, dead)
}

// formatEntries formats entries based on the output format
func formatEntries(entries []keymap.Entry, format string, single bool) (string, error) {
	var v any = entries
	if single {
		v = entries[0]
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil

	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil

	case "text", "":
		var sb strings.Builder
		sb.WriteString("USB  NAME            BASE SHIFT ALTGR CTRL DEAD\n")
		for _, e := range entries {
			if !single && e.IsZero() {
				continue
			}
			dead := ""
			if e.Dead {
				dead = colorYellow + "yes" + colorReset
			}
			sb.WriteString(fmt.Sprintf("%s   %-15s %s   %s    %s    %s   %s\n",
				keymap.FormatHexByte(byte(e.USB)), keymap.UsageName(e.USB),
				keymap.FormatHexByte(e.Base), keymap.FormatHexByte(e.Shift),
				keymap.FormatHexByte(e.AltGr), keymap.FormatHexByte(e.Ctrl), dead))
		}
		return sb.String(), nil
	}
	return "", fmt.Errorf("unknown output format %q (json, yaml or text)", format)
}

// ANSI color codes
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
)

func getStatusColor(status int) string {
	if device.IsSuccessStatus(status) {
		return colorGreen
	} else if status >= 400 || status == 0 {
		return colorRed
	}
	return colorYellow
}
