package main

import (
	"fmt"
	"image/png"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/cart"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/emu"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/log"
	"github.com/FabianRolfMatthiasNoll/gbdmg/internal/ui"
)

func main() {
	cli := parseArgs(os.Args[1:])

	switch cli.mode {
	case versionMode:
		printVersion()
		return
	case romInfosMode:
		checkf(romInfos(cli.RomInfos.RomPath, os.Stdout), "failed to read rom")
		return
	}

	cfg, err := emu.LoadConfig(cli.Config)
	checkf(err, "failed to load configuration")
	if cfg.Debug.LogModules != "" {
		mask, unknown := log.ParseModules(cfg.Debug.LogModules)
		for _, name := range unknown {
			log.ModEmu.Warnf("configuration: unknown log module %q", name)
		}
		log.EnableDebugModules(mask)
	}

	switch cli.mode {
	case headlessMode:
		checkf(runHeadless(cfg, &cli.Headless), "headless run failed")
	default:
		checkf(runWindow(cfg, cli.Config, &cli.Run), "emulation failed")
	}
}

func paletteChoices() []string {
	return append([]string{"auto"}, emu.PaletteNames()...)
}

// traceOutput returns the trace writer selected on the command line, or the
// one named in the configuration.
func traceOutput(flag *outfile, cfg emu.Config) (*outfile, error) {
	if flag != nil {
		return flag, nil
	}
	if cfg.Debug.Trace == "" {
		return nil, nil
	}
	out := &outfile{}
	if err := out.open(cfg.Debug.Trace); err != nil {
		return nil, errors.Wrap(err, "open trace output")
	}
	return out, nil
}

func newMachine(romPath string, trace *outfile) (*emu.Machine, error) {
	m := emu.New()
	if err := m.LoadROMFile(romPath); err != nil {
		return nil, err
	}
	if trace != nil {
		m.SetTraceWriter(trace)
	}
	return m, nil
}

func runWindow(cfg emu.Config, cfgPath string, args *Run) error {
	if args.Scale > 0 {
		cfg.Video.Scale = args.Scale
	}
	if args.Palette != "" {
		cfg.Video.Palette = args.Palette
	}
	cfg.Video.Check()

	trace, err := traceOutput(args.Trace, cfg)
	if err != nil {
		return err
	}
	if trace != nil {
		defer trace.Close()
	}

	m, err := newMachine(args.RomPath, trace)
	if err != nil {
		return err
	}
	if args.State != "" {
		if err := m.LoadStateFile(args.State); err != nil {
			return err
		}
	}

	app, err := ui.NewApp(cfg, m)
	if err != nil {
		return errors.Wrap(err, "input configuration")
	}
	if err := app.Run(); err != nil {
		return err
	}

	if args.SaveConfig {
		return emu.SaveConfig(cfgPath, cfg)
	}
	return nil
}

func runHeadless(cfg emu.Config, args *Headless) error {
	if args.Palette != "" {
		cfg.Video.Palette = args.Palette
	}
	trace, err := traceOutput(args.Trace, cfg)
	if err != nil {
		return err
	}
	if trace != nil {
		defer trace.Close()
	}

	m, err := newMachine(args.RomPath, trace)
	if err != nil {
		return err
	}
	if args.Serial {
		m.SetSerialWriter(os.Stdout)
	}

	frames := max(args.Frames, 1)
	start := time.Now()
	for range frames {
		if err := m.StepFrame(); err != nil {
			return err
		}
	}
	dur := time.Since(start)

	crc := emu.FormatCRC(emu.FrameCRC(m.Frame()))
	log.ModEmu.Infof("headless: frames=%d elapsed=%s fps=%.2f frame_crc32=%s",
		frames, dur.Truncate(time.Millisecond), float64(frames)/dur.Seconds(), crc)
	fmt.Println(crc)

	if args.PNG != "" {
		pal := cfg.Video.ResolvePalette(m.ROM().Header)
		if err := writePNG(args.PNG, pal, m); err != nil {
			return errors.Wrap(err, "write PNG")
		}
		log.ModEmu.Infof("wrote %s", args.PNG)
	}

	if args.Expect != "" {
		want := strings.TrimPrefix(strings.ToLower(args.Expect), "0x")
		if crc != want {
			return errors.Errorf("checksum mismatch: got %s, want %s", crc, want)
		}
	}
	return nil
}

func writePNG(path string, pal emu.Palette, m *emu.Machine) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, pal.Image(m.Frame())); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func romInfos(path string, w io.Writer) error {
	rom, err := cart.Open(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "File:      %s (%d bytes)\n", path, len(rom.Data)+rom.Truncated)
	if rom.Header == nil {
		fmt.Fprintln(w, "no cartridge header")
		return nil
	}
	rom.Header.PrintInfos(w)
	fmt.Fprintf(w, "Header checksum valid: %t\n", cart.HeaderChecksumOK(rom.Data))
	if !rom.Header.RomOnly() {
		fmt.Fprintln(w, "Warning: bank switching is not emulated, only the first 32 KiB will be mapped.")
	}
	return nil
}

func printVersion() {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Println("gbdmg", version)
}
