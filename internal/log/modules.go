package log

import (
	"strings"

	"github.com/sirupsen/logrus"
)

type ModuleMask uint64
type Module uint

type Level = logrus.Level

const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
)

const ModuleMaskAll ModuleMask = 0xFFFFFFFFFFFFFFFF

// Modules of the emulator core. Debug output is off for every module until
// enabled with EnableDebugModules; warnings and errors always get through.
const (
	ModEmu Module = iota + 1
	ModCPU
	ModMem
	ModTimer
	ModIRQ
	ModPPU
	ModInput
	ModSerial

	endStandardMods
)

var modDebugMask ModuleMask = 0

var modNames = []string{
	"<error>", "emu", "cpu", "mem", "timer", "irq", "ppu", "input", "serial",
}

func (mod Module) String() string {
	if int(mod) < len(modNames) {
		return modNames[mod]
	}
	return modNames[0]
}

// ModuleNames returns the names accepted by ModuleByName.
func ModuleNames() []string {
	return append([]string(nil), modNames[1:]...)
}

func ModuleByName(name string) (Module, bool) {
	for idx, s := range modNames {
		if idx != 0 && s == name {
			return Module(idx), true
		}
	}
	return Module(0xFFFFFFFF), false
}

// ParseModules turns a comma separated list of module names ("cpu,ppu" or
// "all") into a mask. Unknown names are reported in the second return value.
func ParseModules(list string) (ModuleMask, []string) {
	var (
		mask    ModuleMask
		unknown []string
	)
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		switch name {
		case "":
			continue
		case "all":
			mask |= ModuleMaskAll
			continue
		}
		mod, ok := ModuleByName(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		mask |= mod.Mask()
	}
	return mask, unknown
}

func EnableDebugModules(mask ModuleMask) {
	modDebugMask |= mask
	if mask != 0 {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func DisableDebugModules(mask ModuleMask) {
	modDebugMask &^= mask
}

func (mod Module) Mask() ModuleMask {
	return 1 << ModuleMask(mod)
}

func (mod Module) Enabled(level Level) bool {
	return level <= WarnLevel || modDebugMask&mod.Mask() != 0
}

// Implement the whole logging interface directly on modules

func (mod Module) WithFields(fields Fields) Entry {
	return Entry{mod: mod}.WithFields(fields)
}

func (mod Module) WithField(key string, value any) Entry {
	return Entry{mod: mod}.WithField(key, value)
}

func (mod Module) Debugf(format string, args ...any) {
	Entry{mod: mod}.Debugf(format, args...)
}

func (mod Module) Infof(format string, args ...any) {
	Entry{mod: mod}.Infof(format, args...)
}

func (mod Module) Warnf(format string, args ...any) {
	Entry{mod: mod}.Warnf(format, args...)
}

func (mod Module) Errorf(format string, args ...any) {
	Entry{mod: mod}.Errorf(format, args...)
}

func (mod Module) Fatalf(format string, args ...any) {
	Entry{mod: mod}.Fatalf(format, args...)
}
