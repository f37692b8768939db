package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

// Enumeration of the log levels
const (
	LogLevelSilent  = iota // no output at all
	LogLevelError          // errors and the closing message
	LogLevelWarning        // errors, warnings and the closing message
	LogLevelVerbose        // everything, including phase progress (DEFAULT)
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = SuccessColorFG
	InfoStyleBG    = SuccessStyleBG
)

type logger struct {
	level        int
	errorCount   int
	warningCount int
	phase        string
	phaseStart   time.Time
	m            sync.Mutex
}

var global = &logger{level: LogLevelVerbose}

// ParseLevel maps a level name to its level. Unknown names are verbose.
func ParseLevel(name string) int {
	switch name {
	case "silent":
		return LogLevelSilent
	case "error":
		return LogLevelError
	case "warn", "warning":
		return LogLevelWarning
	}
	return LogLevelVerbose
}

// Initialize resets the global logger with the named level.
func Initialize(levelName string) {
	global.m.Lock()
	defer global.m.Unlock()
	global.level = ParseLevel(levelName)
	global.errorCount = 0
	global.warningCount = 0
	global.phase = ""
}

func Level() int {
	global.m.Lock()
	defer global.m.Unlock()
	return global.level
}

// ErrorCount is the number of errors logged since Initialize.
func ErrorCount() int {
	global.m.Lock()
	defer global.m.Unlock()
	return global.errorCount
}

// PrintErrorMessage prints a standard Go error to the console
func PrintErrorMessage(tag string, err error) {
	ErrorStyleBG.Print(tag)
	ErrorColorFG.Println(" " + err.Error())
}

// PrintWarningMessage prints a warning message to the console
func PrintWarningMessage(tag, msg string) {
	WarnStyleBG.Print(tag)
	WarnColorFG.Println(" " + msg)
}

// PrintInfoMessage prints an informational message to the user
func PrintInfoMessage(tag, msg string) {
	InfoStyleBG.Print(tag)
	InfoColorFG.Println(" " + msg)
}

// LogError logs a user facing error such as a syntax error or an unreadable file.
func LogError(tag string, err error) {
	global.m.Lock()
	defer global.m.Unlock()
	global.errorCount++
	if global.level >= LogLevelError {
		PrintErrorMessage(tag, err)
	}
}

// LogWarning logs a warning shown from the warn level up.
func LogWarning(tag, msg string) {
	global.m.Lock()
	defer global.m.Unlock()
	global.warningCount++
	if global.level >= LogLevelWarning {
		PrintWarningMessage(tag, msg)
	}
}

// LogDiagnostics logs every semantic diagnostic of a failed analysis under one banner.
func LogDiagnostics(source string, diagnostics []string) {
	global.m.Lock()
	defer global.m.Unlock()
	global.errorCount += len(diagnostics)
	if global.level < LogLevelError {
		return
	}
	fmt.Print("\n-- ")
	ErrorStyleBG.Print("Semantic Error")
	fmt.Print(" ")
	InfoColorFG.Println(source)
	for _, diagnostic := range diagnostics {
		ErrorColorFG.Print("  * ")
		fmt.Println(diagnostic)
	}
}

const fatalErrorPostlude = `
This is likely a bug in the compiler.`

// LogFatal logs a fatal compiler error: the compiler did something it was not supposed to.
func LogFatal(message string) {
	global.m.Lock()
	defer global.m.Unlock()
	global.errorCount++
	if global.level < LogLevelError {
		return
	}
	fmt.Print("\n")
	ErrorStyleBG.Print("Fatal Error ")
	ErrorColorFG.Println(message)
	InfoColorFG.Println(fatalErrorPostlude)
}

// LogPhase closes the running phase, if any, and starts the named one.
func LogPhase(phase string) {
	global.m.Lock()
	defer global.m.Unlock()
	global.endPhase()
	global.phase = phase
	global.phaseStart = time.Now()
	if global.level >= LogLevelVerbose {
		InfoColorFG.Println(phase + "...")
	}
}

func (l *logger) endPhase() {
	if l.phase == "" {
		return
	}
	if l.level >= LogLevelVerbose {
		fmt.Print(strings.Repeat(" ", 2))
		SuccessStyleBG.Print("Done")
		fmt.Printf(" %s (%.3fs)\n", l.phase, time.Since(l.phaseStart).Seconds())
	}
	l.phase = ""
}

// LogFinished prints the closing message with the error and warning counts.
func LogFinished() {
	global.m.Lock()
	defer global.m.Unlock()
	success := global.errorCount == 0
	if success {
		global.endPhase()
	}
	global.phase = ""
	if global.level == LogLevelSilent {
		return
	}
	fmt.Print("\n")
	if success {
		SuccessColorFG.Print("All done! ")
	} else {
		ErrorColorFG.Print("Oh no! ")
	}
	fmt.Println(summary(global.errorCount, global.warningCount))
}

func summary(errorCount, warningCount int) string {
	return fmt.Sprintf("(%s, %s)", plural(errorCount, "error"), plural(warningCount, "warning"))
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
