package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/ComedicChimera/olive"
	"github.com/idashbox/Compiler-Task-1/compiler/internal"
	"github.com/idashbox/Compiler-Task-1/logging"
)

const melcVersion = "0.3.0"

// Exit codes of melc.
const (
	exitOK    = 0
	exitError = 1
	exitFatal = 2
)

func main() {
	os.Exit(execute(os.Args))
}

func newCLI() *olive.Command {
	cli := olive.NewCLI("melc", "melc compiles mel programs to Jasmin assembly", true)
	cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false,
		[]string{"silent", "error", "warn", "verbose"})

	buildCmd := cli.AddSubcommand("build", "compile a mel source file", true)
	buildCmd.AddPrimaryArg("source", "the path of the mel source file", true)
	buildCmd.AddStringArg("output", "o", "the directory the .j files are written to", false)
	buildCmd.AddStringArg("config", "c", "the path of a melc.toml file", false)
	buildCmd.AddStringArg("main-class", "m", "the name of the main class", false)
	buildCmd.AddFlag("widening", "w", "allow int values where float values are expected")

	initCmd := cli.AddSubcommand("init", "write a default melc.toml", true)
	initCmd.AddPrimaryArg("dir", "the directory to write melc.toml to", false)

	cli.AddSubcommand("version", "print the melc version", false)
	return cli
}

func execute(args []string) int {
	result, err := olive.ParseArgs(newCLI(), args)
	if err != nil {
		logging.PrintErrorMessage("CLI Usage Error", err)
		return exitError
	}

	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		return execBuildCommand(result, subResult)
	case "init":
		return execInitCommand(subResult)
	case "version":
		logging.PrintInfoMessage("melc Version", melcVersion)
	}
	return exitOK
}

// loadBuildConfig merges the config file, if any, with the command line. Command line values win.
func loadBuildConfig(result *olive.ArgParseResult, sourcePath string) (*internal.Config, error) {
	config := internal.DefaultConfig()
	configPath, explicit := stringArg(result, "config")
	if !explicit {
		configPath = filepath.Join(filepath.Dir(sourcePath), internal.ConfigFileName)
	}
	if _, err := os.Stat(configPath); err == nil || explicit {
		loaded, err := internal.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	if outputDir, ok := stringArg(result, "output"); ok {
		config.OutputDir = outputDir
	}
	if mainClass, ok := stringArg(result, "main-class"); ok {
		config.MainClass = mainClass
	}
	if result.HasFlag("widening") {
		config.AllowWidening = true
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// resolveLogLevel prefers a log level given on the command line over the one of the config file.
func resolveLogLevel(result *olive.ArgParseResult, config *internal.Config) string {
	if loglevel, ok := stringArg(result, "loglevel"); ok {
		return loglevel
	}
	if config.LogLevel != "" {
		return config.LogLevel
	}
	return "verbose"
}

func stringArg(result *olive.ArgParseResult, name string) (string, bool) {
	value, ok := result.Arguments[name]
	if !ok {
		return "", false
	}
	return value.(string), true
}

// execBuildCommand runs the build subcommand and maps its outcome to an exit code.
func execBuildCommand(result *olive.ArgParseResult, buildResult *olive.ArgParseResult) int {
	sourcePath, _ := buildResult.PrimaryArg()
	config, err := loadBuildConfig(buildResult, sourcePath)
	if err != nil {
		logging.PrintErrorMessage("Config Error", err)
		return exitError
	}
	logging.Initialize(resolveLogLevel(result, config))

	logging.LogPhase("Compiling")
	output, err := internal.CompileFile(sourcePath, config.Options())
	if err != nil {
		code := logCompileError(sourcePath, err)
		logging.LogFinished()
		return code
	}

	logging.LogPhase("Saving")
	if _, err := internal.SaveUnits(config.OutputDir, output.Units); err != nil {
		logging.LogError("Output Error", err)
		logging.LogFinished()
		return exitError
	}
	logging.LogFinished()
	return exitOK
}

func logCompileError(sourcePath string, err error) int {
	var syntaxErr *internal.SyntaxError
	var diagnosticsErr *internal.DiagnosticsError
	var fatalErr *internal.FatalError
	switch {
	case errors.As(err, &syntaxErr):
		logging.LogError("Syntax Error", syntaxErr)
	case errors.As(err, &diagnosticsErr):
		logging.LogDiagnostics(sourcePath, diagnosticsErr.Diagnostics)
	case errors.As(err, &fatalErr):
		logging.LogFatal(fatalErr.Msg)
		return exitFatal
	default:
		logging.LogError("File Error", err)
	}
	return exitError
}

func execInitCommand(result *olive.ArgParseResult) int {
	dir, ok := result.PrimaryArg()
	if !ok {
		workDir, err := os.Getwd()
		if err != nil {
			logging.PrintErrorMessage("Path Error", err)
			return exitError
		}
		dir = workDir
	}
	path, err := internal.WriteConfig(dir)
	if err != nil {
		logging.PrintErrorMessage("Config Init Error", err)
		return exitError
	}
	logging.PrintInfoMessage("Created", path)
	return exitOK
}
