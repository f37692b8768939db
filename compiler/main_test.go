package main

import (
	"errors"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/ComedicChimera/olive"
	"github.com/idashbox/Compiler-Task-1/compiler/internal"
	"github.com/idashbox/Compiler-Task-1/logging"
	"github.com/stretchr/testify/assert"
)

func TestLogCompileError(t *testing.T) {
	logging.Initialize("silent")
	testData := []struct {
		err      error
		expected int
	}{
		{&internal.SyntaxError{Err: errors.New("syntax error near ; at line 1")}, exitError},
		{&internal.DiagnosticsError{Diagnostics: []string{"variable `x` is not declared"}}, exitError},
		{&internal.FatalError{Msg: "undeclared variable `x`"}, exitFatal},
		{fmt.Errorf("unit Program: %w", &internal.FatalError{Msg: "undefined label L3"}), exitFatal},
		{errors.New("open missing.mel: no such file or directory"), exitError},
	}
	for _, data := range testData {
		assert.Equal(t, data.expected, logCompileError("missing.mel", data.err), data.err.Error())
	}
	assert.Equal(t, 5, logging.ErrorCount())
}

func parseBuildArgs(t *testing.T, args ...string) (*olive.ArgParseResult, *olive.ArgParseResult) {
	result, err := olive.ParseArgs(newCLI(), append([]string{"melc", "build"}, args...))
	assert.Nil(t, err, args)
	if err != nil {
		t.FailNow()
	}
	_, buildResult, ok := result.Subcommand()
	assert.True(t, ok)
	return result, buildResult
}

func TestLoadBuildConfig(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "prog.mel")

	_, buildResult := parseBuildArgs(t, sourcePath, "-m=Main", "-w")
	config, err := loadBuildConfig(buildResult, sourcePath)
	assert.Nil(t, err)
	assert.Equal(t, &internal.Config{MainClass: "Main", OutputDir: "out", AllowWidening: true, LogLevel: "verbose"},
		config)

	testData := []struct {
		arg      string
		expected string
	}{
		{"-m=1bad", "main class `1bad` must be a valid identifier"},
		{"-m=class", "main class `class` must be a valid identifier"},
	}
	for _, data := range testData {
		_, buildResult := parseBuildArgs(t, sourcePath, data.arg)
		_, err := loadBuildConfig(buildResult, sourcePath)
		assert.NotNil(t, err, data.arg)
		if err != nil {
			assert.Equal(t, data.expected, err.Error())
		}
	}
}

func TestResolveLogLevel(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "prog.mel")
	err := ioutil.WriteFile(filepath.Join(dir, internal.ConfigFileName),
		[]byte("log-level = \"silent\"\nmain-class = \"Main\"\n"), 0644)
	assert.Nil(t, err)

	testData := []struct {
		args     []string
		expected string
	}{
		{[]string{sourcePath}, "silent"},
		{[]string{sourcePath, "-ll=verbose"}, "verbose"},
		{[]string{sourcePath, "--loglevel=warn"}, "warn"},
	}
	for _, data := range testData {
		result, buildResult := parseBuildArgs(t, data.args...)
		config, err := loadBuildConfig(buildResult, sourcePath)
		assert.Nil(t, err, data.args)
		if err != nil {
			continue
		}
		assert.Equal(t, "Main", config.MainClass)
		assert.Equal(t, data.expected, resolveLogLevel(result, config), data.args)
	}
	assert.Equal(t, "verbose", resolveLogLevel(&olive.ArgParseResult{}, &internal.Config{}))
}
