package internal

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/idashbox/Compiler-Task-1/util"
	"github.com/pelletier/go-toml"
)

const ConfigFileName = "melc.toml"

var logLevels = map[string]bool{
	"silent":  true,
	"error":   true,
	"warn":    true,
	"verbose": true,
}

// Config is the content of a melc.toml file.
type Config struct {
	MainClass     string `toml:"main-class"`
	OutputDir     string `toml:"output-dir"`
	AllowWidening bool   `toml:"allow-widening"`
	LogLevel      string `toml:"log-level"`
}

func DefaultConfig() *Config {
	return &Config{
		MainClass: DefaultMainClass,
		OutputDir: "out",
		LogLevel:  "verbose",
	}
}

// Options returns the compile options of the configuration.
func (config *Config) Options() Options {
	return Options{MainClass: config.MainClass, AllowWidening: config.AllowWidening}
}

// LoadConfig reads and validates a configuration file. Keys missing from the file keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	buff, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(buff)
}

func ParseConfig(buff []byte) (*Config, error) {
	config := DefaultConfig()
	if err := toml.Unmarshal(buff, config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the values of a configuration, whether loaded from a file or merged with the
// command line.
func (config *Config) Validate() error {
	if !isValidIdentifier(config.MainClass) {
		return fmt.Errorf("main class `%s` must be a valid identifier", config.MainClass)
	}
	if config.OutputDir == "" {
		return errors.New("output directory must not be empty")
	}
	if !logLevels[config.LogLevel] {
		return fmt.Errorf("unknown log level `%s`", config.LogLevel)
	}
	return nil
}

// WriteConfig creates dir/melc.toml holding the default configuration. An existing file is never
// overwritten.
func WriteConfig(dir string) (string, error) {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	if err == nil {
		return "", errors.New("config file already exists")
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("config file error: %s", err.Error())
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating config file: %s", err.Error())
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(DefaultConfig()); err != nil {
		return "", fmt.Errorf("error encoding TOML %s", err.Error())
	}
	return path, nil
}

func isValidIdentifier(name string) bool {
	if name == "" || !util.IsLetterOrUnderscore(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !util.IsLetterOrUnderscoreOrNumber(name[i]) {
			return false
		}
	}
	return !isKeyWord(name)
}
