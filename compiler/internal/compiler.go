package internal

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/idashbox/Compiler-Task-1/assembler"
)

const DefaultMainClass = "Program"

// UnitFileExtension is the extension of the files SaveUnits writes.
const UnitFileExtension = ".j"

type Options struct {
	// MainClass names the unit holding globals, top-level statements and top-level functions.
	MainClass     string
	AllowWidening bool
}

func (options Options) mainClassName() string {
	if options.MainClass == "" {
		return DefaultMainClass
	}
	return options.MainClass
}

// Output is the result of a successful compilation: the main unit first, then one unit per class.
type Output struct {
	Units []Unit
}

// Compile runs every pass over source. Tokenizer and parser failures are returned as *SyntaxError,
// semantic diagnostics as *DiagnosticsError and broken internal contracts as *FatalError.
func Compile(source io.Reader, options Options) (*Output, error) {
	parser := &Parser{}
	program, err := parser.Parse(source)
	if err != nil {
		return nil, &SyntaxError{Err: err}
	}
	analysis, err := Analyze(program, options)
	if err != nil {
		return nil, err
	}
	if len(analysis.Diagnostics) > 0 {
		return nil, &DiagnosticsError{Diagnostics: analysis.Diagnostics}
	}
	units, err := NewCodeGenerator(analysis.Tables, options).Generate(program)
	if err != nil {
		return nil, err
	}
	for i := range units {
		lines, err := assembler.AssembleLines(units[i].Lines)
		if err != nil {
			return nil, &FatalError{Msg: fmt.Sprintf("unit %s: %s", units[i].Name, err.Error())}
		}
		units[i].Lines = lines
	}
	return &Output{Units: units}, nil
}

// CompileFile compiles the source file at path.
func CompileFile(path string, options Options) (*Output, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Compile(f, options)
}

// Text joins the lines of a unit into the content of its file.
func (unit Unit) Text() string {
	return strings.Join(unit.Lines, "\n") + "\n"
}

// SaveUnits writes every unit to <dir>/<Name>.j and returns the written paths.
func SaveUnits(dir string, units []Unit) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	var paths []string
	for _, unit := range units {
		if unit.Name == "" {
			return paths, errors.New("unit without name")
		}
		path := filepath.Join(dir, unit.Name+UnitFileExtension)
		if err := ioutil.WriteFile(path, []byte(unit.Text()), 0666); err != nil {
			return paths, errors.New(fmt.Sprintf("failed to save unit %s to %s: %v", unit.Name, path, err))
		}
		paths = append(paths, path)
	}
	return paths, nil
}
