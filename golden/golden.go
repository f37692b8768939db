package golden

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Golden cases are markdown documents. Every heading starting with "Test: " opens a case; the case
// holds one `mel` fence with the program and one or more assertion fences:
//
//   ```jasmin Program      expected text of the unit named Program
//   ```diagnostics         expected semantic diagnostics, one per line, in order
//   ```syntax-error        text the syntax error must contain

const (
	SourceFence      = "mel"
	JasminFence      = "jasmin"
	DiagnosticsFence = "diagnostics"
	SyntaxErrorFence = "syntax-error"
)

const testHeadingPrefix = "Test: "

type AssertionType string

const (
	AssertionTypeJasmin      AssertionType = JasminFence
	AssertionTypeDiagnostics AssertionType = DiagnosticsFence
	AssertionTypeSyntaxError AssertionType = SyntaxErrorFence
)

type Assertion struct {
	Type    AssertionType
	Unit    string // unit name of a jasmin assertion
	Content string
	Line    int
}

// Lines splits the content of the assertion into its lines.
func (assertion Assertion) Lines() []string {
	if assertion.Content == "" {
		return nil
	}
	return strings.Split(assertion.Content, "\n")
}

type TestCase struct {
	Name       string
	File       string
	Source     string
	Line       int
	Assertions []Assertion
}

// ExtractTestCases parses a markdown document and returns its cases in document order.
func ExtractTestCases(markdown string) ([]TestCase, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	var testCases []TestCase
	var current *TestCase
	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			heading := extractText(n, source)
			if !strings.HasPrefix(heading, testHeadingPrefix) {
				return ast.WalkContinue, nil
			}
			if current != nil {
				if err := validateTestCase(current); err != nil {
					return ast.WalkStop, err
				}
				testCases = append(testCases, *current)
			}
			current = &TestCase{Name: strings.TrimPrefix(heading, testHeadingPrefix), Line: lineNumber(n, source)}
		case *ast.FencedCodeBlock:
			return ast.WalkContinue, addFence(current, n, source)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if current != nil {
		if err := validateTestCase(current); err != nil {
			return nil, err
		}
		testCases = append(testCases, *current)
	}
	return testCases, nil
}

func addFence(current *TestCase, fence *ast.FencedCodeBlock, source []byte) error {
	line := lineNumber(fence, source)
	var info []string
	if fence.Info != nil {
		info = strings.Fields(string(fence.Info.Segment.Value(source)))
	}
	if len(info) == 0 {
		return nil
	}
	if current == nil {
		return fmt.Errorf("line %d: %s fence found outside of test case", line, info[0])
	}
	content := strings.TrimRight(fenceContent(fence, source), "\n")
	switch info[0] {
	case SourceFence:
		if current.Source != "" {
			return fmt.Errorf("line %d: multiple %s fences found in test '%s'", line, SourceFence, current.Name)
		}
		current.Source = content
	case JasminFence:
		if len(info) != 2 {
			return fmt.Errorf("line %d: %s fence in test '%s' must name one unit", line, JasminFence, current.Name)
		}
		current.Assertions = append(current.Assertions, Assertion{Type: AssertionTypeJasmin, Unit: info[1],
			Content: content, Line: line})
	case DiagnosticsFence, SyntaxErrorFence:
		current.Assertions = append(current.Assertions, Assertion{Type: AssertionType(info[0]), Content: content,
			Line: line})
	default:
		return fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, info[0], current.Name)
	}
	return nil
}

// LoadDir reads the cases of every .md file in dir, files in name order.
func LoadDir(dir string) ([]TestCase, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	var testCases []TestCase
	for _, path := range paths {
		content, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, err
		}
		cases, err := ExtractTestCases(string(content))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		for i := range cases {
			cases[i].File = filepath.Base(path)
		}
		testCases = append(testCases, cases...)
	}
	return testCases, nil
}

func validateTestCase(testCase *TestCase) error {
	if testCase.Source == "" {
		return fmt.Errorf("test '%s' has no %s fence", testCase.Name, SourceFence)
	}
	if len(testCase.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", testCase.Name)
	}
	return nil
}

func extractText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceContent(fence *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < fence.Lines().Len(); i++ {
		line := fence.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

func lineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	return bytes.Count(source[:start], []byte("\n")) + 1
}
