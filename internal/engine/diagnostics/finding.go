package diagnostics

import (
	"fmt"
	"sort"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityHint
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityHint:
		return "hint"
	case SeverityInfo:
		return "info"
	}
	return "unknown"
}

// Code is the stable machine-readable identifier of a finding.
type Code string

const (
	CodeParseError       Code = "parse-error"
	CodeInvalidTarget    Code = "invalid-target"
	CodeModuleNotFound   Code = "module-not-found"
	CodeSymbolNotFound   Code = "symbol-not-found"
	CodePythonParseError Code = "python-parse-error"
	CodeMissingParameter Code = "missing-parameter"
	CodeUnknownParameter Code = "unknown-parameter"
	CodePassedViaKwargs  Code = "passed-via-kwargs"
)

// Codes lists every code in a stable order.
var Codes = []Code{
	CodeParseError,
	CodeInvalidTarget,
	CodeModuleNotFound,
	CodeSymbolNotFound,
	CodePythonParseError,
	CodeMissingParameter,
	CodeUnknownParameter,
	CodePassedViaKwargs,
}

// Describe returns a one-line description of a code.
func (c Code) Describe() string {
	switch c {
	case CodeParseError:
		return "The document is not valid YAML."
	case CodeInvalidTarget:
		return "A _target_ value is not a dotted module.path.SymbolName."
	case CodeModuleNotFound:
		return "The module of a _target_ could not be found on any search path."
	case CodeSymbolNotFound:
		return "The module exists but defines no function or class with the target's name."
	case CodePythonParseError:
		return "The resolved Python file has syntax errors."
	case CodeMissingParameter:
		return "A required parameter of the target is not supplied."
	case CodeUnknownParameter:
		return "A supplied key is not a parameter of the target."
	case CodePassedViaKwargs:
		return "A supplied key is not a named parameter and lands in **kwargs."
	}
	return string(c)
}

// Finding is one positioned validation result. Lines and columns are 0-based.
type Finding struct {
	Line     int      `json:"line"`
	StartCol int      `json:"start_col"`
	EndCol   int      `json:"end_col"`
	Severity Severity `json:"-"`
	Code     Code     `json:"code"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%d:%d-%d %s [%s] %s", f.Line+1, f.StartCol, f.EndCol, f.Severity, f.Code, f.Message)
}

// Sort orders findings by line, then start column. Equal positions keep
// their emission order.
func Sort(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].StartCol < findings[j].StartCol
	})
}

// Summary counts findings per severity.
type Summary struct {
	Errors int `json:"errors"`
	Hints  int `json:"hints"`
	Infos  int `json:"infos"`
}

func Summarize(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Severity {
		case SeverityError:
			s.Errors++
		case SeverityHint:
			s.Hints++
		case SeverityInfo:
			s.Infos++
		}
	}
	return s
}

func (s Summary) Total() int {
	return s.Errors + s.Hints + s.Infos
}
