package scad

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// SafeModuleIdent replaces variables named after the reserved word "module".
const SafeModuleIdent = "mod"

// Repairer patches known authoring mistakes in generated source before it
// reaches the compiler. Implementations must be deterministic and idempotent.
type Repairer interface {
	Repair(source string) string
}

// TextRepairer is a line-oriented Repairer built on regular expressions.
// It does not parse OpenSCAD.
type TextRepairer struct{}

var (
	piRef          = regexp.MustCompile(`\bPI\b`)
	piAssign       = regexp.MustCompile(`\bPI\s*=([^=]|$)`)
	moduleAssign   = regexp.MustCompile(`\bmodule(\s*=)`)
	moduleAfterOp  = regexp.MustCompile(`([*/+\-])(\s*)module\b`)
	moduleBeforeOp = regexp.MustCompile(`\bmodule(\s*[*/+\-])`)
	moduleDef      = regexp.MustCompile(`^\s*module\s+[A-Za-z_]\w*\s*\(`)
)

// piLine is prepended when PI is used without being defined.
var piLine = "PI = " + strconv.FormatFloat(math.Pi, 'g', -1, 64) + ";"

func (TextRepairer) Repair(source string) string {
	lines := strings.Split(source, "\n")
	for i, line := range lines {
		lines[i] = renameModuleIdent(line)
	}
	out := strings.Join(lines, "\n")

	if piRef.MatchString(out) && !piAssign.MatchString(out) {
		out = piLine + "\n" + out
	}
	return out
}

// renameModuleIdent renames free uses of "module" on a single line. Lines
// that declare a module are returned untouched.
func renameModuleIdent(line string) string {
	if isModuleDefinition(line) {
		return line
	}
	line = moduleAssign.ReplaceAllString(line, SafeModuleIdent+"${1}")
	line = moduleAfterOp.ReplaceAllString(line, "${1}${2}"+SafeModuleIdent)
	line = moduleBeforeOp.ReplaceAllString(line, SafeModuleIdent+"${1}")
	return line
}

func isModuleDefinition(line string) bool {
	return moduleDef.MatchString(line)
}
