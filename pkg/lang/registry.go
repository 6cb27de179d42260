package lang

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// spec describes one language's registry entry: its source extension and
// in-container invocation recipe. The set is built once at init and never
// mutated afterward — safe for concurrent use without locking.
type spec struct {
	extension string
	recipe    func(sourcePath string) []string
}

var registry = map[Language]spec{
	Python: {
		extension: "py",
		recipe:    func(sourcePath string) []string { return []string{pythonInterpreter, sourcePath} },
	},
	JavaScript: {
		extension: "js",
		recipe:    func(sourcePath string) []string { return []string{"node", sourcePath} },
	},
	PHP: {
		extension: "php",
		recipe:    func(sourcePath string) []string { return []string{"php", sourcePath} },
	},
	C: {
		extension: "c",
		recipe:    func(sourcePath string) []string { return compileAndRun("gcc", "-std=c11", sourcePath) },
	},
	CPP: {
		extension: "cpp",
		recipe:    func(sourcePath string) []string { return compileAndRun("g++", "-std=c++17", sourcePath) },
	},
}

// aliases maps free-form user labels (after trim+lowercase) to a canonical
// Language. Compiled once; pure data afterward.
var aliases = map[string]Language{
	"python":  Python,
	"py":      Python,
	"python3": Python,

	"javascript": JavaScript,
	"js":         JavaScript,
	"node":       JavaScript,
	"nodejs":     JavaScript,

	"php": PHP,

	"c":   C,
	"gcc": C,

	"cpp": CPP,
	"c++": CPP,
	"g++": CPP,
}

// Normalize trims, lower-cases, resolves aliases, and validates label
// against the canonical language set.
func Normalize(label string) (Language, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	if key == "" {
		return "", &UnsupportedLanguageError{Label: label, Reason: "empty language label"}
	}
	l, ok := aliases[key]
	if !ok {
		logrus.WithField("label", label).Warn("lang: rejected unsupported language label")
		return "", &UnsupportedLanguageError{Label: label, Reason: "not in the supported language set"}
	}
	return l, nil
}

// Extension returns the source-file extension (without a leading dot).
func Extension(l Language) (string, error) {
	s, ok := registry[l]
	if !ok {
		return "", &UnsupportedLanguageError{Label: string(l), Reason: "no extension registered"}
	}
	return s.extension, nil
}

// Invocation returns the argv to execute inside the container to compile
// and/or run the source at sourcePath, an absolute in-container path.
func Invocation(l Language, sourcePath string) ([]string, error) {
	s, ok := registry[l]
	if !ok {
		return nil, &UnsupportedLanguageError{Label: string(l), Reason: "no invocation recipe registered"}
	}
	return s.recipe(sourcePath), nil
}

// compileAndRun builds the shell recipe shared by C and C++: compile to
// /tmp/main (a private tmpfs the invoker mounts) and chain execution so a
// compile failure propagates its non-zero exit code without running
// anything.
func compileAndRun(compiler, std, sourcePath string) []string {
	script := compiler + " -O2 " + std + " -o /tmp/main " + shellQuote(sourcePath) + " && /tmp/main"
	return []string{"/bin/sh", "-c", script}
}

// shellQuote wraps s in single quotes for use inside the /bin/sh -c script
// above. sourcePath is always a server-generated absolute path under
// /sandbox, never user input, but we quote it anyway rather than rely on
// that invariant holding forever.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
