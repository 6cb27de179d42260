// Package lang is the Language Registry: it maps a user-supplied language
// label to a canonical Language, a source-file extension, and the argv
// executed inside the sandbox container to compile and/or run it.
package lang

// Language is the closed sum type of supported languages. There is no
// runtime registration or subclassing — the variant set and its recipes are
// fixed at compile time.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	PHP        Language = "php"
	C          Language = "c"
	CPP        Language = "cpp"
)

// pythonInterpreter is a fixed absolute path to an isolated interpreter
// baked into the sandbox image, never the host's python3.
const pythonInterpreter = "/opt/sandbox/venv/bin/python3"

// All returns every canonical language, stable order, for callers that need
// to enumerate the registry (e.g. a capabilities endpoint).
func All() []Language {
	return []Language{Python, JavaScript, PHP, C, CPP}
}
