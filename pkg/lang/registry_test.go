package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Aliases(t *testing.T) {
	cases := map[string]Language{
		"python":   Python,
		" PY ":     Python,
		"Python3":  Python,
		"js":       JavaScript,
		"node":     JavaScript,
		"nodejs":   JavaScript,
		"JavaScript": JavaScript,
		"php":      PHP,
		"c":        C,
		"gcc":      C,
		"cpp":      CPP,
		"c++":      CPP,
		"g++":      CPP,
	}
	for label, want := range cases {
		got, err := Normalize(label)
		require.NoError(t, err, label)
		assert.Equal(t, want, got, label)
	}
}

func TestNormalize_Unsupported(t *testing.T) {
	_, err := Normalize("ruby")
	require.Error(t, err)
	var unsupported *UnsupportedLanguageError
	require.ErrorAs(t, err, &unsupported)
}

func TestNormalize_Empty(t *testing.T) {
	_, err := Normalize("   ")
	require.Error(t, err)
}

func TestExtension(t *testing.T) {
	ext, err := Extension(Python)
	require.NoError(t, err)
	assert.Equal(t, "py", ext)

	ext, err = Extension(CPP)
	require.NoError(t, err)
	assert.Equal(t, "cpp", ext)
}

func TestInvocation_Python(t *testing.T) {
	argv, err := Invocation(Python, "/sandbox/main.py")
	require.NoError(t, err)
	assert.Equal(t, []string{pythonInterpreter, "/sandbox/main.py"}, argv)
}

func TestInvocation_JavaScript(t *testing.T) {
	argv, err := Invocation(JavaScript, "/sandbox/main.js")
	require.NoError(t, err)
	assert.Equal(t, []string{"node", "/sandbox/main.js"}, argv)
}

func TestInvocation_C_ChainsCompileAndRun(t *testing.T) {
	argv, err := Invocation(C, "/sandbox/main.c")
	require.NoError(t, err)
	require.Len(t, argv, 3)
	assert.Equal(t, "/bin/sh", argv[0])
	assert.Equal(t, "-c", argv[1])
	assert.Contains(t, argv[2], "gcc -O2 -std=c11 -o /tmp/main")
	assert.Contains(t, argv[2], "&& /tmp/main")
}

func TestInvocation_CPP_UsesGxxAndCpp17(t *testing.T) {
	argv, err := Invocation(CPP, "/sandbox/main.cpp")
	require.NoError(t, err)
	assert.Contains(t, argv[2], "g++ -O2 -std=c++17")
}

func TestInvocation_QuotesSourcePath(t *testing.T) {
	argv, err := Invocation(C, "/sandbox/weird' path/main.c")
	require.NoError(t, err)
	assert.Contains(t, argv[2], `'/sandbox/weird'\'' path/main.c'`)
}
