package sandbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobRequest_Validate_OK(t *testing.T) {
	req := &JobRequest{
		LanguageLabel:   "python",
		SourceCode:      "print(1)",
		DeclaredInputs:  []string{"a.txt", "b.txt"},
		DeclaredOutputs: []string{"result.txt"},
		Uploads: []Upload{
			{Name: "a.txt", Content: []byte("hi")},
			{Name: "b.txt", Content: []byte("there")},
		},
	}
	require.NoError(t, req.Validate())
}

func TestJobRequest_Validate_UploadCountMismatch(t *testing.T) {
	req := &JobRequest{
		DeclaredInputs: []string{"a.txt"},
		Uploads:        []Upload{},
	}
	err := req.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestJobRequest_Validate_TraversalBasename(t *testing.T) {
	req := &JobRequest{
		DeclaredInputs: []string{"../etc/passwd"},
		Uploads:        []Upload{{Name: "../etc/passwd"}},
	}
	err := req.Validate()
	require.Error(t, err)
}

func TestJobRequest_Validate_DuplicateBasenames(t *testing.T) {
	req := &JobRequest{
		DeclaredInputs: []string{"a.txt", "a.txt"},
		Uploads:        []Upload{{Name: "a.txt"}, {Name: "a.txt"}},
	}
	err := req.Validate()
	require.Error(t, err)
}

func TestJobRequest_Validate_TooManyInputs(t *testing.T) {
	names := make([]string, MaxInputFiles+1)
	uploads := make([]Upload, MaxInputFiles+1)
	for i := range names {
		names[i] = "f" + string(rune('a'+i)) + ".txt"
		uploads[i] = Upload{Name: names[i]}
	}
	req := &JobRequest{DeclaredInputs: names, Uploads: uploads}
	err := req.Validate()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "exceeds maximum"))
}

func TestJobRequest_Validate_SetMismatch(t *testing.T) {
	req := &JobRequest{
		DeclaredInputs: []string{"a.txt", "b.txt"},
		Uploads:        []Upload{{Name: "a.txt"}, {Name: "c.txt"}},
	}
	err := req.Validate()
	require.Error(t, err)
}
