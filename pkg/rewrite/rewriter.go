// Package rewrite implements the Placeholder Rewriter: it substitutes
// symbolic IN_i / OUT_NAME.EXT tokens in user source with concrete
// absolute host paths that the Container Invoker bind-mounts into the
// same absolute location inside the container.
package rewrite

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/coderunner/sandbox/pkg/sandbox"
)

// tokenPattern recognizes both placeholder shapes in one pass so that
// overlapping candidate matches resolve by earliest-start, longest-match —
// the behavior a single compiled alternation gives for free. Compiled once
// at package init; pure data afterward.
var tokenPattern = regexp.MustCompile(
	`\bIN_(\d+)\b|OUT_(?:\{([^{}]+)\}|([A-Za-z0-9_-]+))\.([A-Za-z0-9]+)`,
)

// sanitizePattern strips everything outside [A-Za-z0-9._-] from an OUT_NAME.
var sanitizePattern = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Rewrite substitutes every IN_i / OUT_NAME.EXT token in source. storageIn
// and storageOut are the shared input/output storage roots; jobID
// namespaces both. declaredInputs is the job's ordered, 1-based-addressable
// list of declared input basenames.
//
// It fails closed: any residual token matching either pattern after all
// substitutions is a BadPlaceholderError, never silently passed through.
func Rewrite(source string, jobID sandbox.JobID, declaredInputs []string, storageIn, storageOut string) (string, error) {
	var firstErr error

	out := tokenPattern.ReplaceAllStringFunc(source, func(match string) string {
		if firstErr != nil {
			return match
		}
		sub := tokenPattern.FindStringSubmatch(match)
		if sub == nil {
			// Should not happen: match came from this same pattern.
			firstErr = &BadPlaceholderError{Token: match, Reason: "unrecognized placeholder shape"}
			return match
		}

		if sub[1] != "" {
			path, err := rewriteInput(sub[1], declaredInputs, storageIn, jobID)
			if err != nil {
				firstErr = err
				return match
			}
			return path
		}

		name := sub[2]
		if name == "" {
			name = sub[3]
		}
		return rewriteOutput(name, sub[4], storageOut, jobID)
	})

	if firstErr != nil {
		return "", firstErr
	}

	if tokenPattern.MatchString(out) {
		return "", &BadPlaceholderError{Reason: "residual placeholder token after rewriting"}
	}

	return out, nil
}

func rewriteInput(indexText string, declaredInputs []string, storageIn string, jobID sandbox.JobID) (string, error) {
	idx, err := strconv.Atoi(indexText)
	if err != nil {
		return "", &BadPlaceholderError{Token: "IN_" + indexText, Reason: "non-numeric index"}
	}
	if idx < 1 || idx > len(declaredInputs) {
		return "", &BadPlaceholderError{
			Token:  "IN_" + indexText,
			Reason: "index out of range for declared input files",
		}
	}
	base := filepath.Base(declaredInputs[idx-1])
	path := filepath.Join(storageIn, jobID.String(), base)
	return strconv.Quote(path), nil
}

func rewriteOutput(name, ext, storageOut string, jobID sandbox.JobID) string {
	sanitized := strings.ToLower(sanitizeName(name))
	filename := sanitized + "." + strings.ToLower(ext)
	path := filepath.Join(storageOut, jobID.String(), filename)
	return strconv.Quote(path)
}

func sanitizeName(name string) string {
	return sanitizePattern.ReplaceAllString(name, "")
}
