package rewrite

import (
	"testing"

	"github.com/coderunner/sandbox/pkg/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobID = sandbox.JobID("11111111-1111-1111-1111-111111111111")

func TestRewrite_InputToken(t *testing.T) {
	out, err := Rewrite(`open(IN_1).read()`, jobID, []string{"a.txt"}, "/data/in", "/data/out")
	require.NoError(t, err)
	assert.Equal(t, `open("/data/in/11111111-1111-1111-1111-111111111111/a.txt").read()`, out)
}

func TestRewrite_OutputTokenWithBraces(t *testing.T) {
	out, err := Rewrite(`open(OUT_{result}.txt, "w")`, jobID, nil, "/data/in", "/data/out")
	require.NoError(t, err)
	assert.Equal(t, `open("/data/out/11111111-1111-1111-1111-111111111111/result.txt", "w")`, out)
}

func TestRewrite_OutputTokenWithoutBraces(t *testing.T) {
	out, err := Rewrite(`OUT_result.txt`, jobID, nil, "/data/in", "/data/out")
	require.NoError(t, err)
	assert.Equal(t, `"/data/out/11111111-1111-1111-1111-111111111111/result.txt"`, out)
}

func TestRewrite_MultipleInputsAndOutput(t *testing.T) {
	src := "a = open(IN_1).read()\nb = open(IN_2).read()\nopen(OUT_{sum}.TXT, 'w').write(a+b)"
	out, err := Rewrite(src, jobID, []string{"a.txt", "b.txt"}, "/data/in", "/data/out")
	require.NoError(t, err)
	assert.Contains(t, out, `"/data/in/11111111-1111-1111-1111-111111111111/a.txt"`)
	assert.Contains(t, out, `"/data/in/11111111-1111-1111-1111-111111111111/b.txt"`)
	assert.Contains(t, out, `"/data/out/11111111-1111-1111-1111-111111111111/sum.txt"`)
}

func TestRewrite_OutOfRangeIndex_Fails(t *testing.T) {
	_, err := Rewrite(`IN_1`, jobID, nil, "/data/in", "/data/out")
	require.Error(t, err)
	var bad *BadPlaceholderError
	require.ErrorAs(t, err, &bad)
}

func TestRewrite_ZeroIndex_Fails(t *testing.T) {
	_, err := Rewrite(`IN_0`, jobID, []string{"a.txt"}, "/data/in", "/data/out")
	require.Error(t, err)
}

func TestRewrite_NoPlaceholders_Succeeds(t *testing.T) {
	out, err := Rewrite("print(2+3)", jobID, nil, "/data/in", "/data/out")
	require.NoError(t, err)
	assert.Equal(t, "print(2+3)", out)
}

func TestRewrite_SanitizesOutputName(t *testing.T) {
	out, err := Rewrite(`OUT_{my name!?}.txt`, jobID, nil, "/data/in", "/data/out")
	require.NoError(t, err)
	assert.Equal(t, `"/data/out/11111111-1111-1111-1111-111111111111/myname.txt"`, out)
}

func TestRewrite_LowercasesExtension(t *testing.T) {
	out, err := Rewrite(`OUT_result.TXT`, jobID, nil, "/data/in", "/data/out")
	require.NoError(t, err)
	assert.Equal(t, `"/data/out/11111111-1111-1111-1111-111111111111/result.txt"`, out)
}
