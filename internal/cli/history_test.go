package cli

import (
	"bytes"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHistoryCmd(t *testing.T, opts *RootOptions, name string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{name})
	err := cmd.Execute()
	return buf.String(), err
}

func TestHistoryEmpty(t *testing.T) {
	out, err := runHistoryCmd(t, testOptions(t, "text"), "Demo 2022-1")
	require.NoError(t, err)
	assert.Contains(t, out, `No archived versions of "Demo 2022-1"`)
}

func TestHistoryAfterCompile(t *testing.T) {
	opts := testOptions(t, "json")

	_, err := runCompileCmd(t, opts, demoPath, "--archive")
	require.NoError(t, err)
	_, err = runCompileCmd(t, opts, demoVariant(t, "balance: 0", "balance: 10"), "--archive")
	require.NoError(t, err)

	for _, name := range []string{"Demo 2022-1", "demo"} {
		t.Run(name, func(t *testing.T) {
			out, err := runHistoryCmd(t, opts, name)
			require.NoError(t, err)

			var resp struct {
				Status string         `json:"status"`
				Data   []HistoryEntry `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			require.Len(t, resp.Data, 2)
			assert.Less(t, resp.Data[0].Seq, resp.Data[1].Seq, "oldest first")
			assert.NotEqual(t, resp.Data[0].Fingerprint, resp.Data[1].Fingerprint)
			assert.Equal(t, "MDeal", resp.Data[0].DealType)
			assert.Equal(t, demoPath, resp.Data[0].Source)
		})
	}
}

func TestHistoryText(t *testing.T) {
	opts := testOptions(t, "text")
	_, err := runCompileCmd(t, opts, demoPath, "--archive")
	require.NoError(t, err)

	out, err := runHistoryCmd(t, opts, "demo")
	require.NoError(t, err)
	assert.Contains(t, out, `1 version(s) of "demo"`)
	assert.Contains(t, out, "#1 ")
}
