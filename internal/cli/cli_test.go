package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestDB returns a database path inside a fresh temp dir. The store
// creates the file on first open.
func newTestDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "flows.db")
}

// createTestFlow creates a flow through the CLI and returns its ID.
func createTestFlow(t *testing.T, db, name, data string) string {
	t.Helper()

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewCreateFlowCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{name, "--db", db, "--data", data})
	require.NoError(t, cmd.Execute())

	id, ok := responseData(t, buf.String())["id"].(string)
	require.True(t, ok, "create-flow response has no id")
	return id
}

// setTestDraft overwrites the flow's draft through the CLI.
func setTestDraft(t *testing.T, db, flowID, data string) {
	t.Helper()

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewSetDraftCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{flowID, "--db", db, "--data", data})
	require.NoError(t, cmd.Execute())
}

// publishTestVersion publishes the flow's current draft as alice and
// returns the version payload from the JSON response. Extra args are
// passed through to the publish command.
func publishTestVersion(t *testing.T, db, flowID string, extra ...string) map[string]any {
	t.Helper()

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewPublishCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs(append([]string{flowID, "--db", db, "--by", "alice"}, extra...))
	require.NoError(t, cmd.Execute())

	return responseData(t, buf.String())
}

// responseData decodes a JSON response, requires an ok status, and
// returns the data payload as a map.
func responseData(t *testing.T, out string) map[string]any {
	t.Helper()

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status, "unexpected response: %s", out)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "response data is not an object: %s", out)
	return data
}
