package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetActiveCommand(t *testing.T) {
	db := newTestDB(t)
	id := createTestFlow(t, db, "Checkout", `{"steps":1}`)
	publishTestVersion(t, db, id)
	setTestDraft(t, db, id, `{"steps":2}`)
	publishTestVersion(t, db, id)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewSetActiveCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{id, "1", "--db", db})

	require.NoError(t, cmd.Execute())
	data := responseData(t, buf.String())
	assert.EqualValues(t, 1, data["version_number"])
	assert.Equal(t, true, data["is_active"])

	// The sibling is deactivated in the same repoint
	showBuf := &bytes.Buffer{}
	showCmd := NewShowCommand(&RootOptions{Format: "json"})
	showCmd.SetOut(showBuf)
	showCmd.SetArgs([]string{id, "2", "--db", db})
	require.NoError(t, showCmd.Execute())
	assert.Equal(t, false, responseData(t, showBuf.String())["is_active"])
}

func TestSetActiveCommandByTag(t *testing.T) {
	db := newTestDB(t)
	id := createTestFlow(t, db, "Checkout", `{"steps":1}`)
	publishTestVersion(t, db, id, "--tag", "stable")
	setTestDraft(t, db, id, `{"steps":2}`)
	publishTestVersion(t, db, id)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewSetActiveCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{id, "stable", "--db", db})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Version 1 (stable) [active]")
}

func TestSetActiveCommandVersionNotFound(t *testing.T) {
	db := newTestDB(t)
	id := createTestFlow(t, db, "Checkout", `{"steps":1}`)
	publishTestVersion(t, db, id)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewSetActiveCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{id, "9", "--db", db})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
