package main

import (
	"bytes"
	"encoding/json"
	"leadsync/internal/oauth"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenFlags_State(t *testing.T) {
	_, err := (&tokenFlags{}).state()
	assert.Error(t, err)

	state, err := (&tokenFlags{refresh: "r1"}).state()
	require.NoError(t, err)
	assert.True(t, state.ExpiresAt.IsZero())

	state, err = (&tokenFlags{access: "a1", expiresAt: 1700000000000}).state()
	require.NoError(t, err)
	assert.Equal(t, "a1", state.AccessToken)
	assert.Equal(t, int64(1700000000000), state.ExpiresAt.UnixMilli())
}

func TestPrintResult_TokensOnlyWhenRotated(t *testing.T) {
	before := oauth.TokenState{AccessToken: "a1", RefreshToken: "r1"}

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, printResult(cmd, map[string]int{"validated": 3}, before, before))

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.NotContains(t, out, "tokens")
	assert.JSONEq(t, `{"validated":3}`, string(out["result"]))

	buf.Reset()
	after := oauth.TokenState{AccessToken: "a2", RefreshToken: "r2", ExpiresAt: time.UnixMilli(1700000000000)}
	require.NoError(t, printResult(cmd, map[string]int{"validated": 3}, before, after))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.JSONEq(t, `{"access_token":"a2","refresh_token":"r2","expires_at":1700000000000}`, string(out["tokens"]))
}
