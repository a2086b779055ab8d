package main

import (
	"fmt"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"leadsync/internal/oauth"
	"os"
	"time"
)

type tokenFlags struct {
	access    string
	refresh   string
	expiresAt int64
}

func (f *tokenFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.access, "access-token", os.Getenv("LEADSYNC_ACCESS_TOKEN"), "OAuth access token")
	cmd.Flags().StringVar(&f.refresh, "refresh-token", os.Getenv("LEADSYNC_REFRESH_TOKEN"), "OAuth refresh token")
	cmd.Flags().Int64Var(&f.expiresAt, "expires-at", 0, "access token expiry in unix milliseconds (0 forces a refresh)")
}

func (f *tokenFlags) state() (oauth.TokenState, error) {
	if f.access == "" && f.refresh == "" {
		return oauth.TokenState{}, fmt.Errorf("either --access-token or --refresh-token is required")
	}
	state := oauth.TokenState{AccessToken: f.access, RefreshToken: f.refresh}
	if f.expiresAt > 0 {
		state.ExpiresAt = time.UnixMilli(f.expiresAt)
	}
	return state, nil
}

type tokensOutput struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

type commandOutput struct {
	Result any           `json:"result,omitempty"`
	Tokens *tokensOutput `json:"tokens,omitempty"`
}

// printResult writes result as indented JSON, adding the rotated token pair
// when the access token changed during the run.
func printResult(cmd *cobra.Command, result any, before, after oauth.TokenState) error {
	out := commandOutput{Result: result}
	if after.AccessToken != before.AccessToken {
		out.Tokens = &tokensOutput{
			AccessToken:  after.AccessToken,
			RefreshToken: after.RefreshToken,
			ExpiresAt:    after.ExpiresAt.UnixMilli(),
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
