package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-socialgraph/pkg/auth"
)

// secretEnv holds the signing secret so it stays out of shell history.
const secretEnv = "SOCIALGRAPH_JWT_SECRET"

type generatedKey struct {
	Key  string `json:"key"`
	Hash string `json:"hash"`
}

func runKeygen(cmd *cobra.Command, _ []string) error {
	key, err := auth.GenerateKey()
	if err != nil {
		return err
	}
	hash, err := auth.HashKey(key)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, generatedKey{Key: key, Hash: hash})
	}
	fmt.Fprintf(out, "key:  %s\nhash: %s\n", key, hash)
	fmt.Fprintln(cmd.ErrOrStderr(), "Put the hash under auth.api_keys; the key is not shown again.")
	return nil
}

func runToken(cmd *cobra.Command, _ []string) error {
	secret := os.Getenv(secretEnv)
	if secret == "" {
		return errors.Newf("%s is not set", secretEnv)
	}
	m, err := auth.NewTokenManager(secret, tokenTTL)
	if err != nil {
		return err
	}
	token, err := m.Issue(tokenSubject, auth.Role(tokenRole))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
