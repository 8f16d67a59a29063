// Package credentials loads CPDAX API keys from the environment or from HashiCorp Vault.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/vault/api"

	"cpdax/pkg/core"
)

// Environment variables read by FromEnv.
const (
	EnvAPIKey    = "CPDAX_API_KEY"
	EnvAPISecret = "CPDAX_API_SECRET"
)

// ErrNotFound is returned when Vault has no secret at the requested path.
var ErrNotFound = errors.New("credentials not found")

// FromEnv reads the key pair from CPDAX_API_KEY and CPDAX_API_SECRET.
// When both are unset the result is empty and the client is public-only.
// Setting only one of them is an error.
func FromEnv() (*core.Credentials, error) {
	creds := &core.Credentials{
		APIKey:    os.Getenv(EnvAPIKey),
		SecretKey: os.Getenv(EnvAPISecret),
	}
	if (creds.APIKey == "") != (creds.SecretKey == "") {
		return nil, fmt.Errorf("%s and %s must be set together", EnvAPIKey, EnvAPISecret)
	}
	return creds, nil
}

// NewVaultClient creates a Vault client for address authenticated with token.
func NewVaultClient(address, token string) (*api.Client, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	client.SetToken(token)
	return client, nil
}

// FromVault reads api_key and secret_key from the secret at path.
// Both KV v1 and KV v2 layouts are accepted; for v2 pass the full data path,
// e.g. "secret/data/cpdax".
func FromVault(ctx context.Context, client *api.Client, path string) (*core.Credentials, error) {
	secret, err := client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read %s from vault: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}

	data := secret.Data
	if nested, ok := data["data"].(map[string]any); ok {
		data = nested
	}

	creds := &core.Credentials{
		APIKey:    getString(data, "api_key"),
		SecretKey: getString(data, "secret_key"),
	}
	if !creds.Valid() {
		return nil, fmt.Errorf("%s: api_key and secret_key are required", path)
	}
	return creds, nil
}

func getString(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
