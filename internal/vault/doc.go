// Package vault reads GraphQL credentials from the HashiCorp Vault KV
// secrets engine.
//
// Only token authentication is supported. When Token is empty the Vault
// API client falls back to the VAULT_TOKEN environment variable.
//
//	c, err := vault.New(vault.Config{Address: "https://vault:8200"}, logger)
//	token, err := c.ReadString(ctx, "secret", "graphql/github", "token")
package vault
