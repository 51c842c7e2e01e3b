// Package auth attaches credentials to outgoing GraphQL requests.
//
// A Decorator is invoked before every send. The variant is selected by
// configuration:
//   - bearer: "Authorization: bearer <token>"
//   - hasura-admin: the Hasura admin secret header
//   - jwt: a short-lived HS256 token signed with the resolved secret
//   - none: requests are sent unauthenticated
//
// Credentials are resolved once, at construction: an explicit token,
// else the configured environment variable (GRAPHQL_AUTH_TOKEN by
// default), else a Vault KV secret. A missing credential is a
// *util.ConfigError and never surfaces at send time.
//
//	dec, err := auth.New(ctx, auth.Config{Type: auth.TypeBearer})
//	if err != nil {
//	    return err
//	}
//	err = dec.Apply(ctx, req.Header)
package auth
