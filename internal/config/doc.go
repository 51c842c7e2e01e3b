// Package config provides the configuration model and YAML loading for the
// GraphQL client.
//
// Configuration files support environment variable substitution with the
// ${VAR} and ${VAR:-default} syntax; "$$" escapes a literal dollar sign.
// Values absent from the file keep their defaults from DefaultConfig.
//
//	cfg, err := config.Load("avagql.yaml")
//	if err != nil {
//	    return err
//	}
//	c, err := client.New(cfg.ClientConfig())
//
// Durations accept Go duration strings ("30s", "1m30s") or plain numbers of
// seconds.
package config
