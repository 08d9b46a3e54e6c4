// Package config provides configuration parsing for stateart applications.
//
// The configuration is stored in stateart.yaml (or stateart.yml, or
// stateart.json) at the project root. Every field can be overridden by a
// STATEART_* environment variable.
//
// # Configuration File Structure
//
//	name: shop
//	stores:
//	  mergeDuplicates: false
//	  saveTimeout: 5s
//	persist:
//	  backend: bolt        # memory, file, bolt, sqlite or s3
//	  path: stateart.db
//	devtools:
//	  enabled: true
//	  host: localhost
//	  port: 7345
//	  jwtSecret: ""        # enables bearer auth when set
//	log:
//	  level: info
//	  format: text
//	metrics:
//	  enabled: true
//	  namespace: stateart
//	tracing:
//	  enabled: false
//
// # Environment Overrides
//
//	STATEART_DEVTOOLS_PORT=8080
//	STATEART_PERSIST_BACKEND=sqlite
//	STATEART_LOG_LEVEL=debug
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Devtools:", cfg.DevtoolsURL())
package config
