// Package config loads runtime configuration for the fieldsync CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file chosen by --config or FIELDSYNC_CONFIG. The
//     format follows the extension (.yaml, .json, .toml).
//  3. FIELDSYNC_* environment variables.
//  4. Command-line flags that were set explicitly (see RegisterFlags).
//
// # YAML example
//
//	server_base_url: https://surveys.example.com
//	database_path: /var/lib/fieldsync/client.db
//	online_check_interval: 30s
//	probe_targets:
//	  - https://surveys.example.com/health
//	  - grpc://surveys.example.com:9090
//	attachments:
//	  backend: s3
//	  s3_bucket: field-photos
//	  s3_endpoint: http://minio:9000
package config
