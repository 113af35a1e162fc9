// Package main provides the permhubctl CLI for the permission-hub service.
//
// permission-hub administers fine-grained data-access rules (table grants,
// column masks, row filters), HDFS storage quotas, and LDAP directory
// accounts, and keeps them synchronized with an Apache Ranger policy
// authority.
//
// # Architecture
//
// The service is organized into several packages:
//
//   - pkg/server: HTTP server and routing
//   - pkg/server/endpoints: REST API endpoint handlers
//   - pkg/reconcile: policy document reconciliation against the authority
//   - pkg/sync: retrying sync orchestration with local rollback
//   - pkg/ranger: Ranger REST client
//   - pkg/directory: LDAP account management
//   - pkg/quota: HDFS storage quota enforcement
//   - pkg/model: Database models
//   - pkg/db: Database connection utilities
//   - pkg/config: Configuration management
//
// # Quick Start
//
//	# Run database migrations
//	permhubctl db migrate
//
//	# Start the server
//	permhubctl server
//
//	# Grant select on a table from the command line
//	permhubctl sync grant --database sales --table orders --users alice
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - PERMHUB_CONFIG_PATH: Directory holding the YAML configuration file
//   - SECRET_KEY: Secret for admin API tokens
//   - RANGER_URL / RANGER_USER / RANGER_PASSWORD: Ranger admin API access
//   - PERMHUB_LOG_LEVEL: Log level (debug, info, warn, error)
//   - PERMHUB_PORT: Server port (default: 8000)
package main
