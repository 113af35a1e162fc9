// Package config provides configuration management for permission-hub.
//
// Configuration is loaded once at process start from an optional YAML file
// (permhub.yml) overlaid with environment variables, and the resulting
// Config struct is passed explicitly into every constructor. There is no
// package-level configuration state.
//
// # Key Configuration Options
//
//   - DATABASE_URL: PostgreSQL connection string
//   - RANGER_URL / RANGER_USER / RANGER_PASSWORD: policy authority
//   - RANGER_SERVICES / RANGER_CATALOGS: fan-out targets
//   - LDAP_SERVER / LDAP_USER_DN: directory service
//   - SECRET_KEY: JWT signing secret
//   - PERMHUB_SYNC_ATTEMPTS / PERMHUB_SYNC_RETRY_DELAY: sync retry budget
package config
