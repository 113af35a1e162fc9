// Package store provides storage abstractions for the permission-hub
// server.
//
// This package defines interfaces for database operations, allowing the
// server endpoints to be decoupled from the specific database
// implementation. This enables easier testing with mocks and potential
// support for different storage backends.
//
// # Available Stores
//
//   - TablePermissionsStore / ColumnPermissionsStore / RowPermissionsStore:
//     permission intent records
//   - QuotasStore: per-database storage quotas
//   - DirectoryUsersStore: provisioned LDAP accounts
//   - AdminUsersStore: local API accounts
//   - HealthStore: connectivity checks
//
// # Usage
//
//	permStore := gorm.NewTablePermissionsStore(db)
//	page, err := permStore.List(store.PermissionFilter{Database: "sales"})
//	if err != nil {
//	    if errors.Is(err, store.ErrNotFound) {
//	        // Handle not found
//	    }
//	}
package store
