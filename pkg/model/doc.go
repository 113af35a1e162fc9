// Package model defines the database models for permission-hub.
//
// These GORM models hold the administrator's desired state ("permission
// intents"). The remote policy documents themselves are owned by the
// policy authority and are never cached here.
//
// # Core Models
//
//   - TablePermission: plain table access grant for a user or role
//   - ColumnPermission: column mask grant (mask type per column)
//   - RowPermission: row filter grant (filter expression per table)
//   - HdfsQuota: storage space quota per database
//   - DirectoryUser: provisioned LDAP account
//   - AdminUser: local administrator account for the API
//
// Every permission model carries the invariant that at least one of
// UserName/RoleName is set, and the (resource, principal) tuple is unique
// per permission type.
package model
