// Package directory manages posix accounts in the LDAP directory that
// backs principal names on the policy authority. Provisioning a user
// creates the account plus a personal group of the same name;
// deprovisioning removes both, after which the caller is expected to
// strip the principal from the authority's roles and policies.
package directory
