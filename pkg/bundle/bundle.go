// Package bundle parses YAML permission bundles, the declarative input
// format of the bulk importer. A bundle lists table grants, column
// masks, row filters and storage quotas to bring into effect in one
// batch.
package bundle

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// PrincipalList is a list of principal names. It accepts both the
// scalar form (`users: alice`) and the sequence form
// (`users: [alice, bob]`).
type PrincipalList []string

func (p *PrincipalList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*p = PrincipalList{value.Value}
		return nil
	}
	var names []string
	if err := value.Decode(&names); err != nil {
		return err
	}
	*p = names
	return nil
}

// TableGrant is one table-level select grant for a set of principals.
type TableGrant struct {
	Database string        `yaml:"database"`
	Table    string        `yaml:"table"`
	Users    PrincipalList `yaml:"users,omitempty"`
	Roles    PrincipalList `yaml:"roles,omitempty"`
}

// ColumnMask is one column mask for a set of principals.
type ColumnMask struct {
	Database string        `yaml:"database"`
	Table    string        `yaml:"table"`
	Column   string        `yaml:"column"`
	MaskType string        `yaml:"mask_type"`
	Users    PrincipalList `yaml:"users,omitempty"`
	Roles    PrincipalList `yaml:"roles,omitempty"`
}

// RowFilter is one row filter expression for a set of principals.
type RowFilter struct {
	Database string        `yaml:"database"`
	Table    string        `yaml:"table"`
	Filter   string        `yaml:"filter"`
	Users    PrincipalList `yaml:"users,omitempty"`
	Roles    PrincipalList `yaml:"roles,omitempty"`
}

// Quota is one storage quota assignment.
type Quota struct {
	Database string  `yaml:"database"`
	QuotaGB  float64 `yaml:"quota_gb"`
}

// Bundle is a parsed permission bundle.
type Bundle struct {
	TablePermissions  []TableGrant `yaml:"table_permissions,omitempty"`
	ColumnPermissions []ColumnMask `yaml:"column_permissions,omitempty"`
	RowPermissions    []RowFilter  `yaml:"row_permissions,omitempty"`
	Quotas            []Quota      `yaml:"quotas,omitempty"`
}

// Parse decodes and validates a bundle document.
func Parse(data []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse bundle: %w", err)
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Empty reports whether the bundle carries no entries at all.
func (b *Bundle) Empty() bool {
	return len(b.TablePermissions) == 0 &&
		len(b.ColumnPermissions) == 0 &&
		len(b.RowPermissions) == 0 &&
		len(b.Quotas) == 0
}

func (b *Bundle) validate() error {
	for i, grant := range b.TablePermissions {
		if grant.Database == "" || grant.Table == "" {
			return fmt.Errorf("table_permissions[%d]: database and table are required", i)
		}
		if len(grant.Users)+len(grant.Roles) == 0 {
			return fmt.Errorf("table_permissions[%d]: at least one user or role is required", i)
		}
	}
	for i, mask := range b.ColumnPermissions {
		if mask.Database == "" || mask.Table == "" || mask.Column == "" {
			return fmt.Errorf("column_permissions[%d]: database, table and column are required", i)
		}
		if mask.MaskType == "" {
			return fmt.Errorf("column_permissions[%d]: mask_type is required", i)
		}
		if len(mask.Users)+len(mask.Roles) == 0 {
			return fmt.Errorf("column_permissions[%d]: at least one user or role is required", i)
		}
	}
	for i, filter := range b.RowPermissions {
		if filter.Database == "" || filter.Table == "" || filter.Filter == "" {
			return fmt.Errorf("row_permissions[%d]: database, table and filter are required", i)
		}
		if len(filter.Users)+len(filter.Roles) == 0 {
			return fmt.Errorf("row_permissions[%d]: at least one user or role is required", i)
		}
	}
	for i, quota := range b.Quotas {
		if quota.Database == "" {
			return fmt.Errorf("quotas[%d]: database is required", i)
		}
		if quota.QuotaGB <= 0 {
			return fmt.Errorf("quotas[%d]: quota_gb must be positive", i)
		}
	}
	return nil
}
