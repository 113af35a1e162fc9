package reconcile

import "strings"

// Intent is the closed set of desired-state declarations the reconciler
// accepts. Exactly three types implement it, one per policy kind; the
// reconciler dispatches on the concrete type.
type Intent interface {
	Kind() Kind

	// Validate rejects the intent before any remote call. Op matters
	// because grant and revoke share most, but not all, rules.
	Validate(op Op) error

	// PrincipalSet returns the principals the intent applies to.
	PrincipalSet() PrincipalSet
}

// AccessIntent grants or revokes plain access on a table or columns.
// Columns empty means all columns; Table may be "*" for all tables.
type AccessIntent struct {
	Database   string
	Table      string
	Columns    []string
	Accesses   []string
	Name       string // optional explicit policy name, honored for single-column intents
	Principals PrincipalSet
}

func (AccessIntent) Kind() Kind { return KindAccess }

func (in AccessIntent) PrincipalSet() PrincipalSet { return in.Principals }

func (in AccessIntent) Validate(op Op) error {
	if err := checkCommon(in.Database, in.Table, in.Principals); err != nil {
		return err
	}
	if in.Database == "*" {
		return validationErrorf("access policies may not target database *")
	}
	if len(in.Accesses) == 0 {
		return validationErrorf("at least one access kind is required")
	}
	if !validAccesses(in.Accesses) {
		return validationErrorf("unknown access kind in %v", in.Accesses)
	}
	return nil
}

// MaskIntent grants or revokes a column mask. Wildcard database, table
// or column is rejected.
type MaskIntent struct {
	Database   string
	Table      string
	Columns    []string
	MaskType   string
	Name       string
	Principals PrincipalSet
}

func (MaskIntent) Kind() Kind { return KindMask }

func (in MaskIntent) PrincipalSet() PrincipalSet { return in.Principals }

func (in MaskIntent) Validate(op Op) error {
	if err := checkCommon(in.Database, in.Table, in.Principals); err != nil {
		return err
	}
	if in.Database == "*" || in.Table == "*" {
		return validationErrorf("mask policies may not target database or table *")
	}
	if len(in.Columns) == 0 {
		return validationErrorf("mask intents must name at least one column")
	}
	for _, col := range in.Columns {
		if col == "*" {
			return validationErrorf("mask policies may not target column *")
		}
	}
	switch in.MaskType {
	case "MASK_HASH", "MASK_NONE", "CUSTOM":
	default:
		return validationErrorf("mask type must be MASK_HASH, MASK_NONE or CUSTOM, got %q", in.MaskType)
	}
	return nil
}

// RowFilterIntent grants or revokes a row filter on a table. Wildcard
// database or table is rejected, as is a blank filter expression.
type RowFilterIntent struct {
	Database   string
	Table      string
	FilterExpr string
	Accesses   []string
	Name       string
	Principals PrincipalSet
}

func (RowFilterIntent) Kind() Kind { return KindRowFilter }

func (in RowFilterIntent) PrincipalSet() PrincipalSet { return in.Principals }

func (in RowFilterIntent) Validate(op Op) error {
	if err := checkCommon(in.Database, in.Table, in.Principals); err != nil {
		return err
	}
	if in.Database == "*" || in.Table == "*" {
		return validationErrorf("row filter policies may not target database or table *")
	}
	if strings.TrimSpace(in.FilterExpr) == "" {
		return validationErrorf("row filter expression may not be blank")
	}
	return nil
}

func checkCommon(database, table string, principals PrincipalSet) error {
	if principals.IsEmpty() {
		return validationErrorf("at least one user, group or role is required")
	}
	if database == "" && table == "" {
		return validationErrorf("a database or table is required")
	}
	return nil
}
