package reconcile

import "fmt"

// Target is one (service, catalog, policy name) tuple an intent must be
// reconciled against. Catalog is empty for services that are not
// catalog-aware. Column is the single column this target's document
// selects ("*" for all, empty when the kind has no column axis).
type Target struct {
	Service    string
	Catalog    string
	PolicyName string
	Column     string
}

func (t Target) String() string {
	if t.Catalog != "" {
		return fmt.Sprintf("%s/%s:%s", t.Service, t.Catalog, t.PolicyName)
	}
	return t.Service + ":" + t.PolicyName
}

// ExpandTargets expands one intent into its full reconciliation target
// set: one document per column (for kinds with a column axis), per
// service, and per catalog on catalog-aware services. The policy name is
// derived deterministically so the same logical target always maps to the
// same document.
func ExpandTargets(intent Intent, services, catalogs []string) ([]Target, error) {
	var targets []Target
	switch in := intent.(type) {
	case AccessIntent:
		columns := in.Columns
		if len(columns) == 0 {
			columns = []string{"*"}
		}
		for _, col := range columns {
			base := accessPolicyName(in.Database, in.Table, col)
			if len(in.Columns) == 1 && in.Name != "" {
				base = in.Name
			}
			expanded, err := perService(base, col, services, catalogs)
			if err != nil {
				return nil, err
			}
			targets = append(targets, expanded...)
		}
	case MaskIntent:
		for _, col := range in.Columns {
			base := fmt.Sprintf("%s.%s.%s.mask", in.Database, in.Table, col)
			if len(in.Columns) == 1 && in.Name != "" {
				base = in.Name
			}
			expanded, err := perService(base, col, services, catalogs)
			if err != nil {
				return nil, err
			}
			targets = append(targets, expanded...)
		}
	case RowFilterIntent:
		base := fmt.Sprintf("%s.%s.row_filter", in.Database, in.Table)
		if in.Name != "" {
			base = in.Name
		}
		expanded, err := perService(base, "", services, catalogs)
		if err != nil {
			return nil, err
		}
		targets = append(targets, expanded...)
	default:
		return nil, fmt.Errorf("unsupported intent type %T", intent)
	}
	return targets, nil
}

// accessPolicyName derives the document name for a plain access target.
// Wildcards map to the literal "all" so names stay readable and unique.
func accessPolicyName(database, table, column string) string {
	tableStr := table
	if tableStr == "*" {
		tableStr = "all"
	}
	colStr := column
	if colStr == "*" {
		colStr = "all"
	}
	return fmt.Sprintf("%s.%s.%s.normal", database, tableStr, colStr)
}

func perService(base, column string, services, catalogs []string) ([]Target, error) {
	var targets []Target
	for _, service := range services {
		if service != "doris" {
			targets = append(targets, Target{Service: service, PolicyName: base, Column: column})
			continue
		}
		if len(catalogs) == 0 {
			return nil, validationErrorf("the doris service requires at least one catalog")
		}
		for _, catalog := range catalogs {
			targets = append(targets, Target{
				Service:    service,
				Catalog:    catalog,
				PolicyName: fmt.Sprintf("%s.%s.%s", service, catalog, base),
				Column:     column,
			})
		}
	}
	return targets, nil
}
