package reconcile

// PrincipalSet names the users, groups, and roles an intent applies to.
type PrincipalSet struct {
	Users  []string
	Groups []string
	Roles  []string
}

// IsEmpty reports whether no principal is named at all.
func (p PrincipalSet) IsEmpty() bool {
	return len(p.Users) == 0 && len(p.Groups) == 0 && len(p.Roles) == 0
}

// CoveredBy reports whether every principal in the set is already present
// in the given member lists.
func (p PrincipalSet) CoveredBy(users, groups, roles []string) bool {
	return subset(p.Users, users) && subset(p.Groups, groups) && subset(p.Roles, roles)
}

func subset(want, have []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(have))
	for _, v := range have {
		set[v] = struct{}{}
	}
	for _, v := range want {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}

// removeAll deletes every occurrence of the given names from list,
// preserving order, and reports whether anything was removed.
func removeAll(list []string, names []string) ([]string, bool) {
	if len(names) == 0 || len(list) == 0 {
		return list, false
	}
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	kept := list[:0:0]
	removed := false
	for _, v := range list {
		if _, ok := drop[v]; ok {
			removed = true
			continue
		}
		kept = append(kept, v)
	}
	if !removed {
		return list, false
	}
	return kept, true
}

// diff returns the members of want that are absent from have.
func diff(want, have []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, v := range have {
		set[v] = struct{}{}
	}
	var missing []string
	for _, v := range want {
		if _, ok := set[v]; !ok {
			missing = append(missing, v)
		}
	}
	return missing
}
