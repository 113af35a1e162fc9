package reconcile

import (
	"strings"

	"github.com/youcash/permission-hub/pkg/ranger"
)

// knownAccesses is the access vocabulary the authority accepts for hive
// style services.
var knownAccesses = map[string]struct{}{
	"drop": {}, "all": {}, "select": {}, "read": {}, "rwstorage": {},
	"update": {}, "index": {}, "refresh": {}, "tempudfadmin": {},
	"serviceadmin": {}, "create": {}, "lock": {}, "repladmin": {},
	"write": {}, "alter": {},
}

// dorisAllPrivileges is what "all" expands to on the doris service, which
// has no composite "all" token of its own.
var dorisAllPrivileges = []string{
	"SHOW_VIEW", "SHOW", "LOAD", "ALTER", "CREATE",
	"ALTER_CREATE", "SELECT", "DROP", "ALTER_CREATE_DROP",
}

// serviceAccesses maps the requested access tokens to what the target
// service expects: doris needs upper-case tokens, expands "all" to its
// full privilege list, and pairs "select" with "show".
func serviceAccesses(service string, accesses []string) []string {
	if service != "doris" {
		out := make([]string, len(accesses))
		for i, a := range accesses {
			out[i] = strings.ToLower(a)
		}
		return out
	}

	if len(accesses) == 1 && strings.EqualFold(accesses[0], "all") {
		out := make([]string, len(dorisAllPrivileges))
		copy(out, dorisAllPrivileges)
		return out
	}

	out := make([]string, 0, len(accesses)+1)
	hasSelect := false
	for _, a := range accesses {
		upper := strings.ToUpper(a)
		if upper == "SELECT" {
			hasSelect = true
		}
		out = append(out, upper)
	}
	if hasSelect && len(accesses) == 1 {
		out = append(out, "SHOW")
	}
	return out
}

func itemAccesses(accesses []string) []ranger.ItemAccess {
	out := make([]ranger.ItemAccess, len(accesses))
	for i, a := range accesses {
		out[i] = ranger.ItemAccess{Type: a, IsAllowed: true}
	}
	return out
}

// accessSetEqual compares two access lists as case-insensitive sets.
func accessSetEqual(a []ranger.ItemAccess, b []ranger.ItemAccess) bool {
	as := make(map[string]struct{}, len(a))
	for _, v := range a {
		as[strings.ToLower(v.Type)] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, v := range b {
		bs[strings.ToLower(v.Type)] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for k := range as {
		if _, ok := bs[k]; !ok {
			return false
		}
	}
	return true
}

func validAccesses(accesses []string) bool {
	for _, a := range accesses {
		if _, ok := knownAccesses[strings.ToLower(a)]; !ok {
			return false
		}
	}
	return true
}
