package ranger

// Policy type codes used by the authority.
const (
	PolicyTypeAccess    = 0
	PolicyTypeDataMask  = 1
	PolicyTypeRowFilter = 2
)

// PolicyResource is one axis of a policy's resource selector.
type PolicyResource struct {
	Values      []string `json:"values"`
	IsExcludes  bool     `json:"isExcludes"`
	IsRecursive bool     `json:"isRecursive"`
}

// ItemAccess is a single access-kind token inside a policy item.
type ItemAccess struct {
	Type      string `json:"type"`
	IsAllowed bool   `json:"isAllowed"`
}

// PolicyItem binds principals to a set of accesses.
type PolicyItem struct {
	Accesses []ItemAccess `json:"accesses"`
	Users    []string     `json:"users"`
	Groups   []string     `json:"groups"`
	Roles    []string     `json:"roles"`
}

// DataMaskInfo is the mask payload of a data-mask policy item.
type DataMaskInfo struct {
	DataMaskType string `json:"dataMaskType"`
	ValueExpr    string `json:"valueExpr,omitempty"`
}

// DataMaskPolicyItem is a policy item plus its mask payload.
type DataMaskPolicyItem struct {
	PolicyItem
	DataMaskInfo DataMaskInfo `json:"dataMaskInfo"`
}

// RowFilterInfo is the filter payload of a row-filter policy item.
type RowFilterInfo struct {
	FilterExpr string `json:"filterExpr"`
}

// RowFilterPolicyItem is a policy item plus its filter payload.
type RowFilterPolicyItem struct {
	PolicyItem
	RowFilterInfo RowFilterInfo `json:"rowFilterInfo"`
}

// Policy is one named rule set attached to a resource selector within one
// service. Exactly one of the three item lists is populated, selected by
// PolicyType.
type Policy struct {
	ID                   int64                     `json:"id,omitempty"`
	Service              string                    `json:"service"`
	Name                 string                    `json:"name"`
	PolicyType           int                       `json:"policyType"`
	Description          string                    `json:"description,omitempty"`
	Resources            map[string]PolicyResource `json:"resources"`
	PolicyItems          []PolicyItem              `json:"policyItems,omitempty"`
	DataMaskPolicyItems  []DataMaskPolicyItem      `json:"dataMaskPolicyItems,omitempty"`
	RowFilterPolicyItems []RowFilterPolicyItem     `json:"rowFilterPolicyItems,omitempty"`
}

// ItemCount returns the number of items of the policy's own kind.
func (p *Policy) ItemCount() int {
	switch p.PolicyType {
	case PolicyTypeDataMask:
		return len(p.DataMaskPolicyItems)
	case PolicyTypeRowFilter:
		return len(p.RowFilterPolicyItems)
	default:
		return len(p.PolicyItems)
	}
}

// RoleMember is one member entry of a role document.
type RoleMember struct {
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

// Role is a role document keyed by (service, name). Membership is a set;
// the authority preserves insertion order but duplicates are never written.
type Role struct {
	ID     int64        `json:"id,omitempty"`
	Name   string       `json:"name"`
	Users  []RoleMember `json:"users"`
	Groups []RoleMember `json:"groups"`
	Roles  []RoleMember `json:"roles"`
}

// MemberNames returns the names in a member list.
func MemberNames(members []RoleMember) []string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	return names
}
