package reconcile

//go:generate go run github.com/dmarkham/enumer -type Kind -trimprefix Kind -transform lower -output kind.gen.go

// Kind selects which of the three policy kinds an intent addresses.
type Kind int

const (
	KindAccess Kind = iota
	KindMask
	KindRowFilter
)

// PolicyType returns the authority's numeric code for the kind.
func (k Kind) PolicyType() int {
	switch k {
	case KindMask:
		return 1
	case KindRowFilter:
		return 2
	default:
		return 0
	}
}
