package domain

// VolumeRole tags which position an account held in a swap when volume is
// attributed to it. The set is closed: every ledger write carries exactly
// one of these.
type VolumeRole int

const (
	// RoleTrader attributes volume to the account that performed the swap.
	RoleTrader VolumeRole = iota
	// RoleReferrer attributes volume to the trader's direct parent.
	RoleReferrer
	// RoleGrandparentReferrer attributes volume to the parent's parent
	// (or the platform account when no grandparent exists).
	RoleGrandparentReferrer
)

// String returns the role name for logs and diagnostics.
func (r VolumeRole) String() string {
	switch r {
	case RoleTrader:
		return "trader"
	case RoleReferrer:
		return "referrer"
	case RoleGrandparentReferrer:
		return "grandparent_referrer"
	default:
		return "unknown"
	}
}
