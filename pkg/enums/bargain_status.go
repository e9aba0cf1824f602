package enums

import "fmt"

// BargainStatus tracks a buyer's price proposal on a cart line.
type BargainStatus string

const (
	BargainStatusPending  BargainStatus = "pending"
	BargainStatusAccepted BargainStatus = "accepted"
	BargainStatusRejected BargainStatus = "rejected"
)

var validBargainStatuses = []BargainStatus{
	BargainStatusPending,
	BargainStatusAccepted,
	BargainStatusRejected,
}

// String implements fmt.Stringer.
func (b BargainStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BargainStatus.
func (b BargainStatus) IsValid() bool {
	for _, candidate := range validBargainStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBargainStatus converts raw input into a BargainStatus.
func ParseBargainStatus(value string) (BargainStatus, error) {
	for _, candidate := range validBargainStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bargain status %q", value)
}
