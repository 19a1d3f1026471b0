package enums

import "fmt"

// ClaimStatus captures what the gateway asserted about a transaction
// when it notified us.
type ClaimStatus string

const (
	ClaimStatusSuccess   ClaimStatus = "success"
	ClaimStatusFailed    ClaimStatus = "failed"
	ClaimStatusCancelled ClaimStatus = "cancelled"
)

var validClaimStatuses = []ClaimStatus{
	ClaimStatusSuccess,
	ClaimStatusFailed,
	ClaimStatusCancelled,
}

// String implements fmt.Stringer.
func (c ClaimStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ClaimStatus.
func (c ClaimStatus) IsValid() bool {
	for _, candidate := range validClaimStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseClaimStatus converts raw input into a ClaimStatus.
func ParseClaimStatus(value string) (ClaimStatus, error) {
	for _, candidate := range validClaimStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid claim status %q", value)
}
