package enums

import "fmt"

// ClaimChannel identifies which delivery path carried a gateway
// payment claim into the reconciler.
type ClaimChannel string

const (
	ClaimChannelRedirect ClaimChannel = "redirect"
	ClaimChannelIPN      ClaimChannel = "ipn"
	ClaimChannelManual   ClaimChannel = "manual"
)

var validClaimChannels = []ClaimChannel{
	ClaimChannelRedirect,
	ClaimChannelIPN,
	ClaimChannelManual,
}

// String implements fmt.Stringer.
func (c ClaimChannel) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ClaimChannel.
func (c ClaimChannel) IsValid() bool {
	for _, candidate := range validClaimChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseClaimChannel converts raw input into a ClaimChannel.
func ParseClaimChannel(value string) (ClaimChannel, error) {
	for _, candidate := range validClaimChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid claim channel %q", value)
}
