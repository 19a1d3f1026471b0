package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// NewOrderNumber builds a human-facing order number: PREFIX-YYYYMMDD-NNNN
// with a random 4-digit suffix. Collisions are possible within a day; the
// caller retries on the unique constraint.
func NewOrderNumber(prefix string, now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("generating order number suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, now.UTC().Format("20060102"), n.Int64()), nil
}

// NewCorrelationRef builds the gateway transaction reference:
// PREFIX_<unix-ms>_<8-hex>. Unique per payment attempt and safe to hand
// to the gateway as tran_id.
func NewCorrelationRef(prefix string, now time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating correlation ref: %w", err)
	}
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), hex.EncodeToString(buf)), nil
}
