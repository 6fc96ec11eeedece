package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns an identifier of the form "<prefix>-<unix-ms>-<9 random chars>".
// The random part comes from a v4 UUID, so two ids minted in the same
// millisecond still differ.
func NewID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixMilli(), randomSuffix())
}

// NewOrderNumber returns the customer-facing order number, e.g.
// "ORD-1718000000000-3F9A1C2B7".
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), strings.ToUpper(randomSuffix()))
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
