package lib

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// GenerateReferenceId returns an item reference in the format CS-YYMMDD-NNN.
// Uniqueness is enforced by the database; callers retry on conflict.
func GenerateReferenceId(now time.Time) string {
	return fmt.Sprintf("CS-%s-%03d", now.Format("060102"), rand.IntN(1000))
}

// GenerateOrderNumber returns an order number in the format ORD-YYYYMMDD-NNN.
func GenerateOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%03d", now.Format("20060102"), rand.IntN(1000))
}
