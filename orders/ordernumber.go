package orders

import (
	"fmt"
	"regexp"
	"time"

	"agrolink/utils"
)

const orderNumberPrefix = "AGL"

// NewOrderNumber builds a human-readable order number: prefix, timestamp
// suffix, random suffix. Collisions are handled by the caller regenerating,
// never by failing the order.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, now.Format("20060102150405"), utils.GenerateRandomDigitString(4))
}

var orderNumberRe = regexp.MustCompile(`^` + orderNumberPrefix + `-\d{14}-\d{4}$`)

// ValidOrderNumber reports whether s matches the generated format. Used by
// the payment reference parsing and by tests.
func ValidOrderNumber(s string) bool {
	return orderNumberRe.MatchString(s)
}
