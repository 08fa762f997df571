package services

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// voucherCodeAttempts bounds regeneration after a unique-code collision.
const voucherCodeAttempts = 5

// CodeGenerator produces reward voucher codes.
type CodeGenerator func(now time.Time) string

// NewVoucherCode returns RV-<base36 millis>-<6 hex chars>.
func NewVoucherCode(now time.Time) string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "RV-" + strings.ToUpper(strconv.FormatInt(now.UnixNano(), 36))
	}
	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return "RV-" + stamp + "-" + strings.ToUpper(hex.EncodeToString(buf))
}
