package xid

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// New returns a prefixed, roughly time-sortable unique id. The reference
// gateways use it for server-assigned entity ids; the cart uses it for
// synthetic service/custom line ids.
func New(prefix string) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return prefix + "-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return prefix + "-" + strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + hex.EncodeToString(buf)
}
