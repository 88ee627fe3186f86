// Package ordernum generates order identifiers of the form
// ORD-<unix-millis>-<9 random chars>. The random suffix comes from
// crypto/rand; uniqueness is still enforced by the storage layer, the
// creation path retries on a duplicate.
package ordernum

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"time"
)

const (
	prefix      = "ORD"
	suffixLen   = 9
	suffixChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// New returns a fresh order number. Call again if the store reports the
// number as taken.
func New() (string, error) {
	suffix, err := randomSuffix(suffixLen)
	if err != nil {
		return "", err
	}
	millis := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return prefix + "-" + millis + "-" + suffix, nil
}

func randomSuffix(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = suffixChars[int(b)%len(suffixChars)]
	}
	return string(buf), nil
}
