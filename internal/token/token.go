// Package token issues and verifies compact stateless HMAC tokens of the
// form `issuedAtMillis.nonceHex.signatureHex`. Validity is fully determined
// by the token content, the shared secret and a TTL; there is no server-side
// session table and deliberately no revocation.
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

func sign(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Issue mints a token bound to secret at the given instant.
func Issue(secret string, now time.Time) string {
	nonce := make([]byte, 8)
	_, _ = rand.Read(nonce)
	payload := strconv.FormatInt(now.UnixMilli(), 10) + "." + hex.EncodeToString(nonce)
	return payload + "." + sign(payload, secret)
}

// Verify reports whether tok was minted with secret within ttl of now.
// Malformed shape, unparseable timestamp, expiry and signature mismatch all
// come back as plain false.
func Verify(tok, secret string, ttl time.Duration, now time.Time) bool {
	if tok == "" {
		return false
	}
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return false
	}
	issuedAt, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return false
	}
	if now.UnixMilli()-issuedAt > ttl.Milliseconds() {
		return false
	}
	expected := sign(parts[0]+"."+parts[1], secret)
	return hmac.Equal([]byte(expected), []byte(parts[2]))
}
