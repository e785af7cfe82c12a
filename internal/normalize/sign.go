package normalize

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
)

// sigBytes is the truncation length spec.md §6's signature encoding
// applies before base64: 20 bytes of a 20-byte HMAC-SHA1 digest
// (SHA1's full output), URL-safe base64-without-padding encoded to
// exactly 27 ASCII characters.
const sigBytes = 20

// SignMediaURL computes the media-proxy signature of spec.md §4.8
// step 9 / §6's "Signature encoding": HMAC-SHA1(key, url), truncated
// to 20 bytes, base64url-no-pad encoded.
func SignMediaURL(key []byte, url string) string {
	mac := hmac.New(sha1.New, key)
	mac.Write([]byte(url))
	sum := mac.Sum(nil)
	return base64.RawURLEncoding.EncodeToString(sum[:sigBytes])
}
