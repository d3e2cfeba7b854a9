package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// EmptyBodyHash is the SHA256 hash of an empty body.
const EmptyBodyHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// BuildStringToSign constructs the canonical string signed by the
// generation worker on its callback requests.
// Format: METHOD\nPATH\nTIMESTAMP\nSHA256(body)
func BuildStringToSign(method, path string, timestamp int64, bodyHash string) string {
	return fmt.Sprintf("%s\n%s\n%d\n%s", method, path, timestamp, bodyHash)
}

// ComputeHMACSHA256 computes HMAC-SHA256 over message and returns the
// hex-encoded signature.
func ComputeHMACSHA256(secretKey, message string) string {
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// SecureCompare performs constant-time comparison. MUST be used when
// comparing callback signatures.
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// HashBodySHA256 computes the SHA256 hash of body bytes, hex-encoded.
func HashBodySHA256(body []byte) string {
	if len(body) == 0 {
		return EmptyBodyHash
	}
	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}
