package cpdax

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
)

// DigestForm selects the encoding of an HMAC digest.
type DigestForm int

const (
	DigestRaw DigestForm = iota
	DigestHex
	DigestBase64
)

// CanonicalString builds the message that is signed for a private call.
// body is only appended for POST; the query string never takes part.
func CanonicalString(apiKey string, timestamp int64, method, pathSuffix string, body []byte) string {
	var sb strings.Builder
	sb.WriteString(apiKey)
	sb.WriteString(strconv.FormatInt(timestamp, 10))
	sb.WriteString(method)
	sb.WriteString("/")
	sb.WriteString(APIVersion)
	sb.WriteString("/")
	sb.WriteString(strings.TrimLeft(pathSuffix, "/"))
	if method == http.MethodPost {
		sb.Write(body)
	}
	return sb.String()
}

// Digest returns the HMAC-SHA256 of message keyed by secret in the requested form.
// Unknown forms return the raw digest.
func Digest(message, secret []byte, form DigestForm) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write(message)
	sum := h.Sum(nil)

	switch form {
	case DigestHex:
		out := make([]byte, hex.EncodedLen(len(sum)))
		hex.Encode(out, sum)
		return out
	case DigestBase64:
		out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
		base64.StdEncoding.Encode(out, sum)
		return out
	default:
		return sum
	}
}

// HexDigest is the lowercase hex HMAC-SHA256 sent in CP-ACCESS-DIGEST.
func HexDigest(message, secret string) string {
	return string(Digest([]byte(message), []byte(secret), DigestHex))
}
