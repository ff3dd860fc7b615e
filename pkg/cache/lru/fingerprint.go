package lru

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
)

// Fingerprint returns the cache key for a question/answer pair: the hex
// SHA-256 of both fields, each prefixed with its byte length so that no
// choice of field content can make two distinct pairs hash the same input.
func Fingerprint(question, answer string) string {
	h := sha256.New()
	writeField(h, question)
	writeField(h, answer)
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(w io.Writer, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	w.Write(n[:])
	w.Write([]byte(s))
}

// shortKey trims a fingerprint for log lines.
func shortKey(key string) string {
	if len(key) > 16 {
		return key[:16]
	}
	return key
}
