package audio_test

import (
	"crypto/md5"
	"encoding/hex"
)

func md5Prefix(s string) string {
	return md5N(s, 12)
}

func urlTag(rawURL string) string {
	return md5N(rawURL, 8)
}

func md5N(s string, n int) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:n]
}
