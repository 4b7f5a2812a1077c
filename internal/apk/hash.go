package apk

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// Algorithm names a digest used for content and certificate fingerprints.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA1   Algorithm = "sha1"
	MD5    Algorithm = "md5"
)

func (a Algorithm) new() (hash.Hash, error) {
	switch a {
	case SHA256:
		return sha256.New(), nil
	case SHA1:
		return sha1.New(), nil
	case MD5:
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", string(a))
	}
}

// Fingerprints holds the three digests reported for a certificate.
type Fingerprints struct {
	SHA256 string `json:"sha256"`
	SHA1   string `json:"sha1"`
	MD5    string `json:"md5"`
}

// HashBytes returns the hex digest of data.
func HashBytes(alg Algorithm, data []byte) (string, error) {
	h, err := alg.new()
	if err != nil {
		return "", err
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile returns the hex sha256 of the file at path. This is the content
// hash recorded in the pull log and the version ledger.
func HashFile(path string) (string, error) {
	return HashFileWith(path, SHA256)
}

// HashFileWith streams the file at path through alg.
func HashFileWith(path string, alg Algorithm) (string, error) {
	h, err := alg.new()
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintsOf computes sha256, sha1 and md5 over data in one pass.
func FingerprintsOf(data []byte) Fingerprints {
	s256, s1, m5 := sha256.New(), sha1.New(), md5.New()
	w := io.MultiWriter(s256, s1, m5)
	w.Write(data)
	return Fingerprints{
		SHA256: hex.EncodeToString(s256.Sum(nil)),
		SHA1:   hex.EncodeToString(s1.Sum(nil)),
		MD5:    hex.EncodeToString(m5.Sum(nil)),
	}
}
