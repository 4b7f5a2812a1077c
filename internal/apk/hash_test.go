package apk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashBytesEmptyVectors(t *testing.T) {
	tests := []struct {
		alg  Algorithm
		want string
	}{
		{SHA256, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{SHA1, "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{MD5, "d41d8cd98f00b204e9800998ecf8427e"},
	}

	for _, tt := range tests {
		t.Run(string(tt.alg), func(t *testing.T) {
			got, err := HashBytes(tt.alg, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHashBytesUnknownAlgorithm(t *testing.T) {
	_, err := HashBytes("crc32", []byte("x"))
	assert.Error(t, err)
}

func TestHashFile(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("hello world"), 0644))

	got, err := HashFile(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", got)

	again, err := HashFile(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestHashFileDetectsSingleBitChange(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")
	require.NoError(t, os.WriteFile(a, []byte{0x00, 0x10, 0x20}, 0644))
	require.NoError(t, os.WriteFile(b, []byte{0x00, 0x11, 0x20}, 0644))

	for _, alg := range []Algorithm{SHA256, SHA1, MD5} {
		ha, err := HashFileWith(a, alg)
		require.NoError(t, err)
		hb, err := HashFileWith(b, alg)
		require.NoError(t, err)
		assert.NotEqual(t, ha, hb, alg)
	}
}

func TestFingerprintsOfMatchesHashBytes(t *testing.T) {
	data := []byte("certificate bytes")
	fp := FingerprintsOf(data)

	for alg, got := range map[Algorithm]string{SHA256: fp.SHA256, SHA1: fp.SHA1, MD5: fp.MD5} {
		want, err := HashBytes(alg, data)
		require.NoError(t, err)
		assert.Equal(t, want, got, alg)
	}
}
