// Package apk reads APK containers: manifest and signing certificate
// extraction, content hashing and signer inspection.
package apk

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// maxZipFileSize is the maximum size for reading individual files from APK archives.
// This prevents memory exhaustion from malicious or corrupted APKs.
const maxZipFileSize = 650 * 1024 * 1024 // 650MB

// ManifestEntry is the name of the binary manifest inside an APK.
const ManifestEntry = "AndroidManifest.xml"

// ErrNotFound is returned when the container is readable but lacks the
// requested entry. Callers treat it as an empty result, not a failure.
var ErrNotFound = errors.New("entry not found")

// certExtensions are the signature block extensions under META-INF/.
var certExtensions = []string{".rsa", ".dsa", ".ec"}

// Certificate is a raw signature block pulled from META-INF/.
type Certificate struct {
	Entry string // e.g. "META-INF/CERT.RSA"
	Raw   []byte
}

// ExtractManifest returns the raw bytes of AndroidManifest.xml.
// It returns ErrNotFound when the entry is absent and a wrapped I/O error
// when the path is missing or the container is corrupt.
func ExtractManifest(apkPath string) ([]byte, error) {
	r, err := zip.OpenReader(apkPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open APK: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name == ManifestEntry {
			data, err := readZipFile(f)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", ManifestEntry, err)
			}
			return data, nil
		}
	}
	return nil, ErrNotFound
}

// ExtractCertificate returns the first META-INF/ signature block in
// container entry order. When an APK carries several signers only the first
// one is returned; entry order is not alphabetical order.
func ExtractCertificate(apkPath string) (*Certificate, error) {
	r, err := zip.OpenReader(apkPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open APK: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !isCertificateEntry(f.Name) {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		return &Certificate{Entry: f.Name, Raw: data}, nil
	}
	return nil, ErrNotFound
}

func isCertificateEntry(name string) bool {
	if !strings.HasPrefix(name, "META-INF/") {
		return false
	}
	ext := strings.ToLower(path.Ext(name))
	for _, want := range certExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

// extractArchitectures scans the APK's lib/ directory for native libraries.
func extractArchitectures(r *zip.Reader) []string {
	seen := make(map[string]struct{})
	var archs []string
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, "lib/") {
			continue
		}
		parts := strings.Split(f.Name, "/")
		if len(parts) < 3 || parts[1] == "" {
			continue
		}
		if _, ok := seen[parts[1]]; ok {
			continue
		}
		seen[parts[1]] = struct{}{}
		archs = append(archs, parts[1])
	}
	return archs
}

// readZipFile reads the contents of a file within a zip archive.
// Returns an error if the uncompressed size exceeds maxZipFileSize.
func readZipFile(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxZipFileSize {
		return nil, fmt.Errorf("file %s too large: %d bytes (max %d)", f.Name, f.UncompressedSize64, maxZipFileSize)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// LimitReader guards against a lying UncompressedSize64.
	return io.ReadAll(io.LimitReader(rc, int64(maxZipFileSize)))
}
