package apk

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/avast/apkverifier"
)

// Info contains container-level facts about an APK file.
type Info struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`

	// Native architectures (e.g., ["arm64-v8a", "armeabi-v7a"])
	Architectures []string `json:"architectures,omitempty"`

	// Raw META-INF signature block; nil when the APK has none.
	Certificate *CertificateInfo `json:"certificate,omitempty"`

	// Signer details from signature verification; nil when the
	// inspector is unsupported or verification produced no certificate.
	Signer *Signer `json:"signer,omitempty"`
}

// CertificateInfo identifies the signature block entry by its digests.
type CertificateInfo struct {
	Entry        string       `json:"entry"`
	Fingerprints Fingerprints `json:"fingerprints"`
}

// Signer describes the best signing certificate found by verification.
type Signer struct {
	Subject     string    `json:"subject"`
	Issuer      string    `json:"issuer"`
	SHA256      string    `json:"sha256"`
	NotAfter    time.Time `json:"not_after"`
	Scheme      int       `json:"scheme"`
	Verified    bool      `json:"verified"`
	VerifyError string    `json:"verify_error,omitempty"`
}

// SignerInspector reads signer certificates from an APK. Implementations
// report whether they can run in this environment.
type SignerInspector interface {
	Supported() bool
	Inspect(path string) (*Signer, error)
}

// ErrNoSigner is returned when verification yields no usable certificate.
var ErrNoSigner = errors.New("no signing certificate found")

// NewSignerInspector returns the apkverifier-backed inspector.
func NewSignerInspector() SignerInspector {
	return verifierInspector{}
}

// DisabledSignerInspector reports itself unsupported.
type DisabledSignerInspector struct{}

func (DisabledSignerInspector) Supported() bool { return false }

func (DisabledSignerInspector) Inspect(string) (*Signer, error) {
	return nil, errors.New("signer inspection disabled")
}

type verifierInspector struct{}

func (verifierInspector) Supported() bool { return true }

// Inspect verifies the APK signature and returns the preferred certificate
// (v3 over v2 over v1). A failed verification still returns the certificate
// when one could be read, flagged as unverified.
func (verifierInspector) Inspect(path string) (*Signer, error) {
	res, verr := apkverifier.Verify(path, nil)

	_, cert := apkverifier.PickBestApkCert(res.SignerCerts)
	if cert == nil {
		if verr != nil {
			return nil, fmt.Errorf("APK verification failed: %w", verr)
		}
		return nil, ErrNoSigner
	}

	sum := sha256.Sum256(cert.Raw)
	s := &Signer{
		Subject:  cert.Subject.String(),
		Issuer:   cert.Issuer.String(),
		SHA256:   hex.EncodeToString(sum[:]),
		NotAfter: cert.NotAfter.UTC(),
		Scheme:   res.SigningSchemeId,
		Verified: verr == nil,
	}
	if verr != nil {
		s.VerifyError = verr.Error()
	}
	return s, nil
}

// Inspect collects size, content hash, native architectures and
// certificate fingerprints for the APK at path. Signer inspection runs
// only when signers is non-nil and supported; its failure is not fatal.
func Inspect(path string, signers SignerInspector) (*Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat APK: %w", err)
	}

	sum, err := HashFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to hash APK: %w", err)
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open APK: %w", err)
	}
	archs := extractArchitectures(&r.Reader)
	r.Close()

	info := &Info{
		Path:          path,
		Size:          fi.Size(),
		SHA256:        sum,
		Architectures: archs,
	}

	cert, err := ExtractCertificate(path)
	switch {
	case err == nil:
		info.Certificate = &CertificateInfo{
			Entry:        cert.Entry,
			Fingerprints: FingerprintsOf(cert.Raw),
		}
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	if signers != nil && signers.Supported() {
		if s, err := signers.Inspect(path); err == nil {
			info.Signer = s
		}
	}

	return info, nil
}
