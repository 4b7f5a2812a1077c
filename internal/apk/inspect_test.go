package apk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin-ch-day/Nethira/internal/apktest"
)

type fakeSigners struct {
	supported bool
	signer    *Signer
	err       error
	calls     int
}

func (f *fakeSigners) Supported() bool { return f.supported }

func (f *fakeSigners) Inspect(string) (*Signer, error) {
	f.calls++
	return f.signer, f.err
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	path := apktest.WriteAPK(t, dir, "app.apk",
		apktest.Entry{Name: "AndroidManifest.xml", Data: []byte("m")},
		apktest.Entry{Name: "lib/arm64-v8a/libfoo.so", Data: []byte("so")},
		apktest.Entry{Name: "lib/arm64-v8a/libbar.so", Data: []byte("so")},
		apktest.Entry{Name: "lib/x86_64/libfoo.so", Data: []byte("so")},
		apktest.Entry{Name: "META-INF/CERT.RSA", Data: []byte("rsa")},
	)

	signers := &fakeSigners{supported: true, signer: &Signer{Subject: "CN=Example"}}
	info, err := Inspect(path, signers)
	require.NoError(t, err)

	wantHash, err := HashFile(path)
	require.NoError(t, err)

	assert.Equal(t, wantHash, info.SHA256)
	assert.Positive(t, info.Size)
	assert.Equal(t, []string{"arm64-v8a", "x86_64"}, info.Architectures)
	require.NotNil(t, info.Certificate)
	assert.Equal(t, "META-INF/CERT.RSA", info.Certificate.Entry)
	assert.Equal(t, FingerprintsOf([]byte("rsa")), info.Certificate.Fingerprints)
	require.NotNil(t, info.Signer)
	assert.Equal(t, "CN=Example", info.Signer.Subject)
}

func TestInspectSkipsUnsupportedSigner(t *testing.T) {
	path := apktest.WriteAPK(t, t.TempDir(), "app.apk",
		apktest.Entry{Name: "AndroidManifest.xml", Data: []byte("m")},
	)

	signers := &fakeSigners{supported: false}
	info, err := Inspect(path, signers)
	require.NoError(t, err)
	assert.Nil(t, info.Certificate)
	assert.Nil(t, info.Signer)
	assert.Zero(t, signers.calls)

	failing := &fakeSigners{supported: true, err: errors.New("bad signature")}
	info, err = Inspect(path, failing)
	require.NoError(t, err)
	assert.Nil(t, info.Signer)
}

func TestDisabledSignerInspector(t *testing.T) {
	var s SignerInspector = DisabledSignerInspector{}
	assert.False(t, s.Supported())
	_, err := s.Inspect("x.apk")
	assert.Error(t, err)
}
