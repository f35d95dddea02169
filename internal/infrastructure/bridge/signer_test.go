package bridge

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestKeyPair(t *testing.T) (certPEM, keyPEM []byte, key *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "danfe test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return certPEM, keyPEM, key
}

func verifySignature(t *testing.T, pub *rsa.PublicKey, req request) {
	t.Helper()
	content, err := json.Marshal(signedContent{Call: req.Call, Params: req.Params, Timestamp: req.Timestamp})
	require.NoError(t, err)
	digest := sha256.Sum256(content)
	hashed := sha512.Sum512([]byte(hex.EncodeToString(digest[:])))

	sig, err := base64.StdEncoding.DecodeString(req.Signature)
	require.NoError(t, err)
	assert.NoError(t, rsa.VerifyPKCS1v15(pub, crypto.SHA512, hashed[:], sig))
}

func TestNewSigner(t *testing.T) {
	certPEM, keyPEM, _ := generateTestKeyPair(t)

	signer, err := NewSigner(certPEM, keyPEM)
	require.NoError(t, err)
	assert.Equal(t, string(certPEM), signer.Certificate())

	_, err = NewSigner([]byte("not a cert"), keyPEM)
	assert.Error(t, err)
	_, err = NewSigner(certPEM, []byte("not a key"))
	assert.Error(t, err)
}

func TestNewSignerFromFiles(t *testing.T) {
	certPEM, keyPEM, _ := generateTestKeyPair(t)
	dir := t.TempDir()
	certPath := filepath.Join(dir, "digital-certificate.txt")
	keyPath := filepath.Join(dir, "private-key.pem")
	require.NoError(t, os.WriteFile(certPath, certPEM, 0600))
	require.NoError(t, os.WriteFile(keyPath, keyPEM, 0600))

	signer, err := NewSignerFromFiles(certPath, keyPath)
	require.NoError(t, err)
	assert.NotNil(t, signer)

	_, err = NewSignerFromFiles(filepath.Join(dir, "missing.txt"), keyPath)
	assert.Error(t, err)
}

func TestSigner_Sign(t *testing.T) {
	certPEM, keyPEM, key := generateTestKeyPair(t)
	signer, err := NewSigner(certPEM, keyPEM)
	require.NoError(t, err)

	req := request{Call: callPrintersFind, Timestamp: 1700000000000}
	req.Signature, err = signer.Sign(req.Call, req.Params, req.Timestamp)
	require.NoError(t, err)

	verifySignature(t, &key.PublicKey, req)
}

func TestClient_SignedCalls(t *testing.T) {
	certPEM, keyPEM, key := generateTestKeyPair(t)
	signer, err := NewSigner(certPEM, keyPEM)
	require.NoError(t, err)

	fake := newFakeQZ(t, "EPSON")
	c := NewClient(&Config{URLs: []string{fake.url()}, Signer: signer})
	ctx := context.Background()

	require.NoError(t, c.Connect(ctx))
	_, err = c.FindPrinters(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Disconnect(ctx))

	reqs := fake.recorded()
	require.Len(t, reqs, 2)

	var cert string
	require.NoError(t, json.Unmarshal(reqs[0].Certificate, &cert))
	assert.Equal(t, string(certPEM), cert)
	assert.Empty(t, reqs[0].Signature, "handshake is not signed")

	find := reqs[1]
	assert.Equal(t, SignAlgorithm, find.SignAlgorithm)
	verifySignature(t, &key.PublicKey, find)
}
