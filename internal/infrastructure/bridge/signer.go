package bridge

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// SignAlgorithm is announced to the bridge with every signed call
const SignAlgorithm = "SHA512"

// Signer holds the site certificate and the key that signs bridge calls
type Signer struct {
	certificate string
	privateKey  *rsa.PrivateKey
}

// NewSigner creates a signer from PEM encoded certificate and private key
func NewSigner(certificatePEM, privateKeyPEM []byte) (*Signer, error) {
	if block, _ := pem.Decode(certificatePEM); block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.New("invalid certificate PEM")
	}
	key, err := parsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, err
	}
	return &Signer{certificate: string(certificatePEM), privateKey: key}, nil
}

// NewSignerFromFiles loads the certificate and private key from disk
func NewSignerFromFiles(certificatePath, privateKeyPath string) (*Signer, error) {
	cert, err := os.ReadFile(certificatePath)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	key, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	return NewSigner(cert, key)
}

func parsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("invalid private key PEM")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return rsaKey, nil
}

// Certificate returns the PEM certificate sent when the connection opens
func (s *Signer) Certificate() string {
	return s.certificate
}

// Sign returns the base64 RSA-SHA512 signature of the hex SHA-256 digest
// of the call, timestamp and params
func (s *Signer) Sign(call string, params interface{}, timestamp int64) (string, error) {
	content, err := json.Marshal(signedContent{Call: call, Params: params, Timestamp: timestamp})
	if err != nil {
		return "", fmt.Errorf("marshal signed content: %w", err)
	}
	digest := sha256.Sum256(content)
	message := hex.EncodeToString(digest[:])

	hashed := sha512.Sum512([]byte(message))
	signature, err := rsa.SignPKCS1v15(rand.Reader, s.privateKey, crypto.SHA512, hashed[:])
	if err != nil {
		return "", fmt.Errorf("sign call: %w", err)
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}
