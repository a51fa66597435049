package keygen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

// DefaultBits is the RSA modulus size used for cluster keys.
const DefaultBits = 4096

// PrivateKeyMode is the permission of a written private key file.
const PrivateKeyMode fs.FileMode = 0o400

// ErrKeyFileExists is returned when a private key file would be overwritten.
var ErrKeyFileExists = errors.New("private key file already exists")

// KeyPair holds an RSA key pair.
type KeyPair struct {
	// PrivateKey is PEM-encoded PKCS#1.
	PrivateKey []byte
	// PublicKey is in OpenSSH authorized_keys format.
	PublicKey []byte
}

// GenerateRSAKeyPair generates a new RSA key pair with the given modulus size.
func GenerateRSAKeyPair(bits int) (*KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA private key: %w", err)
	}

	pub, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive SSH public key: %w", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	return &KeyPair{
		PrivateKey: privPEM,
		PublicKey:  ssh.MarshalAuthorizedKey(pub),
	}, nil
}

// PrivateKeyPath returns where the PEM file for keyName lives inside dir.
func PrivateKeyPath(dir, keyName string) string {
	return filepath.Join(dir, keyName+".pem")
}

// WritePrivateKey writes the PEM private key to path with owner-only read
// permission. An existing file is never overwritten.
func (kp *KeyPair) WritePrivateKey(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	// #nosec G304
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrKeyFileExists, path)
		}
		return fmt.Errorf("failed to create private key file: %w", err)
	}

	if _, err := f.Write(kp.PrivateKey); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close private key file: %w", err)
	}

	return os.Chmod(path, PrivateKeyMode)
}
