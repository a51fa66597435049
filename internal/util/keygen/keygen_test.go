package keygen

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestGenerateRSAKeyPair(t *testing.T) {
	t.Parallel()

	kp, err := GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	block, _ := pem.Decode(kp.PrivateKey)
	require.NotNil(t, block)
	assert.Equal(t, "RSA PRIVATE KEY", block.Type)

	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	require.NoError(t, err)
	assert.Equal(t, 2048, priv.N.BitLen())

	pub, _, _, _, err := ssh.ParseAuthorizedKey(kp.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "ssh-rsa", pub.Type())
}

func TestPrivateKeyPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("keys", "bork_ca-central-1.pem"), PrivateKeyPath("keys", "bork_ca-central-1"))
}

func TestWritePrivateKey(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "bork_ca-central-1.pem")
	kp := &KeyPair{PrivateKey: []byte("pem"), PublicKey: []byte("pub")}

	require.NoError(t, kp.WritePrivateKey(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, PrivateKeyMode, info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pem", string(data))
}

func TestWritePrivateKey_RefusesOverwrite(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "existing.pem")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	kp := &KeyPair{PrivateKey: []byte("new")}
	err := kp.WritePrivateKey(path)

	require.ErrorIs(t, err, ErrKeyFileExists)
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "old", string(data))
}
