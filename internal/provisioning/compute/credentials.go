package compute

import (
	"errors"
	"fmt"
	"os"

	"github.com/imamik/spotcluster/internal/provisioning"
	"github.com/imamik/spotcluster/internal/util/keygen"
	"github.com/imamik/spotcluster/internal/util/naming"
)

// KeyBits is the RSA modulus size of generated key pairs.
const KeyBits = 2048

// CredentialsPhase provides the key pair used to reach the controller and
// workers. An existing pair is reused, never regenerated.
type CredentialsPhase struct {
	generate func(bits int) (*keygen.KeyPair, error)
}

// NewCredentialsPhase creates a new credentials phase.
func NewCredentialsPhase() *CredentialsPhase {
	return &CredentialsPhase{generate: keygen.GenerateRSAKeyPair}
}

// Name implements the provisioning.Phase interface.
func (p *CredentialsPhase) Name() string {
	return PhaseCredentials
}

// Provision implements the provisioning.Phase interface.
func (p *CredentialsPhase) Provision(ctx *provisioning.Context) error {
	rec := ctx.Record
	if rec.KeyPairName != "" {
		provisioning.LogResourceExists(ctx.Observer, PhaseCredentials, "key-pair", rec.PrivateKeyPath, rec.KeyPairName)
		return nil
	}

	name := naming.KeyPair(ctx.Config.ClusterName, ctx.Config.Region)
	keyPath := keygen.PrivateKeyPath(ctx.Config.PrivateKeyDir(), name)

	exists, err := ctx.Cloud.KeyPairExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to look up key pair %s: %w", name, err)
	}

	if exists {
		ctx.Observer.Event(provisioning.Event{
			Type:     provisioning.EventValidationWarning,
			Phase:    PhaseCredentials,
			Resource: name,
			Message:  fmt.Sprintf("reusing existing key pair; keep %s, it cannot be downloaded again", keyPath),
			Fields:   map[string]string{"path": keyPath},
		})
		rec.KeyPairName = name
		rec.KeyPairCreated = false
		rec.PrivateKeyPath = keyPath
		return ctx.Checkpoint()
	}

	provisioning.LogResourceCreating(ctx.Observer, PhaseCredentials, "key-pair", name)
	kp, err := p.generate(KeyBits)
	if err != nil {
		return err
	}

	// The private half is on disk before the public half is imported, so a
	// registered key always has a usable private key.
	if err := kp.WritePrivateKey(keyPath); err != nil {
		if errors.Is(err, keygen.ErrKeyFileExists) {
			return fmt.Errorf("key pair %s does not exist but %s does; move it away or import it: %w", name, keyPath, err)
		}
		return err
	}

	if err := ctx.Cloud.ImportKeyPair(ctx, name, kp.PublicKey, ctx.Tags("key pair")); err != nil {
		_ = os.Remove(keyPath)
		provisioning.LogResourceFailed(ctx.Observer, PhaseCredentials, "key-pair", name, err)
		return fmt.Errorf("failed to import key pair %s: %w", name, err)
	}

	rec.KeyPairName = name
	rec.KeyPairCreated = true
	rec.PrivateKeyPath = keyPath
	if err := ctx.Checkpoint(); err != nil {
		return err
	}
	provisioning.LogResourceCreated(ctx.Observer, PhaseCredentials, "key-pair", keyPath, name)
	return nil
}
