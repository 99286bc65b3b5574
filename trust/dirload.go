package trust

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
)

// LoadTrustedKeysFromDir scans dir for raw Ed25519 public key files (32
// bytes each) and adds each as a trusted key, silently skipping any
// file that isn't a valid key. Keyring (keyring.go) is the durable,
// queryable alternative; this loader exists alongside it for
// zero-setup CLI use straight from a directory of key files.
func LoadTrustedKeysFromDir(c *Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		if len(raw) != ed25519.PublicKeySize {
			continue
		}
		c.AddTrustedKey(NewEd25519PublicKey(ed25519.PublicKey(raw)))
	}
	return nil
}
