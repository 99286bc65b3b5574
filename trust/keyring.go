package trust

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketTrustedKeys = []byte("trusted_keys")
	bucketHeldKeys    = []byte("held_keys")
	bucketManifest    = []byte("manifest")
)

const keyringSchemaVersion = 1

type keyringManifest struct {
	SchemaVersion int `json:"schema_version"`
}

// TrustedKeyRecord is a trusted public key as stored in a Keyring.
type TrustedKeyRecord struct {
	ID     KeyID  `json:"id"`
	Algo   string `json:"algo"`
	Public []byte `json:"public"`
}

// HeldKeyRef is a reference to a private key kept outside the keyring
// (e.g. an HSM slot, or a file path); the keyring never stores raw
// private key material itself.
type HeldKeyRef struct {
	ID   KeyID  `json:"id"`
	Algo string `json:"algo"`
	Path string `json:"path"`
}

// Keyring is a durable, bbolt-backed store of trusted public keys and
// held-private-key references, external to the TBDB container format
// itself: the format's "no random writes" invariant governs the
// container, not this side store.
type Keyring struct {
	db *bolt.DB
}

// OpenKeyring opens (creating if necessary) a keyring database at path,
// gating on a small schema-versioned manifest record the way
// node/store/manifest.go gates the node's own store.
func OpenKeyring(path string) (*Keyring, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("trust: open keyring: %w", err)
	}

	k := &Keyring{db: db}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketTrustedKeys, bucketHeldKeys, bucketManifest} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		mb := tx.Bucket(bucketManifest)
		raw := mb.Get([]byte("version"))
		if raw == nil {
			v, err := json.Marshal(keyringManifest{SchemaVersion: keyringSchemaVersion})
			if err != nil {
				return err
			}
			return mb.Put([]byte("version"), v)
		}
		var m keyringManifest
		if err := json.Unmarshal(raw, &m); err != nil {
			return err
		}
		if m.SchemaVersion > keyringSchemaVersion {
			return fmt.Errorf("keyring schema_version %d newer than supported %d", m.SchemaVersion, keyringSchemaVersion)
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return k, nil
}

func (k *Keyring) Close() error { return k.db.Close() }

func (k *Keyring) TrustKey(rec TrustedKeyRecord) error {
	return k.db.Update(func(tx *bolt.Tx) error {
		v, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketTrustedKeys).Put(rec.ID[:], v)
	})
}

func (k *Keyring) HoldKey(ref HeldKeyRef) error {
	return k.db.Update(func(tx *bolt.Tx) error {
		v, err := json.Marshal(ref)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketHeldKeys).Put(ref.ID[:], v)
	})
}

func (k *Keyring) TrustedKeys() ([]TrustedKeyRecord, error) {
	var out []TrustedKeyRecord
	err := k.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTrustedKeys).ForEach(func(_, v []byte) error {
			var rec TrustedKeyRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	return out, err
}

func (k *Keyring) HeldKeys() ([]HeldKeyRef, error) {
	var out []HeldKeyRef
	err := k.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketHeldKeys).ForEach(func(_, v []byte) error {
			var ref HeldKeyRef
			if err := json.Unmarshal(v, &ref); err != nil {
				return err
			}
			out = append(out, ref)
			return nil
		})
	})
	return out, err
}

// LoadContext populates c's trusted keys from every Ed25519 record
// held in the keyring.
func (k *Keyring) LoadContext(c *Context) error {
	recs, err := k.TrustedKeys()
	if err != nil {
		return err
	}
	for _, r := range recs {
		if r.Algo != "ed25519" {
			continue
		}
		c.AddTrustedKey(PublicKey{ID: r.ID, raw: ed25519.PublicKey(r.Public)})
	}
	return nil
}
