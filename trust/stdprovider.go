package trust

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"hash"

	"golang.org/x/crypto/sha3"
)

// StdProvider is the default software crypto backend: SHA3 digests and
// Ed25519 signatures. It makes no hardware-backed or constant-time
// hardening claims beyond what the underlying packages provide.
type StdProvider struct{}

func (StdProvider) NewDigester() Digester { return &sha3Digester{} }
func (StdProvider) NewSigner() Signer     { return &ed25519Signer{} }
func (StdProvider) NewVerifier() Verifier { return &ed25519Verifier{} }

type sha3Digester struct {
	h hash.Hash
}

func (d *sha3Digester) Reset(alg HashAlg) error {
	switch alg {
	case HashSHA3_256:
		d.h = sha3.New256()
	case HashSHA3_512:
		d.h = sha3.New512()
	default:
		return errors.New("trust: unsupported hash algorithm")
	}
	return nil
}

func (d *sha3Digester) Write(p []byte) {
	if d.h == nil {
		return
	}
	d.h.Write(p)
}

func (d *sha3Digester) Sum() []byte {
	if d.h == nil {
		return nil
	}
	return d.h.Sum(nil)
}

type ed25519Signer struct {
	key ed25519.PrivateKey
	buf bytes.Buffer
}

func (s *ed25519Signer) Start(key PrivateKey) error {
	sk, ok := key.Raw().(ed25519.PrivateKey)
	if !ok {
		return errors.New("trust: key is not an Ed25519 private key")
	}
	s.key = sk
	s.buf.Reset()
	return nil
}

func (s *ed25519Signer) Write(p []byte) { s.buf.Write(p) }

func (s *ed25519Signer) Sign() ([]byte, error) {
	if s.key == nil {
		return nil, errors.New("trust: Sign called before Start")
	}
	return ed25519.Sign(s.key, s.buf.Bytes()), nil
}

type ed25519Verifier struct {
	key ed25519.PublicKey
	buf bytes.Buffer
}

func (v *ed25519Verifier) Start(key PublicKey) error {
	pk, ok := key.Raw().(ed25519.PublicKey)
	if !ok {
		return errors.New("trust: key is not an Ed25519 public key")
	}
	v.key = pk
	v.buf.Reset()
	return nil
}

func (v *ed25519Verifier) Write(p []byte) { v.buf.Write(p) }

func (v *ed25519Verifier) Verify(sig []byte) error {
	if v.key == nil {
		return errors.New("trust: Verify called before Start")
	}
	if !ed25519.Verify(v.key, v.buf.Bytes(), sig) {
		return errors.New("trust: signature verification failed")
	}
	return nil
}
