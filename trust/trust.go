package trust

import (
	"crypto/ed25519"
	"errors"
	"log/slog"

	"golang.org/x/crypto/sha3"
)

// KeyIDLen is the size in bytes of a KeyID.
const KeyIDLen = 16

// KeyID identifies a key within a signature block; it is derived from
// the key's public material, never assigned by a caller.
type KeyID [KeyIDLen]byte

// KeyIDFromPublic derives a KeyID by truncating a SHA3-256 digest of
// the raw public key bytes.
func KeyIDFromPublic(pub []byte) KeyID {
	sum := sha3.Sum256(pub)
	var id KeyID
	copy(id[:], sum[:KeyIDLen])
	return id
}

// PublicKey pairs a KeyID with opaque key material a Verifier knows how
// to interpret.
type PublicKey struct {
	ID  KeyID
	raw any
}

func (k PublicKey) Raw() any { return k.raw }

// PrivateKey pairs a KeyID with opaque key material a Signer knows how
// to interpret.
type PrivateKey struct {
	ID  KeyID
	raw any
}

func (k PrivateKey) Raw() any { return k.raw }

// NewEd25519PublicKey wraps an Ed25519 public key, deriving its KeyID.
func NewEd25519PublicKey(pub ed25519.PublicKey) PublicKey {
	return PublicKey{ID: KeyIDFromPublic(pub), raw: pub}
}

// NewEd25519PrivateKey wraps an Ed25519 private key, deriving the
// KeyID from its public half.
func NewEd25519PrivateKey(sk ed25519.PrivateKey) PrivateKey {
	return PrivateKey{ID: KeyIDFromPublic(sk.Public().(ed25519.PublicKey)), raw: sk}
}

// Sentinel errors distinguishing "no candidate key" from "a candidate
// key failed verification".
var (
	ErrNoMatchingKey               = errors.New("trust: no trusted key id matched this signature block")
	ErrKeyRejected                 = errors.New("trust: signature verification failed for a matching key")
	ErrBadSignatureBlock           = errors.New("trust: malformed signature block")
	ErrUnsupportedSignatureVersion = errors.New("trust: unsupported signature version")
)

// sigHeaderLen is the size of a v0 signature block's fixed prefix:
// version(1) + hash alg(1) + key id(16).
const sigHeaderLen = 1 + 1 + KeyIDLen

// Context holds the trusted public keys and held private keys used to
// verify and produce signature blocks.
type Context struct {
	trusted  []PublicKey
	held     []PrivateKey
	provider CryptoProvider
	log      *slog.Logger
}

// NewContext creates a Context. A nil provider defaults to StdProvider,
// and a nil logger discards log output, so the logger field is always
// safe to call without a nil check.
func NewContext(provider CryptoProvider, log *slog.Logger) *Context {
	if provider == nil {
		provider = StdProvider{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(discardWriter{}, nil))
	}
	return &Context{provider: provider, log: log}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func (c *Context) AddTrustedKey(k PublicKey)  { c.trusted = append(c.trusted, k) }
func (c *Context) AddPrivateKey(k PrivateKey) { c.held = append(c.held, k) }

// VerifyCache implements the hash-once rule: the digest over the
// content block is computed at most once per algorithm and reused
// across every signature block that names it.
type VerifyCache struct {
	sums map[HashAlg][]byte
}

func NewVerifyCache() *VerifyCache { return &VerifyCache{sums: make(map[HashAlg][]byte)} }

func (c *Context) digestOnce(cache *VerifyCache, alg HashAlg, content []byte) ([]byte, error) {
	if sum, ok := cache.sums[alg]; ok {
		return sum, nil
	}
	d := c.provider.NewDigester()
	if err := d.Reset(alg); err != nil {
		return nil, err
	}
	d.Write(content)
	sum := d.Sum()
	cache.sums[alg] = sum
	c.log.Debug("computed content digest", "alg", alg, "bytes", len(content))
	return sum, nil
}

// Sign produces one v0 signature block payload per held private key,
// over fileHeader (the container's 8-byte header) followed by the
// signature prefix followed by the content digest.
func (c *Context) Sign(fileHeader, content []byte) ([][]byte, error) {
	if len(c.held) == 0 {
		return nil, nil
	}
	cache := NewVerifyCache()
	out := make([][]byte, 0, len(c.held))
	for _, key := range c.held {
		md, err := c.digestOnce(cache, HashSHA3_512, content)
		if err != nil {
			return nil, err
		}
		signer := c.provider.NewSigner()
		if err := signer.Start(key); err != nil {
			return nil, err
		}
		hdr := make([]byte, sigHeaderLen)
		hdr[0] = 0
		hdr[1] = byte(HashSHA3_512)
		copy(hdr[2:], key.ID[:])
		signer.Write(fileHeader)
		signer.Write(hdr)
		signer.Write(md)
		sig, err := signer.Sign()
		if err != nil {
			return nil, err
		}
		c.log.Debug("signed content block", "key_id", key.ID)
		out = append(out, append(hdr, sig...))
	}
	return out, nil
}

// VerifySignature checks one signature block's payload against the
// trusted keys. It returns nil on the first successful verification,
// ErrKeyRejected if a trusted key's id matched but verification failed
// for every such key, or ErrNoMatchingKey if no trusted key's id
// matched at all.
func (c *Context) VerifySignature(cache *VerifyCache, fileHeader, content, sigBlock []byte) error {
	if len(sigBlock) < sigHeaderLen {
		return ErrBadSignatureBlock
	}
	if sigBlock[0] != 0 {
		return ErrUnsupportedSignatureVersion
	}
	alg := HashAlg(sigBlock[1])
	var id KeyID
	copy(id[:], sigBlock[2:2+KeyIDLen])
	rawSig := sigBlock[sigHeaderLen:]

	matched := false
	for _, key := range c.trusted {
		if key.ID != id {
			continue
		}
		matched = true
		md, err := c.digestOnce(cache, alg, content)
		if err != nil {
			continue
		}
		verifier := c.provider.NewVerifier()
		if err := verifier.Start(key); err != nil {
			continue
		}
		verifier.Write(fileHeader)
		verifier.Write(sigBlock[:sigHeaderLen])
		verifier.Write(md)
		if verifier.Verify(rawSig) == nil {
			c.log.Debug("signature accepted", "key_id", id)
			return nil
		}
	}
	if matched {
		c.log.Debug("signature rejected", "key_id", id)
		return ErrKeyRejected
	}
	c.log.Debug("signature key unknown", "key_id", id)
	return ErrNoMatchingKey
}
