// Package trust implements TBDB's signing and verification layer: a
// narrow set of collaborator interfaces (Digester, Signer, Verifier),
// a default software implementation of them, and the signature-block
// framing and hash-once digest caching the core's reader/writer use.
package trust

// HashAlg identifies the digest algorithm named in a signature block's
// prefix.
type HashAlg uint8

const (
	HashSHA3_256 HashAlg = 1
	HashSHA3_512 HashAlg = 2
)

// Digester is the hashing capability the core consumes as an opaque
// collaborator: callers never see a concrete hash algorithm type, only
// Reset/Write/Sum, so the backing implementation can be swapped without
// touching any caller.
type Digester interface {
	Reset(alg HashAlg) error
	Write(p []byte)
	Sum() []byte
}

// Signer produces a raw signature over whatever bytes are fed to it
// between Start and Sign.
type Signer interface {
	Start(key PrivateKey) error
	Write(p []byte)
	Sign() ([]byte, error)
}

// Verifier checks a raw signature over whatever bytes are fed to it
// between Start and Verify.
type Verifier interface {
	Start(key PublicKey) error
	Write(p []byte)
	Verify(sig []byte) error
}

// CryptoProvider bundles the three capabilities a Context consumes.
// Swapping it (e.g. for an HSM-backed implementation) never touches
// the container format itself.
type CryptoProvider interface {
	NewDigester() Digester
	NewSigner() Signer
	NewVerifier() Verifier
}
