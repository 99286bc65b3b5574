package trust

import (
	"crypto/ed25519"
	"testing"

	"golang.org/x/crypto/sha3"
)

func TestSha3DigesterMatchesLibrary(t *testing.T) {
	p := StdProvider{}
	d := p.NewDigester()
	if err := d.Reset(HashSHA3_256); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	d.Write([]byte("hello"))
	got := d.Sum()
	want := sha3.Sum256([]byte("hello"))
	if string(got) != string(want[:]) {
		t.Fatalf("Sum() = %x, want %x", got, want)
	}
}

func TestSha3DigesterUnsupportedAlg(t *testing.T) {
	d := StdProvider{}.NewDigester()
	if err := d.Reset(HashAlg(99)); err == nil {
		t.Fatalf("expected an error for an unsupported hash algorithm")
	}
}

func TestEd25519SignerRejectsWrongKeyType(t *testing.T) {
	s := StdProvider{}.NewSigner()
	err := s.Start(PrivateKey{raw: "not a key"})
	if err == nil {
		t.Fatalf("expected an error starting a signer with a non-Ed25519 key")
	}
}

func TestEd25519VerifierRejectsWrongKeyType(t *testing.T) {
	v := StdProvider{}.NewVerifier()
	err := v.Start(PublicKey{raw: 42})
	if err == nil {
		t.Fatalf("expected an error starting a verifier with a non-Ed25519 key")
	}
}

func TestEd25519SignVerifyThroughProvider(t *testing.T) {
	pub, sk, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	p := StdProvider{}
	signer := p.NewSigner()
	if err := signer.Start(NewEd25519PrivateKey(sk)); err != nil {
		t.Fatalf("Start signer: %v", err)
	}
	signer.Write([]byte("message"))
	sig, err := signer.Sign()
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	verifier := p.NewVerifier()
	if err := verifier.Start(NewEd25519PublicKey(pub)); err != nil {
		t.Fatalf("Start verifier: %v", err)
	}
	verifier.Write([]byte("message"))
	if err := verifier.Verify(sig); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}
