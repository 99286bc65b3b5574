package adb

import (
	"crypto/ed25519"
	"io"
	"testing"

	"tbdb.dev/core/streamio"
	"tbdb.dev/core/trust"
)

func buildSimpleContainer(t *testing.T, tc *trust.Context) []byte {
	t.Helper()
	w := NewDynamicWriter(1, 4)
	v := w.WriteBlob([]byte("payload"))
	if err := w.WriteRoot(v); err != nil {
		t.Fatalf("WriteRoot: %v", err)
	}
	out := streamio.NewBufferOutput()
	if err := Serialize(out, w, tc); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	return out.Bytes()
}

func TestReadStreamRoundTripUnsigned(t *testing.T) {
	buf := buildSimpleContainer(t, nil)
	sr, err := ReadStream(streamio.NewSliceInput(buf), 1, nil, nil)
	if err != nil {
		t.Fatalf("ReadStream: %v", err)
	}
	v := Root(sr)
	got, ok := ReadBlob(sr, v)
	if !ok || string(got) != "payload" {
		t.Fatalf("root blob = %q, ok=%v", got, ok)
	}
}

func TestReadStreamSignedRoundTrip(t *testing.T) {
	pub, sk, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer := trust.NewContext(nil, nil)
	signer.AddPrivateKey(trust.NewEd25519PrivateKey(sk))
	buf := buildSimpleContainer(t, signer)

	verifier := trust.NewContext(nil, nil)
	verifier.AddTrustedKey(trust.NewEd25519PublicKey(pub))
	sr, err := ReadStream(streamio.NewSliceInput(buf), 1, verifier, nil)
	if err != nil {
		t.Fatalf("ReadStream: %v", err)
	}
	if got, ok := ReadBlob(sr, Root(sr)); !ok || string(got) != "payload" {
		t.Fatalf("root blob = %q, ok=%v", got, ok)
	}
}

func TestReadStreamNoKeyWhenUntrusted(t *testing.T) {
	pub2, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	_, sk1, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer := trust.NewContext(nil, nil)
	signer.AddPrivateKey(trust.NewEd25519PrivateKey(sk1))
	buf := buildSimpleContainer(t, signer)

	// The verifying context trusts an unrelated key, so the signature's
	// key id never matches: NO_KEY, not KEY_REJECTED.
	verifier := trust.NewContext(nil, nil)
	verifier.AddTrustedKey(trust.NewEd25519PublicKey(pub2))
	_, err = ReadStream(streamio.NewSliceInput(buf), 1, verifier, nil)
	if code, ok := Code(err); !ok || code != ErrNoKey {
		t.Fatalf("err = %v, want NO_KEY", err)
	}
}

func TestReadStreamKeyRejectedOnTamperedSignature(t *testing.T) {
	pub, sk, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer := trust.NewContext(nil, nil)
	signer.AddPrivateKey(trust.NewEd25519PrivateKey(sk))
	buf := buildSimpleContainer(t, signer)

	// Flip the first of the signature block's raw signature bytes: file
	// header(8) + content block header(4) + content slab(12: the 8-byte
	// "payload" blob and the 4-byte root) + pad(4) + sig block header(4)
	// + sig prefix(18) lands at offset 50. The trailing bytes of the
	// block are alignment padding, which verifies regardless of value,
	// so the end of the block is avoided.
	tampered := append([]byte(nil), buf...)
	tampered[50] ^= 0xFF

	verifier := trust.NewContext(nil, nil)
	verifier.AddTrustedKey(trust.NewEd25519PublicKey(pub))
	_, err = ReadStream(streamio.NewSliceInput(tampered), 1, verifier, nil)
	if code, ok := Code(err); !ok || code != ErrKeyRejected {
		t.Fatalf("err = %v, want KEY_REJECTED", err)
	}
}

func TestReadStreamSchemaMismatch(t *testing.T) {
	buf := buildSimpleContainer(t, nil)
	_, err := ReadStream(streamio.NewSliceInput(buf), 2, nil, nil)
	if code, ok := Code(err); !ok || code != ErrBadFormat {
		t.Fatalf("err = %v, want BAD_FORMAT", err)
	}
}

func TestReadStreamDataBlockCallback(t *testing.T) {
	w := NewDynamicWriter(1, 4)
	v := w.WriteBlob([]byte("root"))
	if err := w.WriteRoot(v); err != nil {
		t.Fatalf("WriteRoot: %v", err)
	}
	out := streamio.NewBufferOutput()
	if err := Serialize(out, w, nil); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	// Append an extra DATA block by hand, simulating a large-payload
	// container.
	extra := []byte("external blob content")
	raw := append([]byte(nil), out.Bytes()...)
	raw = append(raw, encodeBlockHeader(BlockData, uint32(len(extra)))...)
	raw = append(raw, extra...)
	if pad := blockPadding(uint32(len(extra))); pad > 0 {
		raw = append(raw, make([]byte, pad)...)
	}

	var seenLen int
	var seenBytes []byte
	_, err := ReadStream(streamio.NewSliceInput(raw), 1, nil, func(sr *StreamReader, length int, body streamio.InputStream) error {
		seenLen = length
		b, err := io.ReadAll(body)
		if err != nil {
			return err
		}
		seenBytes = b
		return nil
	})
	if err != nil {
		t.Fatalf("ReadStream: %v", err)
	}
	if seenLen != len(extra) || string(seenBytes) != string(extra) {
		t.Fatalf("callback saw (%d, %q), want (%d, %q)", seenLen, seenBytes, len(extra), extra)
	}
}
