package adb

import (
	"crypto/ed25519"
	"testing"

	"tbdb.dev/core/streamio"
	"tbdb.dev/core/trust"
)

func TestSerializeOpenBlobRoundTrip(t *testing.T) {
	w := NewDynamicWriter(7, 8)
	schema := newEntrySchema()
	b := NewObjectBuilder(w, schema)
	if err := b.SetBlob(1, []byte("libfoo")); err != nil {
		t.Fatalf("SetBlob: %v", err)
	}
	if err := b.SetInt(2, 2048); err != nil {
		t.Fatalf("SetInt: %v", err)
	}
	v, err := b.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := w.WriteRoot(v); err != nil {
		t.Fatalf("WriteRoot: %v", err)
	}

	out := streamio.NewBufferOutput()
	if err := Serialize(out, w, nil); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	r, err := OpenBlob(out.Bytes(), 7, nil)
	if err != nil {
		t.Fatalf("OpenBlob: %v", err)
	}
	defer r.Close()

	obj := RootObject(r, schema)
	if name, ok := obj.Blob(1); !ok || string(name) != "libfoo" {
		t.Fatalf("field 1 = %q, ok=%v", name, ok)
	}
	if size := obj.Int(2); size != 2048 {
		t.Fatalf("field 2 = %d, want 2048", size)
	}
}

func TestEmptyDatabaseRoundTrip(t *testing.T) {
	w := NewDynamicWriter(1, 4)
	if err := w.WriteRoot(Null); err != nil {
		t.Fatalf("WriteRoot: %v", err)
	}
	out := streamio.NewBufferOutput()
	if err := Serialize(out, w, nil); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	r, err := OpenBlob(out.Bytes(), 1, nil)
	if err != nil {
		t.Fatalf("OpenBlob: %v", err)
	}
	defer r.Close()
	schema := newEntrySchema()
	obj := RootObject(r, schema)
	if obj.Num != 1 || obj.Len() != 0 {
		t.Fatalf("empty db root = %+v, want Num=1 Len=0", obj)
	}
}

func TestDeduplicationAcrossFields(t *testing.T) {
	w := NewDynamicWriter(1, 8)
	a := w.WriteBlob([]byte("shared-value"))
	before := w.Len()
	b := w.WriteBlob([]byte("shared-value"))
	if a != b {
		t.Fatalf("same bytes from two write calls produced different vals")
	}
	if w.Len() != before {
		t.Fatalf("slab grew on a duplicate blob write")
	}
}

func TestSignedContainerRoundTrip(t *testing.T) {
	pub, sk, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	w := NewDynamicWriter(3, 4)
	v := w.WriteBlob([]byte("signed root"))
	if err := w.WriteRoot(v); err != nil {
		t.Fatalf("WriteRoot: %v", err)
	}

	signer := trust.NewContext(nil, nil)
	signer.AddPrivateKey(trust.NewEd25519PrivateKey(sk))
	out := streamio.NewBufferOutput()
	if err := Serialize(out, w, signer); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	verifier := trust.NewContext(nil, nil)
	verifier.AddTrustedKey(trust.NewEd25519PublicKey(pub))
	r, err := OpenBlob(out.Bytes(), 3, verifier)
	if err != nil {
		t.Fatalf("OpenBlob: %v", err)
	}
	defer r.Close()
	if got, ok := ReadBlob(r, Root(r)); !ok || string(got) != "signed root" {
		t.Fatalf("root blob = %q, ok=%v", got, ok)
	}
}

func TestOpenBlobKeyRejectedOnTamperedContent(t *testing.T) {
	pub, sk, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	w := NewDynamicWriter(3, 4)
	v := w.WriteBlob([]byte("original"))
	if err := w.WriteRoot(v); err != nil {
		t.Fatalf("WriteRoot: %v", err)
	}
	signer := trust.NewContext(nil, nil)
	signer.AddPrivateKey(trust.NewEd25519PrivateKey(sk))
	out := streamio.NewBufferOutput()
	if err := Serialize(out, w, signer); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	// Corrupt a byte inside the content block so its digest no longer
	// matches what was signed, while leaving the signature block's key
	// id intact: the verifying key is found but rejects the signature.
	// The content payload starts at offset 12 (file header 8 + block
	// header 4); offset 14 is a byte of the "original" blob.
	raw := append([]byte(nil), out.Bytes()...)
	raw[14] ^= 0xFF

	verifier := trust.NewContext(nil, nil)
	verifier.AddTrustedKey(trust.NewEd25519PublicKey(pub))
	_, err = OpenBlob(raw, 3, verifier)
	if code, ok := Code(err); !ok || code != ErrKeyRejected {
		t.Fatalf("err = %v, want KEY_REJECTED", err)
	}
}

func TestOpenBlobMissingContentBlock(t *testing.T) {
	hdr := FileHeader{Magic: FileMagic, Schema: 1}
	_, err := OpenBlob(hdr.Encode(), 1, nil)
	if code, ok := Code(err); !ok || code != ErrBadMessage {
		t.Fatalf("err = %v, want BAD_MESSAGE", err)
	}
}

func TestCopyValAcrossDatabases(t *testing.T) {
	src := NewDynamicWriter(1, 8)
	schema := newEntrySchema()
	b := NewObjectBuilder(src, schema)
	if err := b.SetBlob(1, []byte("crossdb")); err != nil {
		t.Fatalf("SetBlob: %v", err)
	}
	if err := b.SetInt(2, 99); err != nil {
		t.Fatalf("SetInt: %v", err)
	}
	v, err := b.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	dst := NewDynamicWriter(1, 8)
	copied, err := CopyVal(dst, src, v)
	if err != nil {
		t.Fatalf("CopyVal: %v", err)
	}
	obj := ReadObject(dst, copied, schema)
	if name, ok := obj.Blob(1); !ok || string(name) != "crossdb" {
		t.Fatalf("copied field 1 = %q, ok=%v", name, ok)
	}
	if size := obj.Int(2); size != 99 {
		t.Fatalf("copied field 2 = %d, want 99", size)
	}
}
