package main

import (
	"crypto/ed25519"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"tbdb.dev/core/adb"
	"tbdb.dev/core/streamio"
	"tbdb.dev/core/trust"
)

// runSign adds one more signature block to an existing container,
// preserving every block already present. It rebuilds the file rather
// than appending in place, since a trailing DATA block (if any) still
// needs to end up after the signature: block order is always ADB, then
// zero or more SIG, then zero or more DATA.
func runSign(args []string, stdout, stderr io.Writer, logger *slog.Logger) int {
	fs := flag.NewFlagSet("tbdb sign", flag.ContinueOnError)
	fs.SetOutput(stderr)

	in := fs.String("in", "", "container path to sign (required)")
	out := fs.String("out", "", "output path (defaults to -in, signing in place)")
	keyPath := fs.String("key", "", "path to a raw 64-byte Ed25519 private key (required)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *in == "" || *keyPath == "" {
		_, _ = fmt.Fprintln(stderr, "tbdb sign: -in and -key are required")
		return 2
	}
	if *out == "" {
		*out = *in
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "tbdb sign: %v\n", err)
		return 1
	}
	hdrBytes := append([]byte(nil), data[:8]...)
	if _, err := adb.DecodeFileHeader(hdrBytes); err != nil {
		_, _ = fmt.Fprintf(stderr, "tbdb sign: %v\n", err)
		return 1
	}

	var blocks []adb.Block
	var content []byte
	if err := adb.IterateBlocks(data[8:], func(b adb.Block) error {
		cp := append([]byte(nil), b.Payload...)
		blocks = append(blocks, adb.Block{Type: b.Type, Payload: cp})
		if b.Type == adb.BlockADB && content == nil {
			content = cp
		}
		return nil
	}); err != nil {
		_, _ = fmt.Fprintf(stderr, "tbdb sign: %v\n", err)
		return 1
	}
	if content == nil {
		_, _ = fmt.Fprintln(stderr, "tbdb sign: container has no content block")
		return 1
	}

	raw, err := os.ReadFile(*keyPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "tbdb sign: read key: %v\n", err)
		return 1
	}
	if len(raw) != ed25519.PrivateKeySize {
		_, _ = fmt.Fprintln(stderr, "tbdb sign: key must be a raw 64-byte Ed25519 private key")
		return 2
	}
	tc := trust.NewContext(nil, logger)
	tc.AddPrivateKey(trust.NewEd25519PrivateKey(ed25519.PrivateKey(raw)))
	sigs, err := tc.Sign(hdrBytes, content)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "tbdb sign: %v\n", err)
		return 1
	}

	fout, err := streamio.CreateFileOutput(*out)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "tbdb sign: create output: %v\n", err)
		return 1
	}
	if _, err := fout.Write(hdrBytes); err != nil {
		fout.Cancel(err)
		_, _ = fmt.Fprintf(stderr, "tbdb sign: %v\n", err)
		return 1
	}
	for _, b := range blocks {
		if b.Type == adb.BlockData {
			continue
		}
		if err := adb.WriteBlock(fout, b.Type, b.Payload); err != nil {
			fout.Cancel(err)
			_, _ = fmt.Fprintf(stderr, "tbdb sign: %v\n", err)
			return 1
		}
	}
	for _, sig := range sigs {
		if err := adb.WriteBlock(fout, adb.BlockSIG, sig); err != nil {
			fout.Cancel(err)
			_, _ = fmt.Fprintf(stderr, "tbdb sign: %v\n", err)
			return 1
		}
	}
	for _, b := range blocks {
		if b.Type != adb.BlockData {
			continue
		}
		if err := adb.WriteBlock(fout, b.Type, b.Payload); err != nil {
			fout.Cancel(err)
			_, _ = fmt.Fprintf(stderr, "tbdb sign: %v\n", err)
			return 1
		}
	}
	if err := fout.Close(); err != nil {
		_, _ = fmt.Fprintf(stderr, "tbdb sign: %v\n", err)
		return 1
	}
	logger.Info("signed container", "path", *out, "new_signatures", len(sigs))
	_, _ = fmt.Fprintf(stdout, "signed %s (%d new signature block(s))\n", *out, len(sigs))
	return 0
}
