package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"tbdb.dev/core/adb"
	"tbdb.dev/core/trust"
)

func runInspect(args []string, stdout, stderr io.Writer, logger *slog.Logger) int {
	defaults := DefaultConfig()
	fs := flag.NewFlagSet("tbdb inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)

	path := fs.String("file", "", "container path (required)")
	schema := fs.Uint("schema", uint(defaults.SchemaID), "expected schema id (0 to skip the check)")
	trustDir := fs.String("trust-dir", "", "directory of raw Ed25519 public keys to verify against")
	blocksOnly := fs.Bool("blocks", false, "print only the block layout, not decoded entries")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *path == "" {
		_, _ = fmt.Fprintln(stderr, "tbdb inspect: -file is required")
		return 2
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "tbdb inspect: %v\n", err)
		return 1
	}

	if err := printBlockLayout(stdout, data); err != nil {
		_, _ = fmt.Fprintf(stderr, "tbdb inspect: %v\n", err)
		return 1
	}
	if *blocksOnly {
		return 0
	}

	var tc *trust.Context
	if *trustDir != "" {
		tc = trust.NewContext(nil, logger)
		if err := trust.LoadTrustedKeysFromDir(tc, *trustDir); err != nil {
			_, _ = fmt.Fprintf(stderr, "tbdb inspect: load trust dir: %v\n", err)
			return 1
		}
	}

	r, err := adb.OpenBlob(data, uint32(*schema), tc)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "tbdb inspect: open: %v\n", err)
		return 1
	}
	defer r.Close()

	pkgSchema := newPackageSchema(0)
	arr := adb.RootObject(r, pkgSchema)
	out := make([]manifestEntry, 0, arr.Len())
	for i := 1; i <= arr.Len(); i++ {
		e := arr.Object(i)
		name, _ := e.Blob(fieldName)
		ver, _ := e.Blob(fieldVer)
		out = append(out, manifestEntry{Name: string(name), Version: string(ver), Size: e.Int(fieldSize)})
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return encodeOrFail(enc, out, stderr)
}

func encodeOrFail(enc *json.Encoder, v any, stderr io.Writer) int {
	if err := enc.Encode(v); err != nil {
		_, _ = fmt.Fprintf(stderr, "tbdb inspect: encode: %v\n", err)
		return 1
	}
	return 0
}

func printBlockLayout(w io.Writer, data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("file too small for a header")
	}
	hdr, err := adb.DecodeFileHeader(data[:8])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "header: schema=%d\n", hdr.Schema)
	n := 0
	err = adb.IterateBlocks(data[8:], func(b adb.Block) error {
		_, _ = fmt.Fprintf(w, "block %d: type=%s length=%d\n", n, blockTypeName(b.Type), len(b.Payload))
		n++
		return nil
	})
	return err
}

func blockTypeName(t adb.BlockType) string {
	switch t {
	case adb.BlockADB:
		return "ADB"
	case adb.BlockSIG:
		return "SIG"
	case adb.BlockData:
		return "DATA"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", t)
	}
}
