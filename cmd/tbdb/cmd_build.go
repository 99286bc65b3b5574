package main

import (
	"crypto/ed25519"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"tbdb.dev/core/adb"
	"tbdb.dev/core/streamio"
	"tbdb.dev/core/trust"
)

func runBuild(args []string, stdout, stderr io.Writer, logger *slog.Logger) int {
	defaults := DefaultConfig()
	fs := flag.NewFlagSet("tbdb build", flag.ContinueOnError)
	fs.SetOutput(stderr)

	in := fs.String("in", "-", "path to a JSON array of {name,version,size} entries, or - for stdin")
	out := fs.String("out", "", "output container path (required)")
	schema := fs.Uint("schema", uint(defaults.SchemaID), "schema id to stamp the container with")
	signKey := fs.String("sign-key", "", "path to a raw 64-byte Ed25519 private key to sign with (optional)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *out == "" {
		_, _ = fmt.Fprintln(stderr, "tbdb build: -out is required")
		return 2
	}

	entries, err := readManifestEntries(*in)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "tbdb build: %v\n", err)
		return 1
	}

	w := adb.NewDynamicWriter(uint32(*schema), 64)
	pkgSchema := newPackageSchema(len(entries))
	arr := adb.NewObjectBuilder(w, pkgSchema)
	entrySchema := pkgSchema.Fields[0].Object
	for _, e := range entries {
		eb := adb.NewObjectBuilder(w, entrySchema)
		if err := eb.SetBlob(fieldName, []byte(e.Name)); err != nil {
			return buildErr(stderr, err)
		}
		if err := eb.SetBlob(fieldVer, []byte(e.Version)); err != nil {
			return buildErr(stderr, err)
		}
		if err := eb.SetInt(fieldSize, e.Size); err != nil {
			return buildErr(stderr, err)
		}
		if err := arr.AppendObject(eb); err != nil {
			return buildErr(stderr, err)
		}
	}
	arr.SortUnique()
	root, err := arr.CommitArray()
	if err != nil {
		return buildErr(stderr, err)
	}
	if err := w.WriteRoot(root); err != nil {
		return buildErr(stderr, err)
	}

	var tc *trust.Context
	if *signKey != "" {
		raw, err := os.ReadFile(*signKey)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "tbdb build: read sign key: %v\n", err)
			return 1
		}
		if len(raw) != ed25519.PrivateKeySize {
			_, _ = fmt.Fprintln(stderr, "tbdb build: sign key must be a raw 64-byte Ed25519 private key")
			return 2
		}
		tc = trust.NewContext(nil, logger)
		tc.AddPrivateKey(trust.NewEd25519PrivateKey(ed25519.PrivateKey(raw)))
	}

	fout, err := streamio.CreateFileOutput(*out)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "tbdb build: create output: %v\n", err)
		return 1
	}
	if err := adb.Serialize(fout, w, tc); err != nil {
		_, _ = fmt.Fprintf(stderr, "tbdb build: %v\n", err)
		return 1
	}
	logger.Info("built container", "path", *out, "entries", len(entries), "signed", tc != nil)
	_, _ = fmt.Fprintf(stdout, "wrote %s (%d entries)\n", *out, len(entries))
	return 0
}

func buildErr(stderr io.Writer, err error) int {
	_, _ = fmt.Fprintf(stderr, "tbdb build: %v\n", err)
	return 1
}

func readManifestEntries(path string) ([]manifestEntry, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var entries []manifestEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return entries, nil
}
