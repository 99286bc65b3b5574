package main

import (
	"crypto/ed25519"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"tbdb.dev/core/trust"
)

func runKeyring(args []string, stdout, stderr io.Writer, logger *slog.Logger) int {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stderr, "tbdb keyring: expected a subcommand: trust, hold, list")
		return 2
	}
	defaults := DefaultConfig()
	sub, rest := args[0], args[1:]

	fs := flag.NewFlagSet("tbdb keyring "+sub, flag.ContinueOnError)
	fs.SetOutput(stderr)
	dataDir := fs.String("data-dir", defaults.DataDir, "tbdb data directory holding keyring.db")

	switch sub {
	case "trust":
		pubPath := fs.String("pub", "", "path to a raw 32-byte Ed25519 public key (required)")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		if *pubPath == "" {
			_, _ = fmt.Fprintln(stderr, "tbdb keyring trust: -pub is required")
			return 2
		}
		raw, err := os.ReadFile(*pubPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "tbdb keyring trust: %v\n", err)
			return 1
		}
		if len(raw) != ed25519.PublicKeySize {
			_, _ = fmt.Fprintln(stderr, "tbdb keyring trust: key must be a raw 32-byte Ed25519 public key")
			return 2
		}
		id := trust.KeyIDFromPublic(raw)
		k, err := openKeyringAt(*dataDir)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "tbdb keyring trust: %v\n", err)
			return 1
		}
		defer k.Close()
		if err := k.TrustKey(trust.TrustedKeyRecord{ID: id, Algo: "ed25519", Public: raw}); err != nil {
			_, _ = fmt.Fprintf(stderr, "tbdb keyring trust: %v\n", err)
			return 1
		}
		logger.Info("trusted key added", "key_id", fmt.Sprintf("%x", id))
		_, _ = fmt.Fprintf(stdout, "trusted %x\n", id)
		return 0

	case "hold":
		keyPath := fs.String("path", "", "path where the private key material actually lives (required)")
		pubPath := fs.String("pub", "", "path to the matching raw 32-byte Ed25519 public key (required)")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		if *keyPath == "" || *pubPath == "" {
			_, _ = fmt.Fprintln(stderr, "tbdb keyring hold: -path and -pub are required")
			return 2
		}
		raw, err := os.ReadFile(*pubPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "tbdb keyring hold: %v\n", err)
			return 1
		}
		if len(raw) != ed25519.PublicKeySize {
			_, _ = fmt.Fprintln(stderr, "tbdb keyring hold: key must be a raw 32-byte Ed25519 public key")
			return 2
		}
		id := trust.KeyIDFromPublic(raw)
		k, err := openKeyringAt(*dataDir)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "tbdb keyring hold: %v\n", err)
			return 1
		}
		defer k.Close()
		if err := k.HoldKey(trust.HeldKeyRef{ID: id, Algo: "ed25519", Path: *keyPath}); err != nil {
			_, _ = fmt.Fprintf(stderr, "tbdb keyring hold: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(stdout, "held %x -> %s\n", id, *keyPath)
		return 0

	case "list":
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		k, err := openKeyringAt(*dataDir)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "tbdb keyring list: %v\n", err)
			return 1
		}
		defer k.Close()
		trusted, err := k.TrustedKeys()
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "tbdb keyring list: %v\n", err)
			return 1
		}
		held, err := k.HeldKeys()
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "tbdb keyring list: %v\n", err)
			return 1
		}
		for _, t := range trusted {
			_, _ = fmt.Fprintf(stdout, "trusted %x %s\n", t.ID, t.Algo)
		}
		for _, h := range held {
			_, _ = fmt.Fprintf(stdout, "held %x %s %s\n", h.ID, h.Algo, h.Path)
		}
		return 0

	default:
		_, _ = fmt.Fprintf(stderr, "tbdb keyring: unknown subcommand %q\n", sub)
		return 2
	}
}

func openKeyringAt(dataDir string) (*trust.Keyring, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	cfg := Config{DataDir: dataDir}
	return trust.OpenKeyring(cfg.KeyringPath())
}
