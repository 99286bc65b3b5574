// Command tbdb builds, inspects, and signs TBDB containers. It is a
// demonstration driver over the adb/trust packages, not a full package
// manager front end.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	cmd, rest := args[0], args[1:]
	logger := newLogger(stderr, "info")

	switch cmd {
	case "build":
		return runBuild(rest, stdout, stderr, logger)
	case "inspect":
		return runInspect(rest, stdout, stderr, logger)
	case "sign":
		return runSign(rest, stdout, stderr, logger)
	case "keyring":
		return runKeyring(rest, stdout, stderr, logger)
	case "-h", "--help", "help":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "tbdb: unknown command %q\n", cmd)
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: tbdb <command> [flags]")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  build    build a manifest container from a JSON entry list")
	_, _ = fmt.Fprintln(w, "  inspect  print a container's blocks and, if readable, its entries")
	_, _ = fmt.Fprintln(w, "  sign     add a signature block to an existing container")
	_, _ = fmt.Fprintln(w, "  keyring  manage the trusted/held keys in the local keyring")
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
