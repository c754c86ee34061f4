package util

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
)

// PartialSuffix marks a download that has not been renamed into place yet.
const PartialSuffix = ".part"

// InterruptContext returns a context cancelled on SIGINT/SIGTERM. A second
// signal exits immediately.
func InterruptContext(parent context.Context, out io.Writer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sig:
			fmt.Fprintln(out, "\nInterrupt received. Finishing current step...")
			cancel()
		case <-ctx.Done():
			signal.Stop(sig)
			return
		}

		select {
		case <-sig:
			fmt.Fprintln(out, "\nExiting due to interrupt.")
			os.Exit(130)
		case <-ctx.Done():
		}
		signal.Stop(sig)
	}()

	return ctx, cancel
}

// RemovePartials deletes leftover *.part files under root and returns how many
// were removed.
func RemovePartials(root string) int {
	removed := 0

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), PartialSuffix) {
			return nil
		}
		if os.Remove(path) == nil {
			removed++
		}
		return nil
	})

	return removed
}

// RemoveIfEmpty removes dir when it has no entries left.
func RemoveIfEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return false
	}

	return os.Remove(dir) == nil
}
