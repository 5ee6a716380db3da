// kvshelf-repair rebuilds a store file, dropping any record whose chain
// does not terminate cleanly, and replaces the original atomically.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/natefinch/atomic"

	"github.com/kvshelf/kvshelf/internal/filestore"
	"github.com/kvshelf/kvshelf/internal/storagefs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	flagSet := flag.NewFlagSet("kvshelf-repair", flag.ContinueOnError)
	flagSet.SetOutput(errOut)

	dryRun := flagSet.Bool("dry-run", false, "report what would be dropped without writing")
	indexSize := flagSet.Uint32("index-size", 0, "index size for the rebuilt file (default: same as original)")

	flagSet.Usage = func() {
		fmt.Fprintln(errOut, "Usage: kvshelf-repair [--dry-run] [--index-size N] <path>")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return 1
	}

	if flagSet.NArg() != 1 {
		flagSet.Usage()

		return 1
	}

	path := flagSet.Arg(0)

	if err := repair(path, *indexSize, *dryRun, out); err != nil {
		fmt.Fprintln(errOut, "error:", err)

		return 1
	}

	return 0
}

func repair(path string, indexSize uint32, dryRun bool, out io.Writer) error {
	fsys := storagefs.NewReal()

	store, err := filestore.Open(fsys, path, filestore.Options{})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	entries, dumpErr := store.Dump()

	closeErr := store.Close()
	if dumpErr != nil {
		return fmt.Errorf("scan %s: %w", path, dumpErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}

	if indexSize == 0 {
		indexSize, err = originalIndexSize(fsys, path)
		if err != nil {
			return err
		}
	}

	live := 0
	dropped := 0

	for _, e := range entries {
		if e.Err != nil {
			dropped++

			fmt.Fprintf(out, "dropping unreadable record: %v\n", e.Err)

			continue
		}

		live++
	}

	fmt.Fprintf(out, "%d live keys, %d dropped\n", live, dropped)

	if dryRun {
		return nil
	}

	data, err := rebuild(fsys, path, indexSize, entries)
	if err != nil {
		return err
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	return nil
}

// originalIndexSize opens path just to read its index size, then closes
// it; used when the caller didn't pin one explicitly.
func originalIndexSize(fsys storagefs.FS, path string) (uint32, error) {
	store, err := filestore.Open(fsys, path, filestore.Options{})
	if err != nil {
		return 0, fmt.Errorf("reopen %s: %w", path, err)
	}

	defer store.Close()

	return store.IndexSize(), nil
}

// rebuild writes every live entry into a fresh file alongside path, reads
// it back whole, and removes the scratch file.
func rebuild(fsys storagefs.FS, path string, indexSize uint32, entries []filestore.DumpEntry) ([]byte, error) {
	tmpPath := filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.repair-tmp", filepath.Base(path)))

	_ = os.Remove(tmpPath)

	store, err := filestore.Open(fsys, tmpPath, filestore.Options{IndexSize: indexSize, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}

	for _, e := range entries {
		if e.Err != nil {
			continue
		}

		if writeErr := writeEntry(store, e); writeErr != nil {
			_ = store.Close()
			_ = os.Remove(tmpPath)

			return nil, fmt.Errorf("rewrite key %q: %w", e.Key, writeErr)
		}
	}

	if err := store.Close(); err != nil {
		_ = os.Remove(tmpPath)

		return nil, fmt.Errorf("close scratch file: %w", err)
	}

	data, err := os.ReadFile(tmpPath) //nolint:gosec // path is derived from the repair target, not user input
	_ = os.Remove(tmpPath)

	if err != nil {
		return nil, fmt.Errorf("read scratch file: %w", err)
	}

	return data, nil
}

func writeEntry(store *filestore.Store, e filestore.DumpEntry) error {
	if !e.IsList {
		return store.Put(e.Key, e.Value)
	}

	for _, v := range e.ListValues {
		if err := store.Append(e.Key, v); err != nil {
			return err
		}
	}

	return nil
}
