package symtypes

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ksymtools/ksymtools/internal/intern"
	"github.com/ksymtools/ksymtools/internal/kerrors"
	"github.com/ksymtools/ksymtools/internal/output"
	"github.com/ksymtools/ksymtools/internal/pool"
)

// Split regenerates per-file symtypes files from a corpus: one base-format
// file per F# record at <outDir>/<path>. File emission runs in parallel;
// each output file is owned by exactly one task.
func Split(c *Corpus, outDir string, jobs int) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	err := pool.Run(jobs, len(c.paths), func(i int) error {
		fr := c.files[c.paths[i]]
		return c.splitFile(fr, outDir)
	})
	if err != nil {
		return err
	}

	output.Debug("split corpus", "dir", outDir, "files", len(c.paths))
	return nil
}

// splitFile writes one base-format file: every type transitively reachable
// from the file's exports in first-reference order, then the exports.
func (c *Corpus) splitFile(fr *FileRecord, outDir string) error {
	rel := filepath.FromSlash(c.Strings.Resolve(fr.Path))
	path := filepath.Join(outDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return kerrors.PathError(kerrors.ErrOutput, path, err.Error())
	}
	defer f.Close()

	bw := bufio.NewWriter(f)

	err = c.fileClosure(fr, func(ns Namespace, name intern.Handle, idx int, v *variant) error {
		ident := ns.Prefix() + quoteName(c.Strings.Resolve(name))
		return writeRecord(bw, c.Strings, ident, v.tokens)
	})
	if err != nil {
		return err
	}

	for _, name := range fr.Exports {
		entry := c.table.lookup(NSExport, name)
		ident := quoteName(c.Strings.Resolve(name))
		if err := writeRecord(bw, c.Strings, ident, entry.variants[0].tokens); err != nil {
			return err
		}
	}

	if err := bw.Flush(); err != nil {
		return kerrors.PathError(kerrors.ErrOutput, path, err.Error())
	}
	return f.Close()
}
