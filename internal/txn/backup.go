package txn

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// BackupKeeper creates rollback points for documents and enforces a
// retention cap. The core only requires "create rollback point, then
// enforce cap"; retention counts come from configuration.
type BackupKeeper interface {
	// Create snapshots the document's current content as the freshest
	// backup, rotating older backups. A missing document is a no-op.
	// Reports whether a backup was actually made.
	Create(docPath string) (bool, error)

	// RestoreLatest copies the freshest backup back over the document.
	RestoreLatest(docPath string) error
}

// FileBackupKeeper keeps numbered backups beside the document:
// "<doc>.bak.1" is the newest, "<doc>.bak.N" the oldest.
type FileBackupKeeper struct {
	retention int
}

// NewFileBackupKeeper creates a keeper that retains up to retention
// backups per document. A retention of 0 disables backups.
func NewFileBackupKeeper(retention int) *FileBackupKeeper {
	return &FileBackupKeeper{retention: retention}
}

// Create rotates existing backups up by one slot and copies the document's
// current content to the .bak.1 slot. The document itself is never moved;
// it must remain in place until the caller's swap succeeds.
func (k *FileBackupKeeper) Create(docPath string) (bool, error) {
	if _, err := os.Stat(docPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil // nothing to back up
		}
		return false, fmt.Errorf("stat document: %w", err)
	}

	if k.retention <= 0 {
		os.Remove(backupPath(docPath, 1))
		return false, nil
	}

	// Drop the oldest, then shift the rest up by one.
	os.Remove(backupPath(docPath, k.retention))
	for i := k.retention - 1; i >= 1; i-- {
		oldPath := backupPath(docPath, i)
		if _, err := os.Stat(oldPath); err == nil {
			if err := os.Rename(oldPath, backupPath(docPath, i+1)); err != nil {
				return false, fmt.Errorf("rotate backup %d: %w", i, err)
			}
		}
	}

	if err := copyFile(docPath, backupPath(docPath, 1)); err != nil {
		return false, fmt.Errorf("create backup: %w", err)
	}
	return true, nil
}

// RestoreLatest copies the .bak.1 backup back over the document.
func (k *FileBackupKeeper) RestoreLatest(docPath string) error {
	latest := backupPath(docPath, 1)
	if _, err := os.Stat(latest); err != nil {
		return fmt.Errorf("no backup to restore: %w", err)
	}
	if err := copyFile(latest, docPath); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}
	return nil
}

// List returns the existing backup paths for a document, newest first.
func (k *FileBackupKeeper) List(docPath string) []string {
	dir, base := filepath.Dir(docPath), filepath.Base(docPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	prefix := base + ".bak."
	type numbered struct {
		n    int
		path string
	}
	var found []numbered
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
		if err != nil || n < 1 {
			continue
		}
		found = append(found, numbered{n: n, path: filepath.Join(dir, name)})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	paths := make([]string, len(found))
	for i, f := range found {
		paths[i] = f.path
	}
	return paths
}

// backupPath returns the path for a document's backup slot n.
func backupPath(docPath string, n int) string {
	return fmt.Sprintf("%s.bak.%d", docPath, n)
}

// copyFile copies src to dst, fsyncing dst before returning.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
