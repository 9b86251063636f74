// Package txn implements the atomic file transaction layer: exclusive
// advisory locking with bounded wait, stage-validate-swap writes, and
// numbered backup rotation.
//
// Every mutation of a shared document goes through this package. A write
// either fully replaces the target file or leaves it untouched; the
// previous content is always recoverable from the freshest backup.
//
// Lock ordering: operations that need both documents must lock the
// session registry first and the task store second, and release in
// reverse order. Locks on distinct files are otherwise independent.
package txn
