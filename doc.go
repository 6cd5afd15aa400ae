// Package indexdb is a persistent, transactional symbol cross-reference
// database: it ingests compiler-produced raw index records and answers
// cross-referencing queries ("find all occurrences of this USR", "which
// files depend on this header", "list root units that transitively depend
// on this file") used by code-navigation tooling.
//
// Open returns a DB wrapping a single-writer/many-reader key-value
// environment, a zero-copy mmap arena for unit records, and a version/
// fault-recovery guard. Reads (Read) are snapshot-isolated; writes
// (Write) go through import transactions, and Open does not stop two of
// them from being open at the same time.
package indexdb
