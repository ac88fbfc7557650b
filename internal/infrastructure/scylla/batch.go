package scylla

import "github.com/gocql/gocql"

type batchEntry struct {
	stmt string
	args []interface{}
}

// Batch accumulates bound statements caller-side. It is a plain value with
// no driver state, so services can assemble one per call without locking and
// hand it to the gateway for execution.
type Batch struct {
	kind    gocql.BatchType
	serial  gocql.SerialConsistency
	entries []batchEntry
}

// NewLoggedBatch returns a batch whose statements the coordinator applies
// all-or-nothing, even across partitions.
func NewLoggedBatch() *Batch {
	return &Batch{kind: gocql.LoggedBatch}
}

// NewUnloggedBatch returns a batch with no atomicity guarantee across
// partitions.
func NewUnloggedBatch() *Batch {
	return &Batch{kind: gocql.UnloggedBatch}
}

// SetSerialConsistency sets the consistency level at which LWT conditions in
// the batch resolve.
func (b *Batch) SetSerialConsistency(sc gocql.SerialConsistency) {
	b.serial = sc
}

// Add appends a bound statement. Statements execute in append order.
func (b *Batch) Add(stmt string, args ...interface{}) {
	b.entries = append(b.entries, batchEntry{stmt: stmt, args: args})
}

// Kind reports whether the batch is logged or unlogged.
func (b *Batch) Kind() gocql.BatchType { return b.kind }

// SerialConsistency returns the configured serial consistency, zero when
// unset.
func (b *Batch) SerialConsistency() gocql.SerialConsistency { return b.serial }

// Len is the number of statements in the batch.
func (b *Batch) Len() int { return len(b.entries) }

// Statements returns the CQL text of each entry in order.
func (b *Batch) Statements() []string {
	stmts := make([]string, len(b.entries))
	for i, e := range b.entries {
		stmts[i] = e.stmt
	}
	return stmts
}
