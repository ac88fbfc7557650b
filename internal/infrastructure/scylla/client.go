// Package scylla is the datastore gateway: it owns the long-lived session
// against the wide-column store and exposes prepared-statement execution and
// batch execution to the repositories built on top of it.
package scylla

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

var (
	// ErrConnectFailed means no node in the contact list was reachable.
	ErrConnectFailed = errors.New("scylla: connect failed")
	// ErrKeyspaceUnavailable means the working keyspace could not be
	// created or selected.
	ErrKeyspaceUnavailable = errors.New("scylla: keyspace unavailable")
)

// LocalSerial is re-exported so callers choosing a serial consistency for
// their batches do not need to import the driver.
const LocalSerial = gocql.LocalSerial

// Session wraps a gocql session. It is constructed once per process, is
// freely shareable, and holds no per-request state. Statements executed
// through it are prepared by the driver on first use and cached for the
// session lifetime.
type Session struct {
	db *gocql.Session
}

func newCluster(nodes []string, keyspace string) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(nodes...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second
	return cluster
}

// Connect establishes a session against the given nodes with the working
// keyspace selected, creating the keyspace first if it does not exist.
func Connect(nodes []string, keyspace string) (*Session, error) {
	sys, err := newCluster(nodes, "").CreateSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	err = sys.Query(fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS %s WITH REPLICATION = {'class': 'NetworkTopologyStrategy', 'replication_factor': 3}`,
		keyspace,
	)).Exec()
	sys.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: create keyspace %s: %v", ErrKeyspaceUnavailable, keyspace, err)
	}

	db, err := newCluster(nodes, keyspace).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("%w: select keyspace %s: %v", ErrKeyspaceUnavailable, keyspace, err)
	}
	return &Session{db: db}, nil
}

// Query binds args to stmt and attaches ctx. The returned query is ready to
// Exec, Scan, or Iter.
func (s *Session) Query(ctx context.Context, stmt string, args ...interface{}) *gocql.Query {
	return s.db.Query(stmt, args...).WithContext(ctx)
}

// ExecuteBatch runs a batch without conditions.
func (s *Session) ExecuteBatch(ctx context.Context, b *Batch) error {
	return s.db.ExecuteBatch(s.toDriverBatch(ctx, b))
}

// ExecuteBatchCAS runs a batch whose statements carry LWT conditions and
// reports whether the conditions held. With a logged batch the store applies
// all statements or none once the conditions resolve.
func (s *Session) ExecuteBatchCAS(ctx context.Context, b *Batch) (bool, error) {
	applied, iter, err := s.db.MapExecuteBatchCAS(s.toDriverBatch(ctx, b), map[string]interface{}{})
	if err != nil {
		return false, err
	}
	if err := iter.Close(); err != nil {
		return false, err
	}
	return applied, nil
}

func (s *Session) toDriverBatch(ctx context.Context, b *Batch) *gocql.Batch {
	gb := s.db.NewBatch(b.kind).WithContext(ctx)
	if b.serial != 0 {
		gb.SerialConsistency(b.serial)
	}
	for _, e := range b.entries {
		gb.Query(e.stmt, e.args...)
	}
	return gb
}

// Close tears down the session.
func (s *Session) Close() {
	s.db.Close()
}
