/*
 * Copyright 2026 the strata authors.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package unitofwork coordinates repositories sharing one data context:
// writes staged through any of its repositories are flushed together in a
// single transaction by Commit. A unit of work is scoped to one logical
// request/transaction and is not safe for concurrent use.
package unitofwork

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"sync"

	"github.com/strata-kit/strata/database"
	"github.com/strata-kit/strata/repository"

	"github.com/uptrace/bun"
)

// ErrClosed is returned by Commit after the unit of work has been closed.
var ErrClosed = errors.New("unitofwork: unit of work is closed")

// UnitOfWork owns one data context, hands out memoized per-type
// repositories, and flushes every staged change in one transaction.
type UnitOfWork struct {
	db        bun.IDB
	logger    database.Logger
	repos     map[reflect.Type]interface{}
	pending   []repository.Mutation
	closed    bool
	closeOnce sync.Once
	release   func() error
}

// New returns a unit of work reading and committing through db. The pooled
// connection is shared, so Close releases nothing beyond marking the unit
// of work unusable.
func New(db bun.IDB) *UnitOfWork {
	return &UnitOfWork{
		db:     db,
		logger: database.GetLogger(),
		repos:  make(map[reflect.Type]interface{}),
	}
}

// NewWithConn returns a unit of work owning a dedicated connection checked
// out of db's pool. Close returns the connection exactly once.
func NewWithConn(ctx context.Context, db *bun.DB) (*UnitOfWork, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, database.Wrap(err)
	}
	u := New(conn)
	u.release = conn.Close
	return u, nil
}

// RepositoryFor returns the repository for entity type T, constructing it on
// first access. Repeated calls on the same unit of work return the identical
// instance.
func RepositoryFor[T any](u *UnitOfWork) repository.Repository[T] {
	key := reflect.TypeOf((*T)(nil)).Elem()
	if cached, ok := u.repos[key]; ok {
		return cached.(repository.Repository[T])
	}
	repo := repository.NewRepository[T](u.db, u)
	u.repos[key] = repo
	return repo
}

// Stage appends a mutation to the pending change set. Repositories call this
// for every Add/Update/Delete; nothing reaches the store until Commit.
func (u *UnitOfWork) Stage(m repository.Mutation) {
	u.pending = append(u.pending, m)
}

// Pending reports the number of staged, not yet flushed mutations.
func (u *UnitOfWork) Pending() int {
	return len(u.pending)
}

// Commit flushes every staged mutation in staging order inside one
// transaction and returns the total number of affected records. On failure
// the transaction is rolled back, no partial subset is applied, and the
// staged set is retained. An empty change set commits trivially; already
// flushed changes are never re-sent.
func (u *UnitOfWork) Commit(ctx context.Context) (int64, error) {
	if u.closed {
		return 0, ErrClosed
	}
	if len(u.pending) == 0 {
		return 0, nil
	}

	var affected int64
	err := u.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, m := range u.pending {
			n, err := m(ctx, tx)
			if err != nil {
				return err
			}
			affected += n
		}
		return nil
	})
	if err != nil {
		if u.logger != nil {
			u.logger.Warn("Unit of work commit failed", "staged", len(u.pending), "error", err)
		}
		return 0, database.Wrap(err)
	}

	if u.logger != nil {
		u.logger.Debug("Unit of work committed", "mutations", len(u.pending), "affected", affected)
	}
	u.pending = u.pending[:0]
	return affected, nil
}

// Close releases the owned connection exactly once. It is safe to call
// repeatedly, with zero repositories requested, and regardless of whether a
// prior Commit succeeded, failed, or never happened.
func (u *UnitOfWork) Close() error {
	var err error
	u.closeOnce.Do(func() {
		u.closed = true
		if u.release != nil {
			err = u.release()
		}
	})
	return err
}
