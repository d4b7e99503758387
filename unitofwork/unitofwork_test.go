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

package unitofwork_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/strata-kit/strata/database"
	"github.com/strata-kit/strata/types"
	"github.com/strata-kit/strata/unitofwork"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type account struct {
	bun.BaseModel `bun:"table:accounts,alias:ac"`

	ID      int64  `bun:"id,pk,autoincrement"`
	Email   string `bun:"email,notnull,unique"`
	Balance int64  `bun:"balance,notnull,default:0"`
}

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:uow_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	sqlDB, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*account)(nil)).Exec(context.Background())
	require.NoError(t, err)
	return db
}

func seedAccounts(t *testing.T, db *bun.DB, emails ...string) {
	t.Helper()
	accounts := make([]*account, 0, len(emails))
	for _, email := range emails {
		accounts = append(accounts, &account{Email: email, Balance: 100})
	}
	_, err := db.NewInsert().Model(&accounts).Exec(context.Background())
	require.NoError(t, err)
}

func TestRepositoryForIsMemoized(t *testing.T) {
	u := unitofwork.New(newTestDB(t))

	first := unitofwork.RepositoryFor[account](u)
	second := unitofwork.RepositoryFor[account](u)
	assert.Same(t, first, second)
}

func TestStagedChangesInvisibleUntilCommit(t *testing.T) {
	db := newTestDB(t)
	u := unitofwork.New(db)
	ctx := context.Background()
	repo := unitofwork.RepositoryFor[account](u)

	repo.Add(&account{Email: "a@example.com"})
	repo.AddRange(&account{Email: "b@example.com"}, &account{Email: "c@example.com"})
	assert.Equal(t, 3, u.Pending())

	// An independent read path sees nothing before the flush.
	reader := unitofwork.RepositoryFor[account](unitofwork.New(db))
	count, err := reader.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	affected, err := u.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.Zero(t, u.Pending())

	count, err = reader.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCommitNetState(t *testing.T) {
	db := newTestDB(t)
	seedAccounts(t, db, "a@example.com", "b@example.com", "c@example.com")

	u := unitofwork.New(db)
	ctx := context.Background()
	repo := unitofwork.RepositoryFor[account](u)

	repo.Add(&account{Email: "d@example.com", Balance: 7})
	repo.Update(&account{ID: 1, Email: "a@example.com", Balance: 250})
	repo.Delete(&account{ID: 3})

	affected, err := u.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	updated, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, int64(250), updated.Balance)

	deleted, err := repo.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, deleted)
}

func TestCommitIsAtomic(t *testing.T) {
	db := newTestDB(t)
	seedAccounts(t, db, "taken@example.com")

	u := unitofwork.New(db)
	ctx := context.Background()
	repo := unitofwork.RepositoryFor[account](u)

	repo.Add(&account{Email: "fresh@example.com"})
	repo.Add(&account{Email: "taken@example.com"}) // unique violation

	_, err := u.Commit(ctx)
	require.Error(t, err)
	assert.True(t, database.IsConstraintViolation(err))
	assert.Equal(t, 2, u.Pending(), "a failed commit keeps the staged set")

	// The earlier staged insert must have been rolled back with the rest.
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	fresh, err := repo.Find(ctx, types.NewFilter("email = ?", "fresh@example.com"))
	require.NoError(t, err)
	assert.Nil(t, fresh)
}

func TestCommitEmptyChangeSet(t *testing.T) {
	u := unitofwork.New(newTestDB(t))

	affected, err := u.Commit(context.Background())
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestCommitDoesNotResendFlushedChanges(t *testing.T) {
	u := unitofwork.New(newTestDB(t))
	ctx := context.Background()
	repo := unitofwork.RepositoryFor[account](u)

	repo.Add(&account{Email: "a@example.com"})
	affected, err := u.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = u.Commit(ctx)
	require.NoError(t, err)
	assert.Zero(t, affected)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCloseIsIdempotent(t *testing.T) {
	u := unitofwork.New(newTestDB(t))

	require.NoError(t, u.Close())
	require.NoError(t, u.Close())

	_, err := u.Commit(context.Background())
	assert.ErrorIs(t, err, unitofwork.ErrClosed)
}

func TestNewWithConnReleasesOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u, err := unitofwork.NewWithConn(ctx, db)
	require.NoError(t, err)

	repo := unitofwork.RepositoryFor[account](u)
	repo.Add(&account{Email: "a@example.com"})
	affected, err := u.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	require.NoError(t, u.Close())
	// The dedicated connection is released exactly once.
	require.NoError(t, u.Close())
}
