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

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/strata-kit/strata/database"
	"github.com/strata-kit/strata/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db     bun.IDB
	stager ChangeStager
}

// NewRepository returns a generic repository reading through db and staging
// writes on stager. Both usually belong to the same unit of work.
func NewRepository[T any](db bun.IDB, stager ChangeStager) Repository[T] {
	return &baseRepositoryImpl[T]{db: db, stager: stager}
}

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	var entity T
	err := r.db.NewSelect().Model(&entity).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Wrap(err)
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) GetAll(ctx context.Context) ([]*T, error) {
	var entities []*T
	if err := r.db.NewSelect().Model(&entities).Scan(ctx); err != nil {
		return nil, database.Wrap(err)
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, filter *types.Filter, includes ...string) (*T, error) {
	var entities []*T
	sel := r.db.NewSelect().Model(&entities)
	if filter != nil {
		sel = sel.Where(filter.Schema, filter.Args...)
	}
	for _, relation := range includes {
		sel = sel.Relation(relation)
	}
	// Two rows are enough to prove the match is not unique.
	if err := sel.Limit(2).Scan(ctx); err != nil {
		return nil, database.Wrap(err)
	}
	switch len(entities) {
	case 0:
		return nil, nil
	case 1:
		return entities[0], nil
	default:
		return nil, ErrMultipleResults
	}
}

func (r *baseRepositoryImpl[T]) FindAll(ctx context.Context, query *types.Query) ([]*T, error) {
	// The dialect layer drops LIMIT 0, so an explicit zero take answers here.
	if query != nil && query.HasTake() && query.Take == 0 {
		return []*T{}, nil
	}
	var entities []*T
	sel := r.applyQuery(r.db.NewSelect().Model(&entities), query)
	if err := sel.Scan(ctx); err != nil {
		return nil, database.Wrap(err)
	}
	return entities, nil
}

// applyQuery composes filter, includes, ordering, and skip/take onto sel.
// Ordering always precedes pagination; paginated queries without an explicit
// order fall back to the primary key so page boundaries stay deterministic.
func (r *baseRepositoryImpl[T]) applyQuery(sel *bun.SelectQuery, query *types.Query) *bun.SelectQuery {
	if query == nil {
		return sel
	}
	if query.Filter != nil {
		sel = sel.Where(query.Filter.Schema, query.Filter.Args...)
	}
	for _, relation := range query.Includes {
		sel = sel.Relation(relation)
	}
	if expr := query.OrderExpr(); expr != "" {
		sel = sel.Order(expr)
	} else if query.Paginated() {
		sel = sel.Order("id ASC")
	}
	if query.HasSkip() {
		sel = sel.Offset(query.Skip)
	}
	if query.HasTake() {
		sel = sel.Limit(query.Take)
	}
	return sel
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context) (int, error) {
	return r.CountWhere(ctx, nil)
}

func (r *baseRepositoryImpl[T]) CountWhere(ctx context.Context, filter *types.Filter) (int, error) {
	sel := r.db.NewSelect().Model((*T)(nil))
	if filter != nil {
		sel = sel.Where(filter.Schema, filter.Args...)
	}
	total, err := sel.Count(ctx)
	if err != nil {
		return 0, database.Wrap(err)
	}
	return total, nil
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	pagination := types.NewDefaultPagination[T](page.GetPage(), page.GetPageSize())
	total, err := r.CountWhere(ctx, page.GetFilter())
	if err != nil || total == 0 {
		return pagination, err
	}
	items, err := r.FindAll(ctx, page.ToQuery())
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = items
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) Add(entity *T) *T {
	r.stager.Stage(func(ctx context.Context, tx bun.IDB) (int64, error) {
		res, err := tx.NewInsert().Model(entity).Exec(ctx)
		return rowsAffected(res, err)
	})
	return entity
}

func (r *baseRepositoryImpl[T]) AddRange(entities ...*T) []*T {
	staged := make([]*T, len(entities))
	copy(staged, entities)
	r.stager.Stage(func(ctx context.Context, tx bun.IDB) (int64, error) {
		if len(staged) == 0 {
			return 0, nil
		}
		res, err := tx.NewInsert().Model(&staged).Exec(ctx)
		return rowsAffected(res, err)
	})
	return entities
}

func (r *baseRepositoryImpl[T]) Update(entity *T) {
	// Full-record replace: every column is written, keyed by the primary key.
	r.stager.Stage(func(ctx context.Context, tx bun.IDB) (int64, error) {
		res, err := tx.NewUpdate().Model(entity).WherePK().Exec(ctx)
		return rowsAffected(res, err)
	})
}

func (r *baseRepositoryImpl[T]) Delete(entity *T) {
	r.stager.Stage(func(ctx context.Context, tx bun.IDB) (int64, error) {
		res, err := tx.NewDelete().Model(entity).WherePK().Exec(ctx)
		return rowsAffected(res, err)
	})
}

func (r *baseRepositoryImpl[T]) DeleteRange(entities ...*T) {
	staged := make([]*T, len(entities))
	copy(staged, entities)
	r.stager.Stage(func(ctx context.Context, tx bun.IDB) (int64, error) {
		if len(staged) == 0 {
			return 0, nil
		}
		res, err := tx.NewDelete().Model(&staged).WherePK().Exec(ctx)
		return rowsAffected(res, err)
	})
}

func rowsAffected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		// Drivers without RowsAffected support still executed the statement.
		return 0, nil
	}
	return n, nil
}
