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

	"github.com/strata-kit/strata/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Mutation is a staged write executed inside the owning unit of work's
// transaction. It returns the number of rows it affected.
type Mutation func(ctx context.Context, tx bun.IDB) (int64, error)

// ChangeStager collects mutations until they are flushed together in one
// transaction. Implemented by the unit of work.
type ChangeStager interface {
	Stage(m Mutation)
}

// ReadRepository defines immediate read access for a generic entity type.
// Single-item lookups return (nil, nil) when no record matches.
type ReadRepository[T any] interface {
	GetByID(ctx context.Context, id int64) (*T, error)

	GetAll(ctx context.Context) ([]*T, error)

	// Find returns the single entity matching filter, eagerly loading the
	// named relations. It fails with ErrMultipleResults on cardinality > 1.
	Find(ctx context.Context, filter *types.Filter, includes ...string) (*T, error)

	FindAll(ctx context.Context, query *types.Query) ([]*T, error)

	Count(ctx context.Context) (int, error)

	CountWhere(ctx context.Context, filter *types.Filter) (int, error)
}

// WriteRepository defines staged mutations for a generic entity type. None
// of these touch the backing store; they record pending changes that the
// owning unit of work flushes atomically on commit.
type WriteRepository[T any] interface {
	Add(entity *T) *T
	AddRange(entities ...*T) []*T
	Update(entity *T)
	Delete(entity *T)
	DeleteRange(entities ...*T)
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// Repository combines read, staged-write, and pagination operations and
// exposes a Bun select builder for advanced read-only use cases.
type Repository[T any] interface {
	ReadRepository[T]
	WriteRepository[T]
	PageQueryRepository[T]
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
}
