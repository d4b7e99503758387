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

package strata

import (
	"context"
	"sync"

	"github.com/strata-kit/strata/database"
	"github.com/strata-kit/strata/repository"
	"github.com/strata-kit/strata/types"
	"github.com/strata-kit/strata/unitofwork"

	"github.com/uptrace/bun"
)

// Service is a per-entity convenience facade over a unit of work. Reads
// execute immediately; Add/Update/Delete stage changes that Commit flushes
// in one transaction.
type Service[T any] interface {
	// Get returns a single entity by its identifier, or nil when absent.
	Get(ctx context.Context, id int64) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// Find returns the single entity matching the filter with the named
	// relations eagerly loaded.
	Find(ctx context.Context, filter *types.Filter, includes ...string) (*T, error)

	// FindAll returns entities matching the composed query.
	FindAll(ctx context.Context, query *types.Query) ([]*T, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Count returns the number of committed entities.
	Count(ctx context.Context) (int, error)

	// CountWhere returns the number of committed entities matching the filter.
	CountWhere(ctx context.Context, filter *types.Filter) (int, error)

	// Add stages a new entity for insertion at the next commit.
	Add(model *T) *T

	// AddRange stages several new entities for insertion.
	AddRange(models ...*T) []*T

	// Update stages a full-record replace of an existing entity.
	Update(model *T)

	// Delete stages removal of an entity.
	Delete(model *T)

	// DeleteRange stages removal of several entities.
	DeleteRange(models ...*T)

	// Commit flushes all changes staged on the owning unit of work.
	Commit(ctx context.Context) (int64, error)

	// Close releases the owning unit of work.
	Close() error

	// SelectBuilder returns a Bun select query builder for the entity.
	SelectBuilder() *bun.SelectQuery
}

type baseServiceImpl[T any] struct {
	uow  *unitofwork.UnitOfWork
	repo repository.Repository[T]
	once sync.Once
}

// NewService returns a Service bound to the given unit of work.
func NewService[T any](uow *unitofwork.UnitOfWork) Service[T] {
	return &baseServiceImpl[T]{uow: uow}
}

// NewUnitOfWork creates a unit of work over the global database connection.
func NewUnitOfWork() *unitofwork.UnitOfWork {
	return unitofwork.New(database.GetDB())
}

// NewUnitOfWorkWithConn creates a unit of work owning a dedicated connection
// from the global pool; its Close releases the connection.
func NewUnitOfWorkWithConn(ctx context.Context) (*unitofwork.UnitOfWork, error) {
	return unitofwork.NewWithConn(ctx, database.GetDB())
}

func (s *baseServiceImpl[T]) baseRepo() repository.Repository[T] {
	s.once.Do(func() { s.repo = unitofwork.RepositoryFor[T](s.uow) })
	return s.repo
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id int64) (*T, error) {
	return s.baseRepo().GetByID(ctx, id)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	return s.baseRepo().GetAll(ctx)
}

func (s *baseServiceImpl[T]) Find(ctx context.Context, filter *types.Filter, includes ...string) (*T, error) {
	return s.baseRepo().Find(ctx, filter, includes...)
}

func (s *baseServiceImpl[T]) FindAll(ctx context.Context, query *types.Query) ([]*T, error) {
	return s.baseRepo().FindAll(ctx, query)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.baseRepo().Page(ctx, page)
}

func (s *baseServiceImpl[T]) Count(ctx context.Context) (int, error) {
	return s.baseRepo().Count(ctx)
}

func (s *baseServiceImpl[T]) CountWhere(ctx context.Context, filter *types.Filter) (int, error) {
	return s.baseRepo().CountWhere(ctx, filter)
}

func (s *baseServiceImpl[T]) Add(model *T) *T {
	return s.baseRepo().Add(model)
}

func (s *baseServiceImpl[T]) AddRange(models ...*T) []*T {
	return s.baseRepo().AddRange(models...)
}

func (s *baseServiceImpl[T]) Update(model *T) {
	s.baseRepo().Update(model)
}

func (s *baseServiceImpl[T]) Delete(model *T) {
	s.baseRepo().Delete(model)
}

func (s *baseServiceImpl[T]) DeleteRange(models ...*T) {
	s.baseRepo().DeleteRange(models...)
}

func (s *baseServiceImpl[T]) Commit(ctx context.Context) (int64, error) {
	return s.uow.Commit(ctx)
}

func (s *baseServiceImpl[T]) Close() error {
	return s.uow.Close()
}

func (s *baseServiceImpl[T]) SelectBuilder() *bun.SelectQuery {
	return s.baseRepo().NewSelect()
}
