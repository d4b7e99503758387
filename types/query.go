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

package types

import "fmt"

// Filter describes a WHERE clause fragment and its argument values.
type Filter struct {
	Schema string
	Args   []interface{}
}

// NewFilter creates a new filter with a clause schema and bind args.
func NewFilter(schema string, args ...interface{}) *Filter {
	return &Filter{Schema: schema, Args: args}
}

// Direction selects the sort order applied by a Query.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// Query composes an optional filter, eager-loaded relations, ordering, and
// skip/take pagination for a repository read. Negative Skip/Take mean unset;
// ordering is always applied before pagination.
type Query struct {
	Filter    *Filter
	Includes  []string
	OrderCol  string
	Direction Direction
	Skip      int
	Take      int
}

// NewQuery creates a query with an optional filter and no pagination.
func NewQuery(filter *Filter) *Query {
	return &Query{Filter: filter, Skip: -1, Take: -1}
}

// Include adds relation names to eager-load with the results.
func (q *Query) Include(relations ...string) *Query {
	q.Includes = append(q.Includes, relations...)
	return q
}

// Order sets the sort column and direction.
func (q *Query) Order(column string, direction Direction) *Query {
	q.OrderCol = column
	q.Direction = direction
	return q
}

// Paginate sets skip/take. Negative values leave the bound unset.
func (q *Query) Paginate(skip, take int) *Query {
	q.Skip = skip
	q.Take = take
	return q
}

// HasSkip reports whether an OFFSET should be emitted.
func (q *Query) HasSkip() bool { return q.Skip >= 0 }

// HasTake reports whether a LIMIT should be emitted.
func (q *Query) HasTake() bool { return q.Take >= 0 }

// Paginated reports whether either pagination bound is set.
func (q *Query) Paginated() bool { return q.HasSkip() || q.HasTake() }

// OrderExpr returns the ORDER BY expression, or "" when no order is set.
func (q *Query) OrderExpr() string {
	if q.OrderCol == "" {
		return ""
	}
	return fmt.Sprintf("%s %s", q.OrderCol, q.Direction)
}
