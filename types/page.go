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

// PageRequest describes page-number oriented pagination with an optional
// filter and ordering. It lowers onto a Query before execution.
type PageRequest struct {
	page      int
	pageSize  int
	filter    *Filter
	orderCol  string
	direction Direction
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = 10
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		p.page = 1
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetFilter() *Filter {
	return p.filter
}

// ToQuery lowers the page request into the skip/take query form.
func (p *PageRequest) ToQuery() *Query {
	q := NewQuery(p.filter).Paginate(p.GetOffset(), p.GetPageSize())
	if p.orderCol != "" {
		q.Order(p.orderCol, p.direction)
	}
	return q
}

// NewPageRequest constructs a PageRequest with filter and order settings.
func NewPageRequest(page, pageSize int, filter *Filter, orderCol string, direction Direction) *PageRequest {
	return &PageRequest{page, pageSize, filter, orderCol, direction}
}

// NewPageRequestWithFilter constructs a PageRequest with a filter only.
func NewPageRequestWithFilter(page, pageSize int, filter *Filter) *PageRequest {
	return NewPageRequest(page, pageSize, filter, "", Ascending)
}

// NewDefaultPageRequest constructs a PageRequest with no filter or ordering.
func NewDefaultPageRequest(page, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, "", Ascending)
}

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Page     int
	PageSize int
	Total    int
	Items    []*T
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page, pageSize int) *Pagination[T] {
	return &Pagination[T]{page, pageSize, 0, make([]*T, 0)}
}
