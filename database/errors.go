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

package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Kind classifies a failure surfaced by the backing store.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnection
	KindTimeout
	KindDuplicateKey
	KindNotNullViolation
	KindForeignKeyViolation
	KindCheckViolation
	KindDataTruncated
	KindConcurrencyConflict
	KindNoSuchTable
	KindNoSuchColumn
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindDuplicateKey:
		return "duplicate key"
	case KindNotNullViolation:
		return "not-null violation"
	case KindForeignKeyViolation:
		return "foreign key violation"
	case KindCheckViolation:
		return "check constraint violation"
	case KindDataTruncated:
		return "data truncated"
	case KindConcurrencyConflict:
		return "concurrency conflict"
	case KindNoSuchTable:
		return "no such table"
	case KindNoSuchColumn:
		return "no such column"
	default:
		return "unknown"
	}
}

// DataError wraps any failure from the backing store with a classified kind.
// The underlying driver error stays reachable through Unwrap.
type DataError struct {
	Kind Kind
	Err  error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("database: %s: %v", e.Kind, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

// Wrap classifies err into a DataError. It returns nil for nil and leaves
// already-wrapped errors untouched.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var de *DataError
	if errors.As(err, &de) {
		return err
	}
	return &DataError{Kind: classify(err), Err: err}
}

// IsConcurrencyConflict reports whether err is an optimistic-concurrency
// failure (serialization failure or deadlock) surfaced at commit time.
func IsConcurrencyConflict(err error) bool {
	var de *DataError
	return errors.As(err, &de) && de.Kind == KindConcurrencyConflict
}

// IsConstraintViolation reports whether err is a constraint rejection of any
// flavor (unique, not-null, foreign key, check).
func IsConstraintViolation(err error) bool {
	var de *DataError
	if !errors.As(err, &de) {
		return false
	}
	switch de.Kind {
	case KindDuplicateKey, KindNotNullViolation, KindForeignKeyViolation, KindCheckViolation:
		return true
	}
	return false
}

// IsTimeout reports whether err was classified as a timeout.
func IsTimeout(err error) bool {
	var de *DataError
	return errors.As(err, &de) && de.Kind == KindTimeout
}

func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindConnection
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062:
			return KindDuplicateKey
		case 1048:
			return KindNotNullViolation
		case 1216, 1217, 1451, 1452:
			return KindForeignKeyViolation
		case 3819:
			return KindCheckViolation
		case 1265:
			return KindDataTruncated
		case 1205:
			return KindTimeout
		case 1213:
			return KindConcurrencyConflict
		case 1146:
			return KindNoSuchTable
		case 1054:
			return KindNoSuchColumn
		case 2002, 2003, 2006, 2013:
			return KindConnection
		default:
			return KindUnknown
		}
	}

	// Postgres and SQLite report through SQLSTATE codes or message text.
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "sqlstate 40001"),
		strings.Contains(s, "sqlstate 40p01"),
		strings.Contains(s, "could not serialize access"),
		strings.Contains(s, "deadlock detected"),
		strings.Contains(s, "database is locked"):
		return KindConcurrencyConflict
	case strings.Contains(s, "sqlstate 23505"),
		strings.Contains(s, "duplicate key value"),
		strings.Contains(s, "unique constraint failed"):
		return KindDuplicateKey
	case strings.Contains(s, "sqlstate 23502"),
		strings.Contains(s, "not-null constraint"),
		strings.Contains(s, "not null constraint failed"):
		return KindNotNullViolation
	case strings.Contains(s, "sqlstate 23503"),
		strings.Contains(s, "foreign key violation"),
		strings.Contains(s, "foreign key constraint failed"):
		return KindForeignKeyViolation
	case strings.Contains(s, "sqlstate 23514"),
		strings.Contains(s, "check constraint"):
		return KindCheckViolation
	case strings.Contains(s, "sqlstate 22001"),
		strings.Contains(s, "string data right truncation"),
		strings.Contains(s, "data truncated"):
		return KindDataTruncated
	case strings.Contains(s, "sqlstate 42p01"),
		strings.Contains(s, "undefined table"),
		strings.Contains(s, "no such table"):
		return KindNoSuchTable
	case strings.Contains(s, "sqlstate 42703"),
		strings.Contains(s, "undefined column"),
		strings.Contains(s, "no such column"):
		return KindNoSuchColumn
	case strings.Contains(s, "sqlstate 57014"),
		strings.Contains(s, "statement timeout"),
		strings.Contains(s, "i/o timeout"):
		return KindTimeout
	case strings.Contains(s, "connection refused"),
		strings.Contains(s, "connection reset"),
		strings.Contains(s, "broken pipe"),
		strings.Contains(s, "bad connection"):
		return KindConnection
	}
	return KindUnknown
}
