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
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(cause)

	var de *DataError
	require.ErrorAs(t, wrapped, &de)
	assert.Equal(t, KindUnknown, de.Kind)
	assert.ErrorIs(t, wrapped, cause)
}

func TestWrapIsIdempotent(t *testing.T) {
	wrapped := Wrap(errors.New("boom"))
	assert.Same(t, wrapped, Wrap(wrapped))
}

func TestClassifyMySQLNumbers(t *testing.T) {
	cases := []struct {
		number uint16
		kind   Kind
	}{
		{1062, KindDuplicateKey},
		{1048, KindNotNullViolation},
		{1216, KindForeignKeyViolation},
		{1452, KindForeignKeyViolation},
		{3819, KindCheckViolation},
		{1265, KindDataTruncated},
		{1205, KindTimeout},
		{1213, KindConcurrencyConflict},
		{1146, KindNoSuchTable},
		{1054, KindNoSuchColumn},
		{2002, KindConnection},
		{9999, KindUnknown},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("mysql_%d", tc.number), func(t *testing.T) {
			err := Wrap(&mysql.MySQLError{Number: tc.number, Message: "test"})
			var de *DataError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tc.kind, de.Kind)
		})
	}
}

func TestClassifyMessageText(t *testing.T) {
	cases := []struct {
		message string
		kind    Kind
	}{
		{"ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)", KindDuplicateKey},
		{"UNIQUE constraint failed: accounts.email", KindDuplicateKey},
		{"ERROR: null value violates not-null constraint (SQLSTATE 23502)", KindNotNullViolation},
		{"NOT NULL constraint failed: accounts.email", KindNotNullViolation},
		{"ERROR: update violates foreign key constraint (SQLSTATE 23503)", KindForeignKeyViolation},
		{"FOREIGN KEY constraint failed", KindForeignKeyViolation},
		{"ERROR: row violates check constraint (SQLSTATE 23514)", KindCheckViolation},
		{"ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)", KindConcurrencyConflict},
		{"ERROR: deadlock detected (SQLSTATE 40P01)", KindConcurrencyConflict},
		{"database is locked", KindConcurrencyConflict},
		{"ERROR: relation does not exist (SQLSTATE 42P01)", KindNoSuchTable},
		{"no such table: accounts", KindNoSuchTable},
		{"no such column: email", KindNoSuchColumn},
		{"dial tcp 127.0.0.1:5432: connect: connection refused", KindConnection},
		{"ERROR: canceling statement due to statement timeout (SQLSTATE 57014)", KindTimeout},
		{"value too long: string data right truncation (SQLSTATE 22001)", KindDataTruncated},
		{"something else entirely", KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			err := Wrap(errors.New(tc.message))
			var de *DataError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tc.kind, de.Kind)
		})
	}
}

func TestClassifyContextErrors(t *testing.T) {
	var de *DataError
	require.ErrorAs(t, Wrap(context.DeadlineExceeded), &de)
	assert.Equal(t, KindTimeout, de.Kind)
	assert.True(t, IsTimeout(Wrap(context.DeadlineExceeded)))
}

func TestErrorPredicates(t *testing.T) {
	conflict := Wrap(errors.New("deadlock detected"))
	assert.True(t, IsConcurrencyConflict(conflict))
	assert.False(t, IsConstraintViolation(conflict))

	dup := Wrap(errors.New("UNIQUE constraint failed: accounts.email"))
	assert.True(t, IsConstraintViolation(dup))
	assert.False(t, IsConcurrencyConflict(dup))

	assert.False(t, IsConcurrencyConflict(errors.New("bare")))
}
