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

package tests

import (
	"context"
	"testing"
	"time"

	"github.com/strata-kit/strata"
	"github.com/strata-kit/strata/database"
	"github.com/strata-kit/strata/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type SystemConfig struct {
	bun.BaseModel `bun:"table:system_config,alias:sc"`

	ID          int64     `bun:"id,type:bigint,pk,autoincrement" json:"id"`
	ConfigKey   string    `bun:"config_key,notnull,unique" json:"config_key"`
	ConfigValue string    `bun:"config_value" json:"config_value"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

func initTestDatabase(t *testing.T) {
	t.Helper()
	cfg := &database.Config{
		Connection: database.ConnectionConfig{
			Type:   "sqlite",
			DBName: ":memory:",
		},
	}
	db, err := database.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })

	_, err = db.NewCreateTable().Model((*SystemConfig)(nil)).IfNotExists().Exec(context.Background())
	require.NoError(t, err)
}

func TestServiceRoundTrip(t *testing.T) {
	initTestDatabase(t)
	ctx := context.Background()

	uow := strata.NewUnitOfWork()
	defer func() { _ = uow.Close() }()
	svc := strata.NewService[SystemConfig](uow)

	svc.Add(&SystemConfig{ConfigKey: "app.name", ConfigValue: "strata"})
	svc.AddRange(
		&SystemConfig{ConfigKey: "app.mode", ConfigValue: "test"},
		&SystemConfig{ConfigKey: "app.debug", ConfigValue: "true"},
	)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "nothing persists before commit")

	affected, err := svc.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	found, err := svc.Find(ctx, types.NewFilter("config_key = ?", "app.mode"))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "test", found.ConfigValue)

	found.ConfigValue = "prod"
	svc.Update(found)
	svc.Delete(all[2])
	affected, err = svc.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	page, err := svc.Page(ctx, types.NewPageRequest(1, 10, nil, "config_key", types.Ascending))
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "app.mode", page.Items[0].ConfigKey)
	assert.Equal(t, "app.name", page.Items[1].ConfigKey)

	status := database.GetHealthStatus(ctx)
	assert.True(t, status.Healthy)
}
