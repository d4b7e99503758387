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
	"sort"
	"sync"
)

var defaultRegistry = newModelRegistry()

// Model represents an entity type registered with the database layer so Bun
// can resolve its relations. Instance returns a struct pointer compatible
// with Bun; Priority controls registration order (lower values first).
type Model interface {
	Instance() interface{}
	Priority() int
}

// ModelRegistry stores entity models and exposes them in a deterministic order.
type ModelRegistry interface {
	Register(model Model)
	Models() []Model
}

type modelRegistry struct {
	models []Model
	mutex  sync.RWMutex
}

func newModelRegistry() ModelRegistry {
	return &modelRegistry{
		models: make([]Model, 0),
	}
}

func (r *modelRegistry) Register(model Model) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.models = append(r.models, model)
}

func (r *modelRegistry) Models() []Model {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]Model, len(r.models))
	copy(result, r.models)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

type modelAdapter struct {
	instance interface{}
	priority int
}

// NewModel wraps a struct instance and priority into a Model.
func NewModel(instance interface{}, priority int) Model {
	return &modelAdapter{
		instance: instance,
		priority: priority,
	}
}

func (a *modelAdapter) Instance() interface{} {
	return a.instance
}

func (a *modelAdapter) Priority() int {
	return a.priority
}

// RegisteredModels returns all models registered in the default registry
// sorted by ascending priority.
func RegisteredModels() []Model {
	return defaultRegistry.Models()
}

// RegisteredModel adds a model to the default registry.
func RegisteredModel(model Model) {
	defaultRegistry.Register(model)
}

// RegisteredModelInstances returns the underlying struct instances in
// registration priority order.
func RegisteredModelInstances() []interface{} {
	models := RegisteredModels()
	instances := make([]interface{}, len(models))
	for i, model := range models {
		instances[i] = model.Instance()
	}
	return instances
}
