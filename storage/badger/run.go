// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/pedagogue/core"
	"github.com/poiesic/pedagogue/storage"
)

// RunRepository implements storage.RunRepository for BadgerDB.
type RunRepository struct {
	backend *Backend
}

var _ storage.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository.
func NewRunRepository(backend *Backend) *RunRepository {
	return &RunRepository{
		backend: backend,
	}
}

// SaveRun persists run as the latest run for its model.
func (r *RunRepository) SaveRun(ctx context.Context, run *core.Run) error {
	if run.Model == "" {
		return core.ErrEmptyModel
	}
	return r.backend.Update(func(tx *badger.Txn) error {
		return tx.Set(makeRunKey(run.Model), storage.MarshalRun(run))
	})
}

// LastRun retrieves the latest run for model.
// Returns nil, nil if no run exists.
func (r *RunRepository) LastRun(ctx context.Context, model string) (*core.Run, error) {
	var run *core.Run
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRunKey(model))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			run, unmarshalErr = storage.UnmarshalRun(val)
			return unmarshalErr
		})
	}, false)

	return run, err
}
