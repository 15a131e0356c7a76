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


package storage

import "errors"

var (
	// ErrNotFound is returned when a course, section, evaluation, synthesis
	// or run record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a section already carries an
	// evaluation for the same model label.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrTransactionFailed is returned when a write keeps losing conflict
	// checks after every retry.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrStorageClosed is returned for any operation on a closed database.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed wraps a record that could not be decoded.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData is returned when a key or value is shorter than its
	// encoding requires.
	ErrTruncatedData = errors.New("truncated data")
)
