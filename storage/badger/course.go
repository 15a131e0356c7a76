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
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/pedagogue/core"
	"github.com/poiesic/pedagogue/storage"
)

// CourseRepository implements storage.CourseRepository for BadgerDB.
type CourseRepository struct {
	backend    *Backend
	sectionSeq *badger.Sequence
	evalSeq    *badger.Sequence
}

var _ storage.CourseRepository = (*CourseRepository)(nil)

// newCourseRepository is an internal constructor that returns the concrete type.
func newCourseRepository(backend *Backend) (*CourseRepository, error) {
	sectionSeq, err := backend.GetSequence(sectionIDSeq)
	if err != nil {
		return nil, err
	}
	evalSeq, err := backend.GetSequence(evaluationIDSeq)
	if err != nil {
		sectionSeq.Release()
		return nil, err
	}

	return &CourseRepository{
		backend:    backend,
		sectionSeq: sectionSeq,
		evalSeq:    evalSeq,
	}, nil
}

// NewCourseRepository creates a course repository on top of backend.
//
// Returns storage.CourseRepository interface to enforce abstraction.
func NewCourseRepository(backend *Backend) (storage.CourseRepository, error) {
	return newCourseRepository(backend)
}

// Close releases the ID sequences.
func (r *CourseRepository) Close() error {
	return errors.Join(r.sectionSeq.Release(), r.evalSeq.Release())
}

// nextID returns the next ID from seq.
// BadgerDB sequences can return 0 on first call, so we skip it.
func nextID(seq *badger.Sequence) (core.ID, error) {
	id, err := seq.Next()
	if err != nil {
		return 0, err
	}
	if id == 0 {
		if id, err = seq.Next(); err != nil {
			return 0, err
		}
	}
	return core.ID(id), nil
}

// CourseExists reports whether a course with this fingerprint is stored.
func (r *CourseRepository) CourseExists(ctx context.Context, fingerprint string) (bool, error) {
	exists := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		exists, err = keyExists(tx, makeCourseKey(fingerprint))
		return err
	}, false)
	return exists, err
}

// InsertCourse stores a course unless its fingerprint is already present.
func (r *CourseRepository) InsertCourse(ctx context.Context, course *core.Course) error {
	if err := core.ValidateCourse(course); err != nil {
		return err
	}

	return r.backend.Update(func(tx *badger.Txn) error {
		key := makeCourseKey(course.Fingerprint)
		exists, err := keyExists(tx, key)
		if err != nil || exists {
			return err
		}

		if course.InsertedAt.IsZero() {
			course.InsertedAt = time.Now().UTC()
		}
		return tx.Set(key, storage.MarshalCourse(course))
	})
}

// GetCourse retrieves a course by fingerprint.
func (r *CourseRepository) GetCourse(ctx context.Context, fingerprint string) (*core.Course, error) {
	var course *core.Course
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		course, err = readCourse(tx, fingerprint)
		return err
	}, false)
	return course, err
}

// ListCourses returns every course ordered by fingerprint.
func (r *CourseRepository) ListCourses(ctx context.Context) ([]*core.Course, error) {
	var courses []*core.Course
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(coursePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var course *core.Course
			err := iter.Item().Value(func(val []byte) error {
				var err error
				course, err = storage.UnmarshalCourse(val)
				return err
			})
			if err != nil {
				return err
			}
			courses = append(courses, course)
		}
		return nil
	}, false)
	return courses, err
}

// ReplaceSections deletes the current sections of a course and stores texts
// in their place, all in one transaction. An invalid text aborts the
// transaction and leaves the previous sections in place.
func (r *CourseRepository) ReplaceSections(ctx context.Context, fingerprint string, texts []string) ([]*core.Section, error) {
	var sections []*core.Section
	err := r.backend.Update(func(tx *badger.Txn) error {
		exists, err := keyExists(tx, makeCourseKey(fingerprint))
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("course %s: %w", fingerprint, storage.ErrNotFound)
		}

		// Collect first: deleting while iterating is not allowed.
		indexKeys, sectionIDs, err := collectCourseSections(tx, fingerprint)
		if err != nil {
			return err
		}
		for i, key := range indexKeys {
			if err := tx.Delete(key); err != nil {
				return err
			}
			if err := tx.Delete(makeSectionKey(sectionIDs[i])); err != nil {
				return err
			}
		}

		sections = make([]*core.Section, 0, len(texts))
		for ordinal, text := range texts {
			if err := core.ValidateSectionText(text); err != nil {
				return fmt.Errorf("section %d: %w", ordinal, err)
			}
			id, err := nextID(r.sectionSeq)
			if err != nil {
				return err
			}
			section := &core.Section{
				ID:                id,
				CourseFingerprint: fingerprint,
				Ordinal:           ordinal,
				Content:           text,
				CharCount:         utf8.RuneCountInString(text),
			}
			value := storage.MarshalSection(section)
			if err := tx.Set(makeSectionKey(id), value); err != nil {
				return err
			}
			if err := tx.Set(makeCourseSectionKey(fingerprint, ordinal), storage.MarshalID(id)); err != nil {
				return err
			}
			sections = append(sections, section)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sections, nil
}

// Sections returns the current sections of a course ordered by ordinal.
func (r *CourseRepository) Sections(ctx context.Context, fingerprint string) ([]*core.Section, error) {
	var sections []*core.Section
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, ids, err := collectCourseSections(tx, fingerprint)
		if err != nil {
			return err
		}
		for _, id := range ids {
			section, err := readSection(tx, id)
			if err != nil {
				return err
			}
			sections = append(sections, section)
		}
		return nil
	}, false)
	return sections, err
}

// SectionCount returns the number of current sections of a course.
func (r *CourseRepository) SectionCount(ctx context.Context, fingerprint string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeCourseSectionPrefix(fingerprint)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// UnevaluatedSections returns every current section lacking an evaluation
// for model, ordered by course fingerprint then ordinal.
func (r *CourseRepository) UnevaluatedSections(ctx context.Context, model string) ([]*core.PendingSection, error) {
	var pending []*core.PendingSection
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(courseSectionPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		filenames := make(map[string]string)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			id, err := readIndexedID(iter.Item())
			if err != nil {
				return err
			}
			evaluated, err := keyExists(tx, makeSectionEvalKey(id, model))
			if err != nil {
				return err
			}
			if evaluated {
				continue
			}

			section, err := readSection(tx, id)
			if err != nil {
				return err
			}
			filename, ok := filenames[section.CourseFingerprint]
			if !ok {
				course, err := readCourse(tx, section.CourseFingerprint)
				if err != nil {
					return err
				}
				filename = course.Filename
				filenames[section.CourseFingerprint] = filename
			}
			pending = append(pending, &core.PendingSection{Section: section, Filename: filename})
		}
		return nil
	}, false)
	return pending, err
}

// SaveEvaluation stores an evaluation, enforcing one per (section, model).
func (r *CourseRepository) SaveEvaluation(ctx context.Context, eval *core.Evaluation) error {
	if err := core.ValidateEvaluation(eval); err != nil {
		return err
	}

	return r.backend.Update(func(tx *badger.Txn) error {
		exists, err := keyExists(tx, makeSectionKey(eval.SectionID))
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("section %d: %w", eval.SectionID, storage.ErrNotFound)
		}

		uniqueKey := makeSectionEvalKey(eval.SectionID, eval.Model)
		duplicate, err := keyExists(tx, uniqueKey)
		if err != nil {
			return err
		}
		if duplicate {
			return fmt.Errorf("section %d model %q: %w", eval.SectionID, eval.Model, storage.ErrDuplicateKey)
		}

		id, err := nextID(r.evalSeq)
		if err != nil {
			return err
		}
		eval.ID = id
		eval.InsertedAt = time.Now().UTC()

		value := storage.MarshalEvaluation(eval)
		if err := tx.Set(makeEvaluationKey(id), value); err != nil {
			return err
		}
		return tx.Set(uniqueKey, storage.MarshalID(id))
	})
}

// CourseEvaluations returns the evaluations of a course's current sections
// ordered by ordinal, then model.
func (r *CourseRepository) CourseEvaluations(ctx context.Context, fingerprint string) ([]*core.CourseEvaluation, error) {
	var results []*core.CourseEvaluation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		indexKeys, sectionIDs, err := collectCourseSections(tx, fingerprint)
		if err != nil {
			return err
		}

		for i, sectionID := range sectionIDs {
			ordinal := ordinalFromKey(indexKeys[i])
			evalIDs, err := collectIDs(tx, makeSectionEvalPrefix(sectionID))
			if err != nil {
				return err
			}
			for _, evalID := range evalIDs {
				eval, err := readEvaluation(tx, evalID)
				if err != nil {
					return err
				}
				results = append(results, &core.CourseEvaluation{Ordinal: ordinal, Evaluation: eval})
			}
		}
		return nil
	}, false)
	return results, err
}

// SaveSynthesis stores the synthesis of a course, replacing any previous one.
func (r *CourseRepository) SaveSynthesis(ctx context.Context, synthesis *core.Synthesis) error {
	if err := core.ValidateSynthesis(synthesis); err != nil {
		return err
	}

	return r.backend.Update(func(tx *badger.Txn) error {
		exists, err := keyExists(tx, makeCourseKey(synthesis.CourseFingerprint))
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("course %s: %w", synthesis.CourseFingerprint, storage.ErrNotFound)
		}

		synthesis.CreatedAt = time.Now().UTC()
		return tx.Set(makeSynthesisKey(synthesis.CourseFingerprint), storage.MarshalSynthesis(synthesis))
	})
}

// GetSynthesis retrieves the synthesis of a course.
func (r *CourseRepository) GetSynthesis(ctx context.Context, fingerprint string) (*core.Synthesis, error) {
	var synthesis *core.Synthesis
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSynthesisKey(fingerprint))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			synthesis, err = storage.UnmarshalSynthesis(val)
			return err
		})
	}, false)
	return synthesis, err
}

// Reset deletes every record. ID sequences keep counting.
func (r *CourseRepository) Reset(ctx context.Context) error {
	return r.backend.DropPrefixes(dataPrefixes...)
}

// keyExists reports whether key is present in tx.
func keyExists(tx *badger.Txn, key []byte) (bool, error) {
	_, err := tx.Get(key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return false, err
}

// readIndexedID reads the ID stored as the value of an index item.
func readIndexedID(item *badger.Item) (core.ID, error) {
	var id core.ID
	err := item.Value(func(val []byte) error {
		var err error
		id, err = storage.UnmarshalID(val)
		return err
	})
	return id, err
}

// collectIDs returns the IDs stored under prefix in key order.
func collectIDs(tx *badger.Txn, prefix []byte) ([]core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		id, err := readIndexedID(iter.Item())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// collectCourseSections returns the ordinal index keys of a course and the
// section IDs they point to, in ordinal order.
func collectCourseSections(tx *badger.Txn, fingerprint string) ([][]byte, []core.ID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeCourseSectionPrefix(fingerprint)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var (
		keys [][]byte
		ids  []core.ID
	)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		id, err := readIndexedID(item)
		if err != nil {
			return nil, nil, err
		}
		keys = append(keys, item.KeyCopy(nil))
		ids = append(ids, id)
	}
	return keys, ids, nil
}

func readCourse(tx *badger.Txn, fingerprint string) (*core.Course, error) {
	item, err := tx.Get(makeCourseKey(fingerprint))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("course %s: %w", fingerprint, storage.ErrNotFound)
		}
		return nil, err
	}
	var course *core.Course
	err = item.Value(func(val []byte) error {
		course, err = storage.UnmarshalCourse(val)
		return err
	})
	return course, err
}

func readSection(tx *badger.Txn, id core.ID) (*core.Section, error) {
	item, err := tx.Get(makeSectionKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("section %d: %w", id, storage.ErrNotFound)
		}
		return nil, err
	}
	var section *core.Section
	err = item.Value(func(val []byte) error {
		section, err = storage.UnmarshalSection(val)
		return err
	})
	return section, err
}

func readEvaluation(tx *badger.Txn, id core.ID) (*core.Evaluation, error) {
	item, err := tx.Get(makeEvaluationKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("evaluation %d: %w", id, storage.ErrNotFound)
		}
		return nil, err
	}
	var eval *core.Evaluation
	err = item.Value(func(val []byte) error {
		eval, err = storage.UnmarshalEvaluation(val)
		return err
	})
	return eval, err
}
