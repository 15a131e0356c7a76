package badger

import "github.com/poiesic/pedagogue/storage"

// NewMemoryRepository creates an in-memory course repository for testing.
// Caller must close both the repository and the backend when done.
func NewMemoryRepository() (storage.CourseRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}

	repo, err := NewCourseRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return repo, backend, nil
}
