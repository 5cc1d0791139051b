package inmemdb

import (
	"context"
	"sort"

	"github.com/jifunze/jifunze/core/course"
	"github.com/jifunze/jifunze/core/enrolment"
	"github.com/jifunze/jifunze/core/user"
)

type enrolmentRepository struct {
	db *DB
}

var _ enrolment.Repository = (*enrolmentRepository)(nil) // interface compliance check

func NewEnrolmentRepository(db *DB) *enrolmentRepository {
	return &enrolmentRepository{db: db}
}

// Create enforces the (student, course) uniqueness under the write lock.
func (repo *enrolmentRepository) Create(_ context.Context, e enrolment.Enrolment) (enrolment.Enrolment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[e.StudentID]; !ok {
		return enrolment.Enrolment{}, user.ErrMemberNotFound
	}
	if _, ok := repo.db.courses[e.CourseID]; !ok {
		return enrolment.Enrolment{}, course.ErrNotFound
	}
	for _, other := range repo.db.enrolments {
		if other.StudentID == e.StudentID && other.CourseID == e.CourseID {
			return enrolment.Enrolment{}, enrolment.ErrDuplicate
		}
	}

	e.ID = repo.db.nextID("enrolments")
	repo.db.enrolments[e.ID] = &e
	return e, nil
}

func (repo *enrolmentRepository) Query(_ context.Context, filter *enrolment.QueryFilter) ([]enrolment.Enrolment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrolments := make([]enrolment.Enrolment, 0, len(repo.db.enrolments))
	for _, e := range repo.db.enrolments {
		if filter != nil {
			if filter.CourseID != 0 && e.CourseID != filter.CourseID {
				continue
			}
			if filter.StudentID != 0 && e.StudentID != filter.StudentID {
				continue
			}
		}
		enrolments = append(enrolments, *e)
	}
	sort.Slice(enrolments, func(i, j int) bool { return enrolments[i].ID < enrolments[j].ID })
	return enrolments, nil
}

func (repo *enrolmentRepository) Get(_ context.Context, filter enrolment.GetFilter) (enrolment.Enrolment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != 0 {
		if e, ok := repo.db.enrolments[filter.ID]; ok {
			return *e, nil
		}
		return enrolment.Enrolment{}, enrolment.ErrNotFound
	}
	for _, e := range repo.db.enrolments {
		if e.StudentID == filter.StudentID && e.CourseID == filter.CourseID {
			return *e, nil
		}
	}
	return enrolment.Enrolment{}, enrolment.ErrNotFound
}

func (repo *enrolmentRepository) IncrementCompleted(_ context.Context, id int) (enrolment.Enrolment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e, ok := repo.db.enrolments[id]
	if !ok {
		return enrolment.Enrolment{}, enrolment.ErrNotFound
	}
	e.Completed++
	return *e, nil
}

func (repo *enrolmentRepository) Delete(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.enrolments[id]; !ok {
		return enrolment.ErrNotFound
	}
	delete(repo.db.enrolments, id)
	return nil
}
