package inmemdb

import (
	"context"
	"sort"

	"github.com/jifunze/jifunze/core/course"
	"github.com/jifunze/jifunze/core/videosession"
)

type sessionRepository struct {
	db *DB
}

var _ videosession.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) Create(_ context.Context, s videosession.Session) (videosession.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[s.CourseID]; !ok {
		return videosession.Session{}, course.ErrNotFound
	}
	s.ID = repo.db.nextID("sessions")
	repo.db.sessions[s.ID] = &s
	return s, nil
}

func (repo *sessionRepository) Query(_ context.Context, filter *videosession.QueryFilter) ([]videosession.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sessions := make([]videosession.Session, 0, len(repo.db.sessions))
	for _, s := range repo.db.sessions {
		if filter != nil && filter.CourseID != 0 && s.CourseID != filter.CourseID {
			continue
		}
		sessions = append(sessions, *s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
		}
		return sessions[i].ID > sessions[j].ID
	})
	return sessions, nil
}

func (repo *sessionRepository) Get(_ context.Context, id int) (videosession.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.sessions[id]; ok {
		return *s, nil
	}
	return videosession.Session{}, videosession.ErrNotFound
}

func (repo *sessionRepository) Update(_ context.Context, s videosession.Session) (videosession.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.sessions[s.ID]
	if !ok {
		return videosession.Session{}, videosession.ErrNotFound
	}
	s.CreatedAt = orig.CreatedAt
	repo.db.sessions[s.ID] = &s
	return s, nil
}

func (repo *sessionRepository) Delete(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.sessions[id]; !ok {
		return videosession.ErrNotFound
	}
	delete(repo.db.sessions, id)
	return nil
}
