package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/jifunze/jifunze/core/videosession"
)

const sessionColumns = "id, session_title, scheduled_time, session_link, course_id, instructor_id, created_at, updated_at"

type sessionRepository struct {
	db *sqlx.DB
}

var _ videosession.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *sqlx.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) Create(ctx context.Context, s videosession.Session) (videosession.Session, error) {
	q := `INSERT INTO video_sessions (session_title, scheduled_time, session_link, course_id, instructor_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := repo.db.GetContext(ctx, &s.ID, q,
		s.Title, s.ScheduledTime.UTC(), s.Link, s.CourseID, s.InstructorID, s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	if err != nil {
		return videosession.Session{}, errors.Wrap(err, "inserting video session")
	}
	return s, nil
}

func (repo *sessionRepository) Query(ctx context.Context, filter *videosession.QueryFilter) ([]videosession.Session, error) {
	var conds []string
	var args []interface{}
	if filter != nil && filter.CourseID != 0 {
		conds = append(conds, "course_id = ?")
		args = append(args, filter.CourseID)
	}

	q := repo.db.Rebind("SELECT " + sessionColumns + " FROM video_sessions" + where(conds) + " ORDER BY created_at DESC, id DESC")
	sessions := make([]videosession.Session, 0)
	if err := repo.db.SelectContext(ctx, &sessions, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying video sessions")
	}
	return sessions, nil
}

func (repo *sessionRepository) Get(ctx context.Context, id int) (videosession.Session, error) {
	var s videosession.Session
	if err := repo.db.GetContext(ctx, &s, "SELECT "+sessionColumns+" FROM video_sessions WHERE id = $1", id); err != nil {
		return videosession.Session{}, trapNoRowsErr(err, videosession.ErrNotFound, "finding video session")
	}
	return s, nil
}

func (repo *sessionRepository) Update(ctx context.Context, s videosession.Session) (videosession.Session, error) {
	q := `UPDATE video_sessions SET session_title = $1, scheduled_time = $2, session_link = $3, course_id = $4,
		updated_at = $5 WHERE id = $6`
	res, err := repo.db.ExecContext(ctx, q, s.Title, s.ScheduledTime.UTC(), s.Link, s.CourseID, s.UpdatedAt.UTC(), s.ID)
	if err != nil {
		return videosession.Session{}, errors.Wrap(err, "updating video session")
	}
	if err = checkAffected(res, videosession.ErrNotFound); err != nil {
		return videosession.Session{}, err
	}
	return repo.Get(ctx, s.ID)
}

func (repo *sessionRepository) Delete(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM video_sessions WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting video session")
	}
	return checkAffected(res, videosession.ErrNotFound)
}
