package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jifunze/jifunze/core"
	"github.com/jifunze/jifunze/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

// instructorHasCourse must be called with a lock held.
func (repo *courseRepository) instructorHasCourse(c course.Course) bool {
	for _, other := range repo.db.courses {
		if other.InstructorID == c.InstructorID && other.ID != c.ID {
			return true
		}
	}
	return false
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.instructorHasCourse(c) {
		return course.Course{}, course.ErrInstructorHasCourse
	}
	c.ID = repo.db.nextID("courses")
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		if filter != nil {
			if filter.Title != "" && c.Title != filter.Title {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(filter.Search)) {
				continue
			}
			if filter.Status != "" && c.Status != filter.Status {
				continue
			}
		}
		courses = append(courses, *c)
	}

	sort.SliceStable(courses, func(i, j int) bool {
		a, b := courses[i], courses[j]
		for _, ord := range ordering {
			var cmp int
			switch ord.Field {
			case "id":
				cmp = compareInts(a.ID, b.ID)
			case "title":
				cmp = strings.Compare(a.Title, b.Title)
			case "status":
				cmp = strings.Compare(string(a.Status), string(b.Status))
			}
			if cmp != 0 {
				return (cmp < 0) == ord.Ascending
			}
		}
		return a.ID < b.ID
	})
	return courses, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, filter course.GetFilter) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != 0 {
		if c, ok := repo.db.courses[filter.ID]; ok {
			return *c, nil
		}
		return course.Course{}, course.ErrNotFound
	}
	if filter.InstructorID != 0 {
		for _, c := range repo.db.courses {
			if c.InstructorID == filter.InstructorID {
				return *c, nil
			}
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	if repo.instructorHasCourse(c) {
		return course.Course{}, course.ErrInstructorHasCourse
	}
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return course.ErrNotFound
	}
	repo.db.deleteCourse(id)
	return nil
}

func (repo *courseRepository) CreateLesson(_ context.Context, l course.Lesson) (course.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.courses[l.CourseID]; !ok {
		return course.Lesson{}, course.ErrNotFound
	}
	l.ID = repo.db.nextID("lessons")
	l.Content = course.SanitizeContent(l.Content)
	repo.db.lessons[l.ID] = &l
	return l, nil
}

func (repo *courseRepository) QueryLessons(_ context.Context, filter *course.LessonFilter) ([]course.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lessons := make([]course.Lesson, 0, len(repo.db.lessons))
	for _, l := range repo.db.lessons {
		if filter != nil && filter.CourseID != 0 && l.CourseID != filter.CourseID {
			continue
		}
		lessons = append(lessons, *l)
	}
	sort.Slice(lessons, func(i, j int) bool {
		if lessons[i].Order != lessons[j].Order {
			return lessons[i].Order < lessons[j].Order
		}
		return lessons[i].ID < lessons[j].ID
	})
	return lessons, nil
}

func (repo *courseRepository) GetLesson(_ context.Context, id int) (course.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if l, ok := repo.db.lessons[id]; ok {
		return *l, nil
	}
	return course.Lesson{}, course.ErrLessonNotFound
}

func (repo *courseRepository) UpdateLesson(_ context.Context, l course.Lesson) (course.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.lessons[l.ID]
	if !ok {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	l.CourseID = orig.CourseID
	l.CreatedAt = orig.CreatedAt
	l.Content = course.SanitizeContent(l.Content)
	repo.db.lessons[l.ID] = &l
	return l, nil
}

func (repo *courseRepository) DeleteLesson(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.lessons[id]; !ok {
		return course.ErrLessonNotFound
	}
	repo.db.deleteLesson(id)
	return nil
}

func (repo *courseRepository) CreateVideo(_ context.Context, v course.LessonVideo) (course.LessonVideo, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.lessons[v.LessonID]; !ok {
		return course.LessonVideo{}, course.ErrLessonNotFound
	}
	v.ID = repo.db.nextID("videos")
	repo.db.videos[v.ID] = &v
	return v, nil
}

func (repo *courseRepository) QueryVideos(_ context.Context, filter *course.VideoFilter) ([]course.LessonVideo, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	videos := make([]course.LessonVideo, 0, len(repo.db.videos))
	for _, v := range repo.db.videos {
		if filter != nil && filter.LessonID != 0 && v.LessonID != filter.LessonID {
			continue
		}
		videos = append(videos, *v)
	}
	sort.Slice(videos, func(i, j int) bool {
		if videos[i].Order != videos[j].Order {
			return videos[i].Order < videos[j].Order
		}
		return videos[i].ID < videos[j].ID
	})
	return videos, nil
}

func (repo *courseRepository) GetVideo(_ context.Context, id int) (course.LessonVideo, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if v, ok := repo.db.videos[id]; ok {
		return *v, nil
	}
	return course.LessonVideo{}, course.ErrVideoNotFound
}

func (repo *courseRepository) UpdateVideo(_ context.Context, v course.LessonVideo) (course.LessonVideo, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.videos[v.ID]
	if !ok {
		return course.LessonVideo{}, course.ErrVideoNotFound
	}
	v.LessonID = orig.LessonID
	repo.db.videos[v.ID] = &v
	return v, nil
}

func (repo *courseRepository) DeleteVideo(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.videos[id]; !ok {
		return course.ErrVideoNotFound
	}
	delete(repo.db.videos, id)
	return nil
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
