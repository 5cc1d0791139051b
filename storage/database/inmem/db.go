package inmemdb

import (
	"sync"

	"github.com/jifunze/jifunze/core/course"
	"github.com/jifunze/jifunze/core/enrolment"
	"github.com/jifunze/jifunze/core/user"
	"github.com/jifunze/jifunze/core/videosession"
)

type (
	// DB keeps every table behind one lock so that cascades stay atomic.
	DB struct {
		sync.RWMutex
		pk          map[string]int
		users       map[int]*user.User // profile excluded
		profiles    map[int]*user.Profile
		instructors map[int]*memberRow
		students    map[int]*memberRow
		courses     map[int]*course.Course
		lessons     map[int]*course.Lesson
		videos      map[int]*course.LessonVideo
		enrolments  map[int]*enrolment.Enrolment
		sessions    map[int]*videosession.Session
	}

	memberRow struct {
		ID     int
		UserID int
		Status user.Status
	}
)

func Open() *DB {
	return &DB{
		pk:          make(map[string]int),
		users:       make(map[int]*user.User),
		profiles:    make(map[int]*user.Profile),
		instructors: make(map[int]*memberRow),
		students:    make(map[int]*memberRow),
		courses:     make(map[int]*course.Course),
		lessons:     make(map[int]*course.Lesson),
		videos:      make(map[int]*course.LessonVideo),
		enrolments:  make(map[int]*enrolment.Enrolment),
		sessions:    make(map[int]*videosession.Session),
	}
}

// nextID must be called with the write lock held.
func (db *DB) nextID(table string) int {
	db.pk[table]++
	return db.pk[table]
}

func (db *DB) members(role user.Role) map[int]*memberRow {
	if role == user.RoleInstructor {
		return db.instructors
	}
	return db.students
}

// Cascades, called with the write lock held.

func (db *DB) deleteUser(id int) {
	delete(db.users, id)
	delete(db.profiles, id)
	for _, row := range db.instructors {
		if row.UserID == id {
			db.deleteInstructor(row.ID)
		}
	}
	for _, row := range db.students {
		if row.UserID == id {
			db.deleteStudent(row.ID)
		}
	}
}

func (db *DB) deleteInstructor(id int) {
	delete(db.instructors, id)
	for _, c := range db.courses {
		if c.InstructorID == id {
			db.deleteCourse(c.ID)
		}
	}
	for _, s := range db.sessions {
		if s.InstructorID == id {
			delete(db.sessions, s.ID)
		}
	}
}

func (db *DB) deleteStudent(id int) {
	delete(db.students, id)
	for _, e := range db.enrolments {
		if e.StudentID == id {
			delete(db.enrolments, e.ID)
		}
	}
}

func (db *DB) deleteCourse(id int) {
	delete(db.courses, id)
	for _, l := range db.lessons {
		if l.CourseID == id {
			db.deleteLesson(l.ID)
		}
	}
	for _, e := range db.enrolments {
		if e.CourseID == id {
			delete(db.enrolments, e.ID)
		}
	}
	for _, s := range db.sessions {
		if s.CourseID == id {
			delete(db.sessions, s.ID)
		}
	}
}

func (db *DB) deleteLesson(id int) {
	delete(db.lessons, id)
	for _, v := range db.videos {
		if v.LessonID == id {
			delete(db.videos, v.ID)
		}
	}
}
