package inmemdb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jifunze/jifunze/core/course"
	"github.com/jifunze/jifunze/core/enrolment"
	"github.com/jifunze/jifunze/core/user"
	"github.com/jifunze/jifunze/core/videosession"
	inmemdb "github.com/jifunze/jifunze/storage/database/inmem"
	testutil "github.com/jifunze/jifunze/tests"
)

func TestDB_cascades(t *testing.T) {
	db := testutil.OpenDB()
	usrRepo := inmemdb.NewUserRepository(db)
	courseRepo := inmemdb.NewCourseRepository(db)
	enrolRepo := inmemdb.NewEnrolmentRepository(db)
	sessionRepo := inmemdb.NewSessionRepository(db)
	ctx := context.Background()

	teacher := testutil.CreateInstructor(t, usrRepo, "Cheikh", "diop@test.cd", user.StatusActivated)
	student := testutil.CreateStudent(t, usrRepo, "Amina", "zazzau@test.cd", user.StatusActivated)
	c := testutil.CreateCourse(t, courseRepo, "History", teacher.ID, course.StatusActive)
	l := testutil.CreateLesson(t, courseRepo, c.ID, "Origins", "<p>Nile</p>", 1)
	v := testutil.CreateVideo(t, courseRepo, l.ID, "https://v.test.cd/nile", "Nile", 1)
	e := testutil.CreateEnrolment(t, enrolRepo, student.ID, c.ID)
	s := testutil.CreateSession(t, sessionRepo, "Q&A", "https://meet.jit.si/q-and-a_12345678", c.ID, teacher.ID)

	t.Run("deleting a lesson removes its videos", func(t *testing.T) {
		l2 := testutil.CreateLesson(t, courseRepo, c.ID, "Kingdoms", "<p>Kush</p>", 2)
		v2 := testutil.CreateVideo(t, courseRepo, l2.ID, "https://v.test.cd/kush", "Kush", 1)
		require.NoError(t, courseRepo.DeleteLesson(ctx, l2.ID))
		_, err := courseRepo.GetVideo(ctx, v2.ID)
		assert.Equal(t, course.ErrVideoNotFound, err)
		_, err = courseRepo.GetVideo(ctx, v.ID)
		assert.NoError(t, err)
	})

	t.Run("deleting an instructor's user removes everything below it", func(t *testing.T) {
		require.NoError(t, usrRepo.DeleteUser(ctx, teacher.User.ID))

		_, err := usrRepo.GetMember(ctx, user.RoleInstructor, user.MemberFilter{ID: teacher.ID})
		assert.Equal(t, user.ErrMemberNotFound, err)
		_, err = courseRepo.GetCourse(ctx, course.GetFilter{ID: c.ID})
		assert.Equal(t, course.ErrNotFound, err)
		_, err = courseRepo.GetLesson(ctx, l.ID)
		assert.Equal(t, course.ErrLessonNotFound, err)
		_, err = courseRepo.GetVideo(ctx, v.ID)
		assert.Equal(t, course.ErrVideoNotFound, err)
		_, err = enrolRepo.Get(ctx, enrolment.GetFilter{ID: e.ID})
		assert.Equal(t, enrolment.ErrNotFound, err)
		_, err = sessionRepo.Get(ctx, s.ID)
		assert.Equal(t, videosession.ErrNotFound, err)

		// the student is untouched
		_, err = usrRepo.GetMember(ctx, user.RoleStudent, user.MemberFilter{ID: student.ID})
		assert.NoError(t, err)
	})
}

func TestCourseRepository_oneCoursePerInstructor(t *testing.T) {
	db := testutil.OpenDB()
	usrRepo := inmemdb.NewUserRepository(db)
	courseRepo := inmemdb.NewCourseRepository(db)
	ctx := context.Background()

	teacher := testutil.CreateInstructor(t, usrRepo, "Fela", "kuti@test.cd", user.StatusActivated)
	testutil.CreateCourse(t, courseRepo, "Afrobeat", teacher.ID, course.StatusActive)

	_, err := courseRepo.CreateCourse(ctx, course.Course{Title: "Jazz", InstructorID: teacher.ID, Status: course.StatusActive})
	assert.Equal(t, course.ErrInstructorHasCourse, err)
}

func TestEnrolmentRepository_Create(t *testing.T) {
	db := testutil.OpenDB()
	usrRepo := inmemdb.NewUserRepository(db)
	courseRepo := inmemdb.NewCourseRepository(db)
	enrolRepo := inmemdb.NewEnrolmentRepository(db)
	ctx := context.Background()

	teacher := testutil.CreateInstructor(t, usrRepo, "Ousmane", "sembene@test.cd", user.StatusActivated)
	student := testutil.CreateStudent(t, usrRepo, "Ama", "ata@test.cd", user.StatusActivated)
	c := testutil.CreateCourse(t, courseRepo, "Cinema", teacher.ID, course.StatusActive)

	_, err := enrolRepo.Create(ctx, enrolment.Enrolment{StudentID: student.ID, CourseID: c.ID})
	require.NoError(t, err)
	_, err = enrolRepo.Create(ctx, enrolment.Enrolment{StudentID: student.ID, CourseID: c.ID})
	assert.Equal(t, enrolment.ErrDuplicate, err)
	_, err = enrolRepo.Create(ctx, enrolment.Enrolment{StudentID: student.ID + 100, CourseID: c.ID})
	assert.Equal(t, user.ErrMemberNotFound, err)
	_, err = enrolRepo.Create(ctx, enrolment.Enrolment{StudentID: student.ID, CourseID: c.ID + 100})
	assert.Equal(t, course.ErrNotFound, err)
}
