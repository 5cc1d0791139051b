package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jifunze/jifunze/core/course"
	"github.com/jifunze/jifunze/core/user"
	testutil "github.com/jifunze/jifunze/tests"
)

// authoringFixtures sets up the principals every content test needs.
type authoringFixtures struct {
	admin        user.User
	owner        user.Member // activated instructor of `course`
	other        user.Member // activated instructor of `otherCourse`
	idle         user.Member // activated instructor without a course
	deactivated  user.Member // deactivated instructor with a course
	staffProfile user.Member // staff user with a deactivated instructor profile
	student      user.Member
	course       course.Course
	otherCourse  course.Course
}

func newAuthoringFixtures(t *testing.T, env *testEnv) authoringFixtures {
	f := authoringFixtures{
		admin:       testutil.CreateAdmin(t, env.usrRepo, "Carol", "danvers@test.cd"),
		owner:       testutil.CreateInstructor(t, env.usrRepo, "Natasha", "romanoff@test.cd", user.StatusActivated),
		other:       testutil.CreateInstructor(t, env.usrRepo, "Clint", "barton@test.cd", user.StatusActivated),
		idle:        testutil.CreateInstructor(t, env.usrRepo, "Sam", "wilson@test.cd", user.StatusActivated),
		deactivated: testutil.CreateInstructor(t, env.usrRepo, "Bucky", "barnes@test.cd", user.StatusDeactivated),
		student:     testutil.CreateStudent(t, env.usrRepo, "Kate", "bishop@test.cd", user.StatusActivated),
	}
	f.staffProfile = testutil.CreateInstructor(t, env.usrRepo, "Yelena", "belova@test.cd", user.StatusDeactivated)
	staff := f.staffProfile.User
	staff.IsStaff = true
	if _, err := env.usrRepo.UpdateUser(context.Background(), staff); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}

	f.course = testutil.CreateCourse(t, env.courseRepo, "Espionage", f.owner.ID, course.StatusActive)
	f.otherCourse = testutil.CreateCourse(t, env.courseRepo, "Archery", f.other.ID, course.StatusActive)
	testutil.CreateCourse(t, env.courseRepo, "Winter", f.deactivated.ID, course.StatusActive)
	testutil.CreateCourse(t, env.courseRepo, "Red room", f.staffProfile.ID, course.StatusActive)
	return f
}

func Test_lessonApi_createLesson(t *testing.T) {
	env := setup(t)
	f := newAuthoringFixtures(t, env)

	body := []byte(`{"title":"Disguises","content":"<script>alert(1)</script><p onclick=\"steal()\">Blend <b>in</b></p>","course":999}`)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "students are denied", token: env.token(t, f.student.User), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "deactivated instructors are denied", token: env.token(t, f.deactivated.User),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "staff with a deactivated profile is denied", token: env.token(t, f.staffProfile.User),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admins are not instructors", token: env.token(t, f.admin),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "user is not an instructor"}),
		},
		{
			name: "instructor without a course", token: env.token(t, f.idle.User),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "user has no associated course"}),
		},
		{name: "created", token: env.token(t, f.owner.User), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/lessons/create"
		tt.body = body
		t.Run(tt.name, func(t *testing.T) {
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var l course.Lesson
				unmarshall(t, rec, &l)
				assert.Equal(t, f.course.ID, l.CourseID, "the course is the author's")
				assert.Equal(t, "alert(1)<p>Blend in</p>", l.Content, "tags stripped, text kept")
				assert.Equal(t, 1, l.Order)
			}
		})
	}
}

func Test_lessonApi_updateLesson(t *testing.T) {
	env := setup(t)
	f := newAuthoringFixtures(t, env)

	lesson := testutil.CreateLesson(t, env.courseRepo, f.course.ID, "Lock picking", "<p>Tension wrench</p>", 2)
	path := fmt.Sprintf("/lessons/%d/edit", lesson.ID)

	tests := []httpTest{
		{name: "other instructors are denied", method: http.MethodPatch, body: []byte(`{"title":"Mine"}`), token: env.token(t, f.other.User), wantCode: http.StatusForbidden},
		{name: "deactivated instructors are denied", method: http.MethodPatch, body: []byte(`{"title":"Mine"}`), token: env.token(t, f.deactivated.User), wantCode: http.StatusForbidden},
		{name: "order cannot be negative", method: http.MethodPatch, body: []byte(`{"order":-1}`), token: env.token(t, f.owner.User), wantCode: http.StatusUnprocessableEntity},
		{
			name: "owner: course is ignored", method: http.MethodPatch, token: env.token(t, f.owner.User),
			body: []byte(fmt.Sprintf(`{"course":%d,"content":"<h2 style=\"x\">Picks</h2><img src=x>"}`, f.otherCourse.ID)),
			extra: course.Lesson{Title: "Lock picking", Content: "<h2>Picks</h2>", Order: 2},
		},
		{
			name: "admin", method: http.MethodPut, token: env.token(t, f.admin), body: []byte(`{"title":"Safe cracking","order":0}`),
			extra: course.Lesson{Title: "Safe cracking", Content: "<h2>Picks</h2>", Order: 0},
		},
		{name: "unknown lesson", method: http.MethodPatch, path: fmt.Sprintf("/lessons/%d/edit", lesson.ID+100), body: []byte(`{}`), token: env.token(t, f.admin), wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		if tt.path == "" {
			tt.path = path
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)

			if want, ok := tt.extra.(course.Lesson); ok {
				var l course.Lesson
				unmarshall(t, rec, &l)
				assert.Equal(t, lesson.ID, l.ID)
				assert.Equal(t, f.course.ID, l.CourseID)
				assert.Equal(t, want.Title, l.Title)
				assert.Equal(t, want.Content, l.Content)
				assert.Equal(t, want.Order, l.Order)
			}
		})
	}
}

func Test_lessonApi_queryAndDeleteLessons(t *testing.T) {
	env := setup(t)
	f := newAuthoringFixtures(t, env)

	l3 := testutil.CreateLesson(t, env.courseRepo, f.course.ID, "Exfiltration", "<p>c</p>", 3)
	l1 := testutil.CreateLesson(t, env.courseRepo, f.course.ID, "Surveillance", "<p>a</p>", 1)
	l1b := testutil.CreateLesson(t, env.courseRepo, f.course.ID, "Cover stories", "<p>b</p>", 1)
	arrows := testutil.CreateLesson(t, env.courseRepo, f.otherCourse.ID, "Trick arrows", "<p>d</p>", 1)

	token := env.token(t, f.student.User)
	tests := []httpTest{
		{name: "ordered by order, then id", path: "/lessons", token: token, wantData: marchallList(t, l1, l1b, arrows, l3)},
		{name: "by course", path: fmt.Sprintf("/lessons?course=%d", f.course.ID), token: token, wantData: marchallList(t, l1, l1b, l3)},
		{name: "retrieve", path: fmt.Sprintf("/lessons/%d", arrows.ID), token: token, wantData: marchallObj(t, arrows)},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
	}
	runHttpTests(t, env, tests)

	tests = []httpTest{
		{name: "other instructors cannot delete", path: fmt.Sprintf("/lessons/%d/delete", arrows.ID), token: env.token(t, f.owner.User), wantCode: http.StatusForbidden},
		{name: "owner deletes", path: fmt.Sprintf("/lessons/%d/delete", l3.ID), token: env.token(t, f.owner.User), wantCode: http.StatusNoContent},
		{name: "admin deletes", path: fmt.Sprintf("/lessons/%d/delete", arrows.ID), token: env.token(t, f.admin), wantCode: http.StatusNoContent},
		{name: "already deleted", path: fmt.Sprintf("/lessons/%d/delete", arrows.ID), token: env.token(t, f.admin), wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete
		t.Run(tt.name, func(t *testing.T) {
			rec := env.serve(tt)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func Test_lessonApi_videos(t *testing.T) {
	env := setup(t)
	f := newAuthoringFixtures(t, env)

	own := testutil.CreateLesson(t, env.courseRepo, f.course.ID, "Hand to hand", "<p>e</p>", 1)
	foreign := testutil.CreateLesson(t, env.courseRepo, f.otherCourse.ID, "Long range", "<p>f</p>", 1)
	foreignVid := testutil.CreateVideo(t, env.courseRepo, foreign.ID, "https://videos.test.cd/range", "Range", 1)

	ownerToken := env.token(t, f.owner.User)
	body := func(lessonID int) []byte {
		return []byte(fmt.Sprintf(`{"lesson":%d,"url":"https://videos.test.cd/hth","title":"Takedowns"}`, lessonID))
	}

	t.Run("create", func(t *testing.T) {
		tests := []httpTest{
			{name: "students are denied", body: body(own.ID), token: env.token(t, f.student.User), wantCode: http.StatusForbidden},
			{name: "url required", body: []byte(fmt.Sprintf(`{"lesson":%d}`, own.ID)), token: ownerToken, wantCode: http.StatusUnprocessableEntity},
			{
				name: "unknown lesson", body: body(foreign.ID + 100), token: ownerToken,
				wantCode: http.StatusUnprocessableEntity, wantData: []byte(`{"lesson":"Invalid lesson."}`),
			},
			{
				name: "lesson of another course", body: body(foreign.ID), token: ownerToken,
				wantCode: http.StatusUnprocessableEntity, wantData: []byte(`{"lesson":"lesson does not belong to your course"}`),
			},
			{name: "created", body: body(own.ID), token: ownerToken, wantCode: http.StatusCreated},
		}
		for _, tt := range tests {
			tt.method = http.MethodPost
			tt.path = "/lesson-videos/create"
			t.Run(tt.name, func(t *testing.T) {
				rec := env.serve(tt)
				checkCodeAndData(t, tt, rec)

				if tt.wantCode == http.StatusCreated {
					var v course.LessonVideo
					unmarshall(t, rec, &v)
					assert.Equal(t, own.ID, v.LessonID)
					assert.Equal(t, 1, v.Order)
				}
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		path := fmt.Sprintf("/lesson-videos/%d/edit", foreignVid.ID)

		tests := []httpTest{
			{name: "other instructors are denied", body: []byte(`{"title":"Mine"}`), token: ownerToken, wantCode: http.StatusForbidden},
			{
				name: "lesson is ignored", body: []byte(fmt.Sprintf(`{"lesson":%d,"title":"Ricochets"}`, own.ID)), token: env.token(t, f.other.User),
				wantData: marchallObj(t, course.LessonVideo{ID: foreignVid.ID, LessonID: foreign.ID, URL: foreignVid.URL, Title: "Ricochets", Order: 1}),
			},
			{name: "invalid url", body: []byte(`{"url":"lol"}`), token: env.token(t, f.admin), wantCode: http.StatusUnprocessableEntity},
		}
		for i := range tests {
			tests[i].method = http.MethodPatch
			tests[i].path = path
		}
		runHttpTests(t, env, tests)
	})

	t.Run("query", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/lesson-videos?lesson=%d", foreign.ID), env.token(t, f.student.User))
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var videos []course.LessonVideo
		unmarshall(t, rec, &videos)
		require.Len(t, videos, 1)
		assert.Equal(t, "Ricochets", videos[0].Title)
	})

	t.Run("delete", func(t *testing.T) {
		path := fmt.Sprintf("/lesson-videos/%d/delete", foreignVid.ID)

		req, rec := newAuthRequest(http.MethodDelete, path, ownerToken)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req, rec = newAuthRequest(http.MethodDelete, path, env.token(t, f.other.User))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
