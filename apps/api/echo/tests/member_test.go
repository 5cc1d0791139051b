package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jifunze/jifunze/core/user"
	emailsvc "github.com/jifunze/jifunze/services/email"
	testutil "github.com/jifunze/jifunze/tests"
)

func Test_memberApi_register(t *testing.T) {
	env := setup(t)

	testutil.CreateStudent(t, env.usrRepo, "Peter", "peter@test.cd", user.StatusActivated)

	body := func(firstName, email, pwd string) []byte {
		return marchallObj(t, user.NewAccount{User: user.NewUser{
			FirstName: firstName,
			LastName:  "Parker",
			Email:     email,
			Password:  pwd,
			Profile:   user.NewProfile{Bio: "Friendly neighbour"},
		}})
	}
	pwd := "Sp1d3r-S3ns3!"

	tests := []struct {
		name       string
		role       string
		body       []byte
		wantCode   int
		wantErr    string
		wantStatus user.Status
	}{
		{name: "instructor: invalid email", role: "instructors", body: body("May", "lol", pwd), wantCode: http.StatusUnprocessableEntity},
		{name: "instructor: numeric password", role: "instructors", body: body("May", "may@test.cd", "1234567890"), wantCode: http.StatusUnprocessableEntity},
		{name: "instructor: password too short", role: "instructors", body: body("May", "may@test.cd", "Sp1d"), wantCode: http.StatusUnprocessableEntity},
		{
			name: "instructor: duplicate email", role: "instructors", body: body("Peter", "PETER@test.cd", pwd),
			wantCode: http.StatusUnprocessableEntity, wantErr: `{"email":"a user with this email already exists"}`,
		},
		{name: "instructor: deactivated by default", role: "instructors", body: body("May", "may@test.cd", pwd), wantStatus: user.StatusDeactivated},
		{name: "student: activated by default", role: "students", body: body("Ben", "ben@test.cd", pwd), wantStatus: user.StatusActivated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ResetSentMessages()
			req, rec := newRequest(http.MethodPost, "/"+tt.role+"/register", tt.body)
			env.app.ServeHTTP(rec, req)

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				if tt.wantErr != "" {
					assert.JSONEq(t, tt.wantErr, rec.Body.String())
				}
				return
			}

			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			var mbr user.Member
			unmarshall(t, rec, &mbr)
			assert.Equal(t, tt.wantStatus, mbr.Status)
			require.NotNil(t, mbr.User.Profile)
			assert.Equal(t, "Friendly neighbour", mbr.User.Profile.Bio.String)

			// user, profile & role record exist
			usr, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: mbr.User.ID})
			require.NoError(t, err)
			require.NotNil(t, usr.Profile)
			assert.NoError(t, usr.CheckPassword(pwd))
			assert.Len(t, emailsvc.SentMessages, 1, "welcome email")
		})
	}
}

func Test_memberApi_query(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateAdmin(t, env.usrRepo, "Nick", "fury@test.cd")
	steve := testutil.CreateMember(t, env.usrRepo, user.RoleInstructor, "Steve", "Rogers", "steve@test.cd", "", user.StatusActivated)
	tony := testutil.CreateMember(t, env.usrRepo, user.RoleInstructor, "Tony", "Stark", "tony@test.cd", "", user.StatusDeactivated)
	bruce := testutil.CreateMember(t, env.usrRepo, user.RoleInstructor, "Bruce", "Banner", "bruce@test.cd", "", user.StatusDeactivated)
	kid := testutil.CreateStudent(t, env.usrRepo, "Kid", "kid@test.cd", user.StatusActivated)

	adminToken := env.token(t, admin)

	tests := []httpTest{
		{name: "auth required", path: "/instructors", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/instructors", token: env.token(t, steve.User),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "all", path: "/instructors", token: adminToken, wantData: marchallList(t, steve, tony, bruce)},
		{name: "search", path: "/instructors?search=STAR", token: adminToken, wantData: marchallList(t, tony)},
		{name: "status", path: "/instructors?status=deactivated", token: adminToken, wantData: marchallList(t, tony, bruce)},
		{name: "search (unknown)", path: "/instructors?search=thanos", token: adminToken, wantData: marchallList(t)},
		{
			name: "order by first_name", path: "/instructors?ordering=first_name", token: adminToken,
			wantData: marchallList(t, bruce, steve, tony),
		},
		{
			name: "order by -status,last_name", path: "/instructors?ordering=-status,last_name", token: adminToken,
			wantData: marchallList(t, bruce, tony, steve),
		},
		{name: "students", path: "/students", token: adminToken, wantData: marchallList(t, kid)},
		{name: "retrieve", path: fmt.Sprintf("/instructors/%d", tony.ID), token: adminToken, wantData: marchallObj(t, tony)},
		{
			name: "retrieve (unknown)", path: fmt.Sprintf("/students/%d", tony.ID+100), token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "retrieve (malformed id)", path: "/students/lol", token: adminToken, wantCode: http.StatusNotFound},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
	}
	runHttpTests(t, env, tests)
}

func Test_memberApi_activateDeactivate(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateAdmin(t, env.usrRepo, "Maria", "hill@test.cd")
	wanda := testutil.CreateInstructor(t, env.usrRepo, "Wanda", "wanda@test.cd", user.StatusDeactivated)
	adminToken := env.token(t, admin)

	activated, deactivated := wanda, wanda
	activated.Status = user.StatusActivated
	deactivated.Status = user.StatusDeactivated

	path := func(action string) string {
		return fmt.Sprintf("/instructors/%d/%s", wanda.ID, action)
	}

	tests := []httpTest{
		{name: "admin required", path: path("activate"), token: env.token(t, wanda.User), wantCode: http.StatusForbidden},
		{name: "activate", path: path("activate"), token: adminToken, wantData: marchallObj(t, activated), extra: 1},
		{name: "activate again is a no-op", path: path("activate"), token: adminToken, wantData: marchallObj(t, activated), extra: 0},
		{name: "deactivate", path: path("deactivate"), token: adminToken, wantData: marchallObj(t, deactivated), extra: 1},
		{name: "deactivate again is a no-op", path: path("deactivate"), token: adminToken, wantData: marchallObj(t, deactivated), extra: 0},
		{name: "wrong role", path: fmt.Sprintf("/students/%d/activate", wanda.ID), token: adminToken, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ResetSentMessages()
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)
			if wantSent, ok := tt.extra.(int); ok {
				assert.Len(t, emailsvc.SentMessages, wantSent, "status emails")
			}
		})
	}
}

func Test_memberApi_delete(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateAdmin(t, env.usrRepo, "Phil", "coulson@test.cd")
	vision := testutil.CreateInstructor(t, env.usrRepo, "Vision", "vision@test.cd", user.StatusActivated)
	adminToken := env.token(t, admin)
	path := fmt.Sprintf("/instructors/%d/delete", vision.ID)

	tests := []httpTest{
		{name: "auth required", path: path, wantCode: http.StatusUnauthorized},
		{name: "admin required", path: path, token: env.token(t, vision.User), wantCode: http.StatusForbidden},
		{name: "deleted", path: path, token: adminToken, wantCode: http.StatusNoContent},
		{name: "already deleted", path: path, token: adminToken, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete
		t.Run(tt.name, func(t *testing.T) {
			rec := env.serve(tt)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	// the owning user & its profile are gone too
	_, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: vision.User.ID})
	assert.Equal(t, user.ErrNotFound, err)
	_, err = env.usrRepo.GetUser(context.Background(), user.GetFilter{Email: vision.User.Email})
	assert.Equal(t, user.ErrNotFound, err)
}

func Test_memberApi_register_ignoresAvatar(t *testing.T) {
	env := setup(t)

	body := []byte(`{"first_name":"Gwen","last_name":"Stacy","email":"gwen@test.cd","password":"Sp1d3r-S3ns3!",` +
		`"profile":{"bio":"Drummer","avatar":"https://evil.test/tracker.png"}}`)
	req, rec := newRequest(http.MethodPost, "/students/register", body)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var mbr user.Member
	unmarshall(t, rec, &mbr)
	usr, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: mbr.User.ID})
	require.NoError(t, err)
	require.NotNil(t, usr.Profile)
	assert.Equal(t, "Drummer", usr.Profile.Bio.String)
	assert.False(t, usr.Profile.Avatar.Valid, "avatars are only set by upload")
}
