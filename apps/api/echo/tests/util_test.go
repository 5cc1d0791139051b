package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/jifunze/jifunze/apps/api/echo"
	"github.com/jifunze/jifunze/core"
	"github.com/jifunze/jifunze/core/course"
	"github.com/jifunze/jifunze/core/enrolment"
	"github.com/jifunze/jifunze/core/user"
	"github.com/jifunze/jifunze/core/videosession"
	emailsvc "github.com/jifunze/jifunze/services/email"
	filesvc "github.com/jifunze/jifunze/services/storage"
	inmemdb "github.com/jifunze/jifunze/storage/database/inmem"
	testutil "github.com/jifunze/jifunze/tests"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}
	errUnauthorized = httpErr{Error: "user not authenticated"}
	errForbidden    = httpErr{Error: "permission denied"}
)

// testEnv is a server wired on a fresh in-memory store.
type testEnv struct {
	conf        *core.Config
	app         *Server
	usrRepo     user.Repository
	courseRepo  course.Repository
	enrolRepo   enrolment.Repository
	sessionRepo videosession.Repository
}

func setup(t *testing.T) *testEnv {
	conf := testutil.Config()
	logger := testutil.Logger(conf)
	validate, translator := testutil.Validator()
	emailsvc.ResetSentMessages()

	// set up DB & repos
	db := testutil.OpenDB()
	env := &testEnv{
		conf:        conf,
		usrRepo:     inmemdb.NewUserRepository(db),
		courseRepo:  inmemdb.NewCourseRepository(db),
		enrolRepo:   inmemdb.NewEnrolmentRepository(db),
		sessionRepo: inmemdb.NewSessionRepository(db),
	}

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(env.usrRepo, mailSvc, filesvc.NewMemoryStorage(conf), conf)
	courseSvc := course.NewService(env.courseRepo, env.usrRepo)

	// set up server
	env.app = NewServer(ServerDeps{
		Conf:         conf,
		Logger:       logger,
		UserSvc:      usrSvc,
		CourseSvc:    courseSvc,
		EnrolmentSvc: enrolment.NewService(env.enrolRepo, courseSvc),
		SessionSvc:   videosession.NewService(env.sessionRepo, courseSvc, conf),
		Validate:     validate,
		Translator:   translator,
	})
	t.Cleanup(func() { _ = env.app.Close() })
	return env
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (env *testEnv) serve(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	env.app.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) token(t *testing.T, usr user.User, tokenType ...string) string {
	typ := TokenTypeAccess
	if len(tokenType) > 0 {
		typ = tokenType[0]
	}
	token, err := GenerateToken(GetUserClaims(usr, typ, env.conf), env.conf)
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), obj), rec.Body.String())
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHttpTests(t *testing.T, env *testEnv, tests []httpTest) {
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)
		})
	}
}
