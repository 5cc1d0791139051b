package tests

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/jifunze/jifunze/apps/api/echo"
	"github.com/jifunze/jifunze/core/user"
	emailsvc "github.com/jifunze/jifunze/services/email"
	testutil "github.com/jifunze/jifunze/tests"
)

func Test_accountApi_obtainToken(t *testing.T) {
	env := setup(t)

	pwd := "Wak4nd4-F0r3v3r"
	student := testutil.CreateMember(t, env.usrRepo, user.RoleStudent, "Shuri", "Udaku", "shuri@test.cd", pwd, user.StatusActivated)
	inactive := testutil.CreateUser(t, env.usrRepo, "Killmonger", "Stevens", "erik@test.cd", pwd, false, false)

	body := func(email, pwd string) []byte {
		return marchallObj(t, TokenRequest{Email: email, Password: pwd})
	}
	authFailed := marchallObj(t, httpErr{Error: "authentication failed"})

	tests := []httpTest{
		{name: "email required", body: body("", pwd), wantCode: http.StatusUnprocessableEntity},
		{name: "unknown email", body: body("nakia@test.cd", pwd), wantCode: http.StatusBadRequest, wantData: authFailed},
		{name: "wrong password", body: body(student.User.Email, "lol"), wantCode: http.StatusBadRequest, wantData: authFailed},
		{
			name: "inactive account", body: body(inactive.Email, pwd), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "email is case insensitive", body: body(" SHURI@test.cd ", pwd)},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/token"
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp TokenResponse
				unmarshall(t, rec, &resp)
				assert.NotEmpty(t, resp.Access)
				assert.NotEmpty(t, resp.Refresh)

				usr, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: student.User.ID})
				require.NoError(t, err)
				assert.False(t, usr.LastLogin.IsZero(), "last login must be set")
			}
		})
	}
}

func Test_accountApi_refreshToken(t *testing.T) {
	env := setup(t)

	student := testutil.CreateStudent(t, env.usrRepo, "Okoye", "okoye@test.cd", user.StatusActivated)
	inactive := testutil.CreateUser(t, env.usrRepo, "Klaue", "Ulysses", "klaue@test.cd", "", false, false)

	refreshToken := env.token(t, student.User, TokenTypeRefresh)
	accessToken := env.token(t, student.User)

	body := func(token string) []byte {
		return marchallObj(t, TokenRefreshRequest{Refresh: token})
	}

	tests := []httpTest{
		{name: "refresh required", body: body(""), wantCode: http.StatusUnprocessableEntity},
		{name: "garbage token", body: body("lol.lol.lol"), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)},
		{name: "access token cannot refresh", body: body(accessToken), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)},
		{
			name: "inactive account", body: body(env.token(t, inactive, TokenTypeRefresh)), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "refreshed", body: body(refreshToken)},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/token/refresh"
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp TokenResponse
				unmarshall(t, rec, &resp)
				assert.NotEmpty(t, resp.Access)
				assert.Empty(t, resp.Refresh)
			}
		})
	}
}

func Test_accountApi_me(t *testing.T) {
	env := setup(t)

	student := testutil.CreateStudent(t, env.usrRepo, "Nakia", "nakia@test.cd", user.StatusActivated)
	inactive := testutil.CreateUser(t, env.usrRepo, "Zuri", "Elder", "zuri@test.cd", "", false, false)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "garbage token", token: "lol", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)},
		{
			name: "refresh token is not a bearer token", token: env.token(t, student.User, TokenTypeRefresh),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken),
		},
		{name: "inactive user", token: env.token(t, inactive), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errUnauthorized)},
		{name: "me", token: env.token(t, student.User), wantData: marchallObj(t, student.User)},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
		tests[i].path = "/accounts/me/" // trailing slashes are stripped
	}
	runHttpTests(t, env, tests)
}

func Test_accountApi_resetPassword(t *testing.T) {
	env := setup(t)

	student := testutil.CreateStudent(t, env.usrRepo, "Ramonda", "ramonda@test.cd", user.StatusActivated)
	success := marchallObj(t, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})

	tests := []httpTest{
		{name: "invalid email", body: marchallObj(t, PasswordResetRequest{Email: "lol"}), wantCode: http.StatusUnprocessableEntity},
		{name: "unknown email", body: marchallObj(t, PasswordResetRequest{Email: "mbaku@test.cd"}), wantData: success, extra: 0},
		{name: "known email", body: marchallObj(t, PasswordResetRequest{Email: student.User.Email}), wantData: success, extra: 1},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/accounts/password-reset"
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ResetSentMessages()
			rec := env.serve(tt)
			checkCodeAndData(t, tt, rec)
			if wantSent, ok := tt.extra.(int); ok {
				assert.Len(t, emailsvc.SentMessages, wantSent)
			}
		})
	}
}

func Test_accountApi_confirmPasswordReset(t *testing.T) {
	env := setup(t)

	student := testutil.CreateStudent(t, env.usrRepo, "T'Challa", "tchalla@test.cd", user.StatusActivated)

	// request a reset to get a valid uid & token from the email
	req, rec := newRequest(http.MethodPost, "/accounts/password-reset", marchallObj(t, PasswordResetRequest{Email: student.User.Email}))
	emailsvc.ResetSentMessages()
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, emailsvc.SentMessages, 1)

	match := regexp.MustCompile(`/password-reset/([^/\s]+)/([^/\s]+)`).FindStringSubmatch(emailsvc.SentMessages[0].TextContent)
	require.Len(t, match, 3, "reset link not found in email")
	uid, token := match[1], match[2]

	newPwd := "V1br4n1um-H34rt"
	body := func(uid, token, pwd, confirm string) []byte {
		return marchallObj(t, user.ResetUserPassword{UID: uid, Token: token, Password: pwd, PasswordConfirm: confirm})
	}

	tests := []httpTest{
		{name: "passwords mismatch", body: body(uid, token, newPwd, "lol"), wantCode: http.StatusUnprocessableEntity},
		{
			name: "invalid uid", body: body("lol", token, newPwd, newPwd), wantCode: http.StatusUnprocessableEntity,
			wantData: []byte(`{"uid":"invalid value"}`),
		},
		{
			name: "invalid token", body: body(uid, "lol-lol", newPwd, newPwd), wantCode: http.StatusUnprocessableEntity,
			wantData: []byte(`{"token":"invalid value"}`),
		},
		{name: "password reset", body: body(uid, token, newPwd, newPwd)},
		{
			name: "token is single use", body: body(uid, token, newPwd, newPwd), wantCode: http.StatusUnprocessableEntity,
			wantData: []byte(`{"token":"invalid value"}`),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/accounts/password-reset-confirm"
	}
	runHttpTests(t, env, tests)

	usr, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: student.User.ID})
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword(newPwd))
}

func Test_accountApi_setAvatar(t *testing.T) {
	env := setup(t)

	student := testutil.CreateStudent(t, env.usrRepo, "M'Baku", "mbaku@test.cd", user.StatusActivated)
	admin := testutil.CreateAdmin(t, env.usrRepo, "Everett", "ross@test.cd")

	upload := func(token, contentType string, content []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		if content != nil {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", `form-data; name="avatar"; filename="avatar"`)
			h.Set("Content-Type", contentType)
			part, err := w.CreatePart(h)
			require.NoError(t, err)
			_, err = part.Write(content)
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPut, "/accounts/me/avatar", &body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.app.ServeHTTP(rec, req)
		return rec
	}
	png := []byte("\x89PNG\r\n\x1a\n")

	t.Run("file required", func(t *testing.T) {
		rec := upload(env.token(t, student.User), "", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"avatar":"No file was submitted."}`, rec.Body.String())
	})
	t.Run("images only", func(t *testing.T) {
		rec := upload(env.token(t, student.User), "text/plain", []byte("lol"))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"avatar":"upload a valid image (jpeg, png, gif or webp)"}`, rec.Body.String())
	})
	t.Run("profile required", func(t *testing.T) {
		rec := upload(env.token(t, admin), "image/png", png)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
	t.Run("avatar set", func(t *testing.T) {
		rec := upload(env.token(t, student.User), "image/png", png)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var usr user.User
		unmarshall(t, rec, &usr)
		require.NotNil(t, usr.Profile)
		assert.True(t, strings.HasPrefix(usr.Profile.Avatar.String, env.conf.Storage.PublicBaseURL+"/avatars/"))
		assert.True(t, strings.HasSuffix(usr.Profile.Avatar.String, ".png"))
	})
}
