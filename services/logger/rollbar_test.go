package logsvc

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jifunze/jifunze/core"
	"github.com/jifunze/jifunze/core/user"
)

func TestRollbarLogger(t *testing.T) {
	conf := core.NewConfig()
	conf.Debug = false // JSON output
	conf.AppName = "Jifunze"
	conf.Env = "TEST"

	var buf bytes.Buffer
	l := NewRollbarLogger(NewZerolog(&buf, conf), conf)
	l.Enable(false)

	usr := user.User{ID: 7, FirstName: "Chimamanda", Email: "adichie@test.cd"}
	l.Error("saving avatar", errors.New("disk full"), map[string]interface{}{"key": "avatars/7.png"}, user.NewPrincipal(usr, nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "saving avatar", entry["message"])
	assert.Equal(t, "disk full", entry["error"])
	assert.Equal(t, "avatars/7.png", entry["key"])
	assert.Equal(t, float64(7), entry["user_id"])
	assert.Equal(t, "user", entry["principal"])
	assert.Equal(t, "Jifunze", entry["app"])
	assert.Equal(t, "TEST", entry["env"])
}

func TestRollbarLogger_prepare(t *testing.T) {
	l := RollbarLogger{}
	usr := user.User{ID: 3, FirstName: "Ben"}
	err := errors.New("lol")

	args := l.prepare("msg", []interface{}{err, usr, user.NewPrincipal(user.User{ID: 4}, nil)})
	assert.Equal(t, []interface{}{"msg", err}, args, "users are reported as the rollbar person, not as extras")
}
