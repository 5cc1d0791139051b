package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jifunze/jifunze/core"
)

func Test_checkPassword(t *testing.T) {
	commonPasswords = []string{"letmein1", "qwerty123"} // sorted

	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "too short in runes", pwd: "ééééééé", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Sp4ce Od1ty", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "31415926535", want: pwdNotAllNumTag},
		{name: "similar to email", pwd: "groot@test.cd", attrs: []string{"Groot", "", "GROOT@test.cd"}, want: pwdAttrSimTag},
		{name: "common", pwd: "QWERTY123", want: pwdNoCommonTag},
		{name: "valid", pwd: "W3-4r3-Gr00t!", attrs: []string{"Groot", "Tree", "groot@test.cd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkPassword(tt.pwd, tt.attrs...))
		})
	}
}

func TestInitValidators(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	err := validate.Struct(NewSuperuser{FirstName: "Rocket", LastName: "Raccoon", Email: "rocket@test.cd", Password: "1234567890"})
	require.Error(t, err)
	vErrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)
	require.Len(t, vErrs, 1)
	assert.Equal(t, "password", vErrs[0].Field())
	assert.Equal(t, pwdNotAllNumText, vErrs[0].Translate(translator))

	err = validate.Struct(NewSuperuser{FirstName: "", LastName: "Raccoon", Email: "lol", Password: "Tr4shP4nd4!"})
	require.Error(t, err)
	fields := map[string]string{}
	for _, fe := range err.(validator.ValidationErrors) {
		fields[fe.Field()] = fe.Translate(translator)
	}
	assert.Equal(t, "this field is required", fields["first_name"])
	assert.Contains(t, fields, "email")
}
