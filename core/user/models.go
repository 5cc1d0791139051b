package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/jifunze/jifunze/core"
)

type Role string

const (
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

var Roles = []Role{RoleInstructor, RoleStudent}

func (r Role) IsValid() bool {
	return r == RoleInstructor || r == RoleStudent
}

// DefaultStatus is the status a freshly registered member starts with.
// Instructors wait for an administrator before they may author content.
func (r Role) DefaultStatus() Status {
	if r == RoleInstructor {
		return StatusDeactivated
	}
	return StatusActivated
}

type Status string

const (
	StatusActivated   Status = "activated"
	StatusDeactivated Status = "deactivated"
)

type User struct {
	ID           int       `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	IsStaff      bool      `json:"-"`
	IsActive     bool      `json:"-"`
	IsSuperuser  bool      `json:"-"`
	DateJoined   time.Time `json:"-"` // UTC
	LastLogin    time.Time `json:"-"` // UTC
	Profile      *Profile  `json:"profile"`
}

func (u *User) FullName() string {
	return core.CleanString(u.FirstName + " " + u.LastName)
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

type Profile struct {
	Role   Role        `json:"role"`
	Bio    null.String `json:"bio"`
	Avatar null.String `json:"avatar"`
}

// Member is an Instructor or a Student record, depending on its Role.
type Member struct {
	ID     int    `json:"id"`
	Role   Role   `json:"-"`
	Status Status `json:"status"`
	User   User   `json:"user"`
}

func (m Member) IsActivated() bool {
	return m.Status == StatusActivated
}

// NewAccount is the registration payload of an instructor or a student.
type NewAccount struct {
	User NewUser `json:"user"`
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	FirstName string     `json:"first_name" validate:"required,max=150"`
	LastName  string     `json:"last_name" validate:"required,max=150"`
	Email     string     `json:"email" validate:"required,email,max=255"`
	Password  string     `json:"password" validate:"required"`
	Profile   NewProfile `json:"profile"`
}

// NewProfile holds the profile fields accepted at registration.
// Avatars are only set through an upload once the account exists.
type NewProfile struct {
	Bio string `json:"bio"`
}

func (na *NewAccount) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nu := &na.User
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Profile.Bio = core.CleanString(nu.Profile.Bio)

	if err := validate.Struct(na); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, nu.Email)
}

// NewSuperuser contains information needed to create an administrator.
type NewSuperuser struct {
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required"`
}

func (ns *NewSuperuser) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

// GetFilter selects a single User. The first non-zero field wins.
type GetFilter struct {
	ID    int
	Email string
}

// MemberFilter selects a single Member of a role.
type MemberFilter struct {
	ID     int
	UserID int
}

type QueryFilter struct {
	Search string `query:"search"`
	Status Status `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = Status(core.CleanString(string(qf.Status), true /* lower */))
}

// OrderingFields maps the public ordering fields of members to their columns.
var (
	OrderingFields = map[string]string{
		"id":          "m.id",
		"status":      "m.status",
		"email":       "u.email",
		"first_name":  "u.first_name",
		"last_name":   "u.last_name",
		"date_joined": "u.date_joined",
	}
	DefaultOrdering = []core.DBOrdering{{Field: "m.id", Ascending: true}}
)
