package user

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/jifunze/jifunze/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("user not found")
	ErrMemberNotFound = core.NewNotFoundError("not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrInvalidRole    = errors.New("invalid role")

	avatarContentTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/gif":  ".gif",
		"image/webp": ".webp",
	}
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		// CreateAccount inserts the User, its Profile and its role record in one transaction.
		CreateAccount(ctx context.Context, usr User, status Status) (Member, error)
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		UpdateProfile(ctx context.Context, userID int, prof Profile) (Profile, error)
		QueryMembers(ctx context.Context, role Role, filter *QueryFilter, ordering []core.DBOrdering) ([]Member, error)
		GetMember(ctx context.Context, role Role, filter MemberFilter) (Member, error)
		SetMemberStatus(ctx context.Context, role Role, id int, status Status) (Member, error)
		// DeleteUser deletes the User along with its Profile and role record.
		DeleteUser(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		CheckEmailUniqueness(ctx context.Context, email string, exclUsers ...User) error
		Register(ctx context.Context, role Role, na NewAccount) (Member, error)
		CreateSuperuser(ctx context.Context, ns NewSuperuser) (User, bool, error)
		GetByID(ctx context.Context, id int) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
		ResolvePrincipal(ctx context.Context, userID int) (Principal, error)
		QueryMembers(ctx context.Context, role Role, filter *QueryFilter, ordering []core.DBOrdering) ([]Member, error)
		GetMember(ctx context.Context, role Role, id int) (Member, error)
		Activate(ctx context.Context, role Role, id int) (Member, error)
		Deactivate(ctx context.Context, role Role, id int) (Member, error)
		DeleteMember(ctx context.Context, role Role, id int) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) error
		SetAvatar(ctx context.Context, usr User, file io.Reader, size int64, contentType string) (User, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		storage core.FileStorage
		conf    *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, storage core.FileStorage, conf *core.Config) *Service {
	secretKey = []byte(conf.SecretKey)
	passwordResetTimeoutDelta = conf.PasswordResetTimeoutDelta
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		storage: storage,
		conf:    conf,
	}
}

func (svc *Service) CheckEmailUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return errors.Wrap(err, "checking email uniqueness")
	}
	return nil
}

// Register creates a User, its Profile and its role record.
func (svc *Service) Register(ctx context.Context, role Role, na NewAccount) (Member, error) {
	if !role.IsValid() {
		return Member{}, ErrInvalidRole
	}
	nu := na.User
	usr := User{
		FirstName:  nu.FirstName,
		LastName:   nu.LastName,
		Email:      nu.Email,
		IsActive:   true,
		DateJoined: time.Now().UTC(),
		Profile: &Profile{
			Role: role,
			Bio:  null.NewString(nu.Profile.Bio, nu.Profile.Bio != ""),
		},
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return Member{}, errors.Wrap(err, "setting password")
	}

	mbr, err := svc.repo.CreateAccount(ctx, usr, role.DefaultStatus())
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return Member{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return Member{}, errors.Wrap(err, "creating account")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: mbr.User.FullName(), Address: mbr.User.Email}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: welcomeData{
			Name:              mbr.User.FullName(),
			Role:              string(role),
			PendingActivation: !mbr.IsActivated(),
		},
	})
	return mbr, nil
}

// CreateSuperuser creates an administrator. It returns false when the email is already taken.
func (svc *Service) CreateSuperuser(ctx context.Context, ns NewSuperuser) (User, bool, error) {
	if usr, err := svc.repo.GetUser(ctx, GetFilter{Email: ns.Email}); err == nil {
		return usr, false, nil
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, false, errors.Wrap(err, "finding user by email")
	}

	usr := User{
		FirstName:   ns.FirstName,
		LastName:    ns.LastName,
		Email:       ns.Email,
		IsStaff:     true,
		IsActive:    true,
		IsSuperuser: true,
		DateJoined:  time.Now().UTC(),
	}
	if err := usr.SetPassword(ns.Password); err != nil {
		return User{}, false, errors.Wrap(err, "setting password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, false, errors.Wrap(err, "creating user")
	}
	return usr, true, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.UpdateUser(ctx, usr)
}

// ResolvePrincipal loads the user and, when it has a profile, the matching role record.
func (svc *Service) ResolvePrincipal(ctx context.Context, userID int) (Principal, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: userID})
	if err != nil {
		return Anonymous, err
	}
	if usr.Profile == nil || !usr.Profile.Role.IsValid() {
		return NewPrincipal(usr, nil), nil
	}

	mbr, err := svc.repo.GetMember(ctx, usr.Profile.Role, MemberFilter{UserID: usr.ID})
	if err != nil {
		if errors.Cause(err) == ErrMemberNotFound {
			return NewPrincipal(usr, nil), nil
		}
		return Anonymous, errors.Wrap(err, "finding role record")
	}
	return NewPrincipal(usr, &mbr), nil
}

func (svc *Service) QueryMembers(ctx context.Context, role Role, filter *QueryFilter, ordering []core.DBOrdering) ([]Member, error) {
	return svc.repo.QueryMembers(ctx, role, filter, core.CleanOrdering(ordering, OrderingFields, DefaultOrdering...))
}

func (svc *Service) GetMember(ctx context.Context, role Role, id int) (Member, error) {
	return svc.repo.GetMember(ctx, role, MemberFilter{ID: id})
}

func (svc *Service) Activate(ctx context.Context, role Role, id int) (Member, error) {
	return svc.setStatus(ctx, role, id, StatusActivated)
}

func (svc *Service) Deactivate(ctx context.Context, role Role, id int) (Member, error) {
	return svc.setStatus(ctx, role, id, StatusDeactivated)
}

// setStatus is idempotent: an unchanged status is reported as success without a write.
func (svc *Service) setStatus(ctx context.Context, role Role, id int, status Status) (Member, error) {
	mbr, err := svc.repo.GetMember(ctx, role, MemberFilter{ID: id})
	if err != nil {
		return Member{}, err
	}
	if mbr.Status == status {
		return mbr, nil
	}

	mbr, err = svc.repo.SetMemberStatus(ctx, role, id, status)
	if err != nil {
		return Member{}, errors.Wrapf(err, "setting %s status", role)
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: mbr.User.FullName(), Address: mbr.User.Email}},
		Subject:      "Account " + string(status),
		TemplateName: "account_status",
		TemplateData: statusData{Name: mbr.User.FullName(), Role: string(role), Status: string(status)},
	})
	return mbr, nil
}

// DeleteMember deletes the role record together with its owning User and Profile.
func (svc *Service) DeleteMember(ctx context.Context, role Role, id int) error {
	mbr, err := svc.repo.GetMember(ctx, role, MemberFilter{ID: id})
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteUser(ctx, mbr.User.ID); err != nil {
		return errors.Wrapf(err, "deleting %s", role)
	}
	return nil
}

func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return nil
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: passwordResetData{Name: usr.FullName(), UID: EncodeUID(usr), Token: MakeToken(usr)},
	})
	return nil
}

func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	invalidValue := "invalid value"

	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "uid", Error: invalidValue})
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "uid", Error: invalidValue})
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: invalidValue})
	}
	_, err = svc.SetPassword(ctx, usr, rp.Password)
	return err
}

// SetAvatar uploads the avatar image of a user with a profile and stores its URL.
func (svc *Service) SetAvatar(ctx context.Context, usr User, file io.Reader, size int64, contentType string) (User, error) {
	if usr.Profile == nil {
		return User{}, core.NewFieldError("avatar", "only instructors and students have an avatar")
	}
	ext, ok := avatarContentTypes[strings.ToLower(contentType)]
	if !ok {
		return User{}, core.NewFieldError("avatar", "upload a valid image (jpeg, png, gif or webp)")
	}
	if maxSize := svc.conf.Storage.MaxAvatarSize; maxSize > 0 && size > maxSize {
		return User{}, core.NewFieldError("avatar", fmt.Sprintf("image must not exceed %d bytes", maxSize))
	}

	key := path.Join("avatars", uuid.New().String()+ext)
	url, err := svc.storage.Save(ctx, key, file, size, contentType)
	if err != nil {
		return User{}, errors.Wrap(err, "saving avatar")
	}

	prof := *usr.Profile
	prof.Avatar = null.StringFrom(url)
	updated, err := svc.repo.UpdateProfile(ctx, usr.ID, prof)
	if err != nil {
		return User{}, errors.Wrap(err, "updating profile")
	}
	usr.Profile = &updated
	return usr, nil
}

type (
	welcomeData struct {
		Name              string
		Role              string
		PendingActivation bool
	}

	statusData struct {
		Name   string
		Role   string
		Status string
	}

	passwordResetData struct {
		Name  string
		UID   string
		Token string
	}
)
