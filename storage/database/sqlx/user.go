package sqlxrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/jifunze/jifunze/core"
	"github.com/jifunze/jifunze/core/user"
)

const (
	userColumns = `u.id, u.first_name, u.last_name, u.email, u.password_hash, u.is_staff, u.is_active,
		u.is_superuser, u.date_joined, u.last_login, p.role, p.bio, p.avatar`
	userFrom = ` FROM users u LEFT JOIN profiles p ON p.user_id = u.id`
)

type (
	userRow struct {
		ID           int         `db:"id"`
		FirstName    string      `db:"first_name"`
		LastName     string      `db:"last_name"`
		Email        string      `db:"email"`
		PasswordHash []byte      `db:"password_hash"`
		IsStaff      bool        `db:"is_staff"`
		IsActive     bool        `db:"is_active"`
		IsSuperuser  bool        `db:"is_superuser"`
		DateJoined   time.Time   `db:"date_joined"`
		LastLogin    null.Time   `db:"last_login"`
		Role         null.String `db:"role"`
		Bio          null.String `db:"bio"`
		Avatar       null.String `db:"avatar"`
	}

	memberRow struct {
		MemberID int    `db:"member_id"`
		Status   string `db:"status"`
		userRow
	}
)

func (row userRow) user() user.User {
	usr := user.User{
		ID:           row.ID,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		IsStaff:      row.IsStaff,
		IsActive:     row.IsActive,
		IsSuperuser:  row.IsSuperuser,
		DateJoined:   row.DateJoined.UTC(),
		LastLogin:    row.LastLogin.Time.UTC(),
	}
	if row.Role.Valid {
		usr.Profile = &user.Profile{Role: user.Role(row.Role.String), Bio: row.Bio, Avatar: row.Avatar}
	}
	if !row.LastLogin.Valid {
		usr.LastLogin = time.Time{}
	}
	return usr
}

func (row memberRow) member(role user.Role) user.Member {
	return user.Member{ID: row.MemberID, Role: role, Status: user.Status(row.Status), User: row.user()}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// memberTable returns the table of `role`. Roles are validated upstream.
func memberTable(role user.Role) string {
	if role == user.RoleInstructor {
		return "instructors"
	}
	return "students"
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	q := "SELECT EXISTS (SELECT 1 FROM users WHERE email = ?"
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]int, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q += " AND id NOT IN (?)"
		args = append(args, ids)
	}
	q += ")"

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}
	var taken bool
	if err = repo.db.GetContext(ctx, &taken, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if taken {
		return user.ErrEmailExists
	}
	return nil
}

func insertUser(ctx context.Context, tx sqlx.ExtContext, usr user.User) (int, error) {
	var id int
	q := `INSERT INTO users (first_name, last_name, email, password_hash, is_staff, is_active, is_superuser, date_joined, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := sqlx.GetContext(ctx, tx, &id, q,
		usr.FirstName, usr.LastName, usr.Email, usr.PasswordHash, usr.IsStaff, usr.IsActive, usr.IsSuperuser,
		usr.DateJoined.UTC(), null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()))
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return 0, user.ErrEmailExists
		}
		return 0, errors.Wrap(err, "inserting user")
	}
	return id, nil
}

func (repo *userRepository) CreateAccount(ctx context.Context, usr user.User, status user.Status) (user.Member, error) {
	if usr.Profile == nil || !usr.Profile.Role.IsValid() {
		return user.Member{}, user.ErrInvalidRole
	}
	role := usr.Profile.Role

	var memberID int
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		userID, err := insertUser(ctx, tx, usr)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO profiles (user_id, role, bio, avatar) VALUES ($1, $2, $3, $4)",
			userID, role, usr.Profile.Bio, usr.Profile.Avatar)
		if err != nil {
			return errors.Wrap(err, "inserting profile")
		}
		q := fmt.Sprintf("INSERT INTO %s (user_id, status) VALUES ($1, $2) RETURNING id", memberTable(role))
		if err = tx.GetContext(ctx, &memberID, q, userID, status); err != nil {
			return errors.Wrapf(err, "inserting %s", role)
		}
		return nil
	})
	if err != nil {
		return user.Member{}, err
	}
	return repo.GetMember(ctx, role, user.MemberFilter{ID: memberID})
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	id, err := insertUser(ctx, repo.db, usr)
	if err != nil {
		return user.User{}, err
	}
	return repo.GetUser(ctx, user.GetFilter{ID: id})
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	q := "SELECT " + userColumns + userFrom
	var arg interface{}
	switch {
	case filter.ID != 0:
		q += " WHERE u.id = $1"
		arg = filter.ID
	case filter.Email != "":
		q += " WHERE u.email = $1"
		arg = filter.Email
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return row.user(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET first_name = $1, last_name = $2, email = $3, password_hash = $4, is_staff = $5,
		is_active = $6, is_superuser = $7, last_login = $8 WHERE id = $9`
	res, err := repo.db.ExecContext(ctx, q,
		usr.FirstName, usr.LastName, usr.Email, usr.PasswordHash, usr.IsStaff, usr.IsActive, usr.IsSuperuser,
		null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()), usr.ID)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err = checkAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
}

func (repo *userRepository) UpdateProfile(ctx context.Context, userID int, prof user.Profile) (user.Profile, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE profiles SET bio = $1, avatar = $2 WHERE user_id = $3", prof.Bio, prof.Avatar, userID)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "updating profile")
	}
	if err = checkAffected(res, user.ErrNotFound); err != nil {
		return user.Profile{}, err
	}
	return prof, nil
}

func memberSelect(role user.Role) string {
	return "SELECT m.id AS member_id, m.status, " + userColumns +
		" FROM " + memberTable(role) + " m JOIN users u ON u.id = m.user_id LEFT JOIN profiles p ON p.user_id = u.id"
}

func (repo *userRepository) QueryMembers(ctx context.Context, role user.Role, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.Member, error) {
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, "(u.first_name ILIKE ? OR u.last_name ILIKE ? OR u.email ILIKE ?)")
			args = append(args, val, val, val)
		}
		if filter.Status != "" {
			conds = append(conds, "m.status = ?")
			args = append(args, filter.Status)
		}
	}

	q := repo.db.Rebind(memberSelect(role) + where(conds) + orderBy(ordering))
	var rows []memberRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrapf(err, "querying %ss", role)
	}
	members := make([]user.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, row.member(role))
	}
	return members, nil
}

func (repo *userRepository) GetMember(ctx context.Context, role user.Role, filter user.MemberFilter) (user.Member, error) {
	q := memberSelect(role)
	var arg int
	switch {
	case filter.ID != 0:
		q += " WHERE m.id = $1"
		arg = filter.ID
	case filter.UserID != 0:
		q += " WHERE m.user_id = $1"
		arg = filter.UserID
	default:
		return user.Member{}, user.ErrMemberNotFound
	}

	var row memberRow
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		return user.Member{}, trapNoRowsErr(err, user.ErrMemberNotFound, "finding "+string(role))
	}
	return row.member(role), nil
}

func (repo *userRepository) SetMemberStatus(ctx context.Context, role user.Role, id int, status user.Status) (user.Member, error) {
	q := fmt.Sprintf("UPDATE %s SET status = $1 WHERE id = $2", memberTable(role))
	res, err := repo.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return user.Member{}, errors.Wrapf(err, "updating %s status", role)
	}
	if err = checkAffected(res, user.ErrMemberNotFound); err != nil {
		return user.Member{}, err
	}
	return repo.GetMember(ctx, role, user.MemberFilter{ID: id})
}

// DeleteUser relies on the ON DELETE CASCADE foreign keys for the rest.
func (repo *userRepository) DeleteUser(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return checkAffected(res, user.ErrNotFound)
}
