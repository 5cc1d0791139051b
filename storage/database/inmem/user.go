package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/jifunze/jifunze/core"
	"github.com/jifunze/jifunze/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

// user must be called with a lock held.
func (repo *userRepository) user(id int) (user.User, bool) {
	u, ok := repo.db.users[id]
	if !ok {
		return user.User{}, false
	}
	usr := *u
	if prof, ok := repo.db.profiles[id]; ok {
		p := *prof
		usr.Profile = &p
	}
	return usr, true
}

func (repo *userRepository) member(role user.Role, row *memberRow) user.Member {
	usr, _ := repo.user(row.UserID)
	return user.Member{ID: row.ID, Role: role, Status: row.Status, User: usr}
}

func (repo *userRepository) emailTaken(email string, excludedUsers ...user.User) bool {
	for _, u := range repo.db.users {
		if u.Email == email && !isExcluded(u.ID, excludedUsers) {
			return true
		}
	}
	return false
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.emailTaken(email, excludedUsers...) {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) insertUser(usr user.User) user.User {
	usr.ID = repo.db.nextID("users")
	prof := usr.Profile
	usr.Profile = nil
	repo.db.users[usr.ID] = &usr
	if prof != nil {
		p := *prof
		repo.db.profiles[usr.ID] = &p
	}
	created, _ := repo.user(usr.ID)
	return created
}

func (repo *userRepository) CreateAccount(_ context.Context, usr user.User, status user.Status) (user.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if usr.Profile == nil || !usr.Profile.Role.IsValid() {
		return user.Member{}, user.ErrInvalidRole
	}
	if repo.emailTaken(usr.Email) {
		return user.Member{}, user.ErrEmailExists
	}

	usr = repo.insertUser(usr)
	role := usr.Profile.Role
	row := &memberRow{ID: repo.db.nextID(string(role)), UserID: usr.ID, Status: status}
	repo.db.members(role)[row.ID] = row
	return repo.member(role, row), nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.emailTaken(usr.Email) {
		return user.User{}, user.ErrEmailExists
	}
	return repo.insertUser(usr), nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != 0 {
		if usr, ok := repo.user(filter.ID); ok {
			return usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Email != "" {
		for id, u := range repo.db.users {
			if u.Email == filter.Email {
				usr, _ := repo.user(id)
				return usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	if repo.emailTaken(usr.Email, usr) {
		return user.User{}, user.ErrEmailExists
	}
	u := usr
	u.Profile = nil
	repo.db.users[usr.ID] = &u
	updated, _ := repo.user(usr.ID)
	return updated, nil
}

func (repo *userRepository) UpdateProfile(_ context.Context, userID int, prof user.Profile) (user.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.profiles[userID]; !ok {
		return user.Profile{}, user.ErrNotFound
	}
	repo.db.profiles[userID] = &prof
	return prof, nil
}

func (repo *userRepository) QueryMembers(_ context.Context, role user.Role, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	members := make([]user.Member, 0, len(repo.db.members(role)))
	for _, row := range repo.db.members(role) {
		mbr := repo.member(role, row)
		if filter != nil {
			if filter.Status != "" && mbr.Status != filter.Status {
				continue
			}
			if filter.Search != "" && !matchesMember(mbr, filter.Search) {
				continue
			}
		}
		members = append(members, mbr)
	}

	sort.SliceStable(members, func(i, j int) bool {
		return lessMember(members[i], members[j], ordering)
	})
	return members, nil
}

func (repo *userRepository) GetMember(_ context.Context, role user.Role, filter user.MemberFilter) (user.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, row := range repo.db.members(role) {
		if (filter.ID != 0 && row.ID == filter.ID) || (filter.ID == 0 && filter.UserID != 0 && row.UserID == filter.UserID) {
			return repo.member(role, row), nil
		}
	}
	return user.Member{}, user.ErrMemberNotFound
}

func (repo *userRepository) SetMemberStatus(_ context.Context, role user.Role, id int, status user.Status) (user.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.members(role)[id]
	if !ok {
		return user.Member{}, user.ErrMemberNotFound
	}
	row.Status = status
	return repo.member(role, row), nil
}

func (repo *userRepository) DeleteUser(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.users[id]; !ok {
		return user.ErrNotFound
	}
	repo.db.deleteUser(id)
	return nil
}

func isExcluded(id int, excludedUsers []user.User) bool {
	for _, u := range excludedUsers {
		if u.ID == id {
			return true
		}
	}
	return false
}

func matchesMember(mbr user.Member, search string) bool {
	search = strings.ToLower(search)
	for _, val := range []string{mbr.User.FirstName, mbr.User.LastName, mbr.User.Email} {
		if strings.Contains(strings.ToLower(val), search) {
			return true
		}
	}
	return false
}

func lessMember(a, b user.Member, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		var cmp int
		switch ord.Field {
		case "m.id":
			cmp = compareInts(a.ID, b.ID)
		case "m.status":
			cmp = strings.Compare(string(a.Status), string(b.Status))
		case "u.email":
			cmp = strings.Compare(a.User.Email, b.User.Email)
		case "u.first_name":
			cmp = strings.Compare(a.User.FirstName, b.User.FirstName)
		case "u.last_name":
			cmp = strings.Compare(a.User.LastName, b.User.LastName)
		case "u.date_joined":
			cmp = compareTimes(a.User.DateJoined, b.User.DateJoined)
		}
		if cmp != 0 {
			return (cmp < 0) == ord.Ascending
		}
	}
	return a.ID < b.ID
}
