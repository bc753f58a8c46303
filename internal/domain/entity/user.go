package entity

import (
	"fmt"
	"strings"
	"time"
)

// DisplayUserOffset is added to the real user count wherever a user total is
// shown to staff or on the dashboard.
const DisplayUserOffset = 1200

// NoUsername is shown in place of a missing Telegram handle.
const NoUsername = "No username"

// DisplayedUserCount applies DisplayUserOffset to a stored user count.
func DisplayedUserCount(stored int) int {
	return DisplayUserOffset + stored
}

// User 用户实体
type User struct {
	id        int64
	username  string
	firstName string
	lastName  string
	joinDate  time.Time
}

// NewUser 创建新用户（工厂方法）
func NewUser(id int64, username, firstName, lastName string, joinDate time.Time) (*User, error) {
	if id == 0 {
		return nil, ErrInvalidUserID
	}
	if username == NoUsername {
		username = ""
	}

	return &User{
		id:        id,
		username:  username,
		firstName: firstName,
		lastName:  lastName,
		joinDate:  joinDate,
	}, nil
}

// ReconstructUser 从持久化数据重建用户（不做校验）
func ReconstructUser(id int64, username, firstName, lastName string, joinDate time.Time) *User {
	if username == NoUsername {
		username = ""
	}
	return &User{
		id:        id,
		username:  username,
		firstName: firstName,
		lastName:  lastName,
		joinDate:  joinDate,
	}
}

// ID 返回用户ID
func (u *User) ID() int64 {
	return u.id
}

// Username returns the Telegram handle without the leading "@", or "".
func (u *User) Username() string {
	return u.username
}

// Handle returns the username or the NoUsername placeholder.
func (u *User) Handle() string {
	if u.username == "" {
		return NoUsername
	}
	return u.username
}

// FirstName 返回名
func (u *User) FirstName() string {
	return u.firstName
}

// LastName 返回姓
func (u *User) LastName() string {
	return u.lastName
}

// JoinDate is refreshed on every upsert.
func (u *User) JoinDate() time.Time {
	return u.joinDate
}

// DisplayName derives a readable name: "first last", then the username,
// then "User_<id>".
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.firstName + " " + u.lastName); name != "" {
		return name
	}
	if u.username != "" {
		return u.username
	}
	return fmt.Sprintf("User_%d", u.id)
}
