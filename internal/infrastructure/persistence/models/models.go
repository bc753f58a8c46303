package models

import "time"

// UserModel 数据库用户模型
type UserModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false"`
	Username    string    `gorm:"size:64"`
	FirstName   string    `gorm:"size:128"`
	LastName    string    `gorm:"size:128"`
	DisplayName string    `gorm:"size:256"`
	JoinDate    time.Time `gorm:"index"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// HistoryModel 数据库历史记录模型
type HistoryModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    int64     `gorm:"index;not null"`
	Message   string    `gorm:"type:text;not null"`
	Type      string    `gorm:"size:32;not null"` // user_message, admin_reply
	Timestamp time.Time `gorm:"index"`
}

// TableName 指定表名
func (HistoryModel) TableName() string {
	return "user_history"
}

// BanModel 数据库封禁模型
type BanModel struct {
	UserID      int64  `gorm:"primaryKey;autoIncrement:false"`
	Username    string `gorm:"size:64"`
	DisplayName string `gorm:"size:256"`
	Reason      string `gorm:"type:text"`
	BanDate     time.Time
}

// TableName 指定表名
func (BanModel) TableName() string {
	return "banlist"
}

// BroadcastModel 数据库广播模型
type BroadcastModel struct {
	ID         string `gorm:"primaryKey;size:32"`
	CreatedAt  time.Time
	Recipients []BroadcastRecipientModel `gorm:"foreignKey:BroadcastID;constraint:OnDelete:CASCADE"`
}

// TableName 指定表名
func (BroadcastModel) TableName() string {
	return "broadcasts"
}

// BroadcastRecipientModel 广播接收记录
type BroadcastRecipientModel struct {
	ID          uint   `gorm:"primaryKey"`
	BroadcastID string `gorm:"index;size:32;not null"`
	Position    int    `gorm:"not null"` // 发送顺序
	UserID      int64  `gorm:"not null"`
	MessageID   int    `gorm:"not null"`
}

// TableName 指定表名
func (BroadcastRecipientModel) TableName() string {
	return "broadcast_recipients"
}

// ForwardMappingModel 转发消息 → 用户
type ForwardMappingModel struct {
	StaffMessageID int   `gorm:"primaryKey;autoIncrement:false"`
	UserID         int64 `gorm:"index;not null"`
}

// TableName 指定表名
func (ForwardMappingModel) TableName() string {
	return "forward_mappings"
}

// ReplyMappingModel 管理员回复 → 已投递消息
type ReplyMappingModel struct {
	StaffMessageID int   `gorm:"primaryKey;autoIncrement:false"`
	UserID         int64 `gorm:"not null"`
	MessageID      int   `gorm:"not null"`
}

// TableName 指定表名
func (ReplyMappingModel) TableName() string {
	return "reply_mappings"
}
