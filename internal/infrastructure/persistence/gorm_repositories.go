package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/relaydesk/relaybot/internal/domain/entity"
	"github.com/relaydesk/relaybot/internal/domain/repository"
	"github.com/relaydesk/relaybot/internal/infrastructure/persistence/models"
	domainErrors "github.com/relaydesk/relaybot/pkg/errors"
)

// === 用户 ===

// GormUserRepository GORM 实现的用户仓储
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository 创建 GORM 用户仓储
func NewGormUserRepository(db *gorm.DB) repository.UserRepository {
	return &GormUserRepository{db: db}
}

// Upsert 创建或覆盖用户
func (r *GormUserRepository) Upsert(ctx context.Context, user *entity.User) error {
	model := &models.UserModel{
		ID:          user.ID(),
		Username:    user.Handle(),
		FirstName:   user.FirstName(),
		LastName:    user.LastName(),
		DisplayName: user.DisplayName(),
		JoinDate:    user.JoinDate(),
	}
	// 使用 Save 支持创建或更新
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to save user", err)
	}
	return nil
}

// FindByID 根据ID查找用户
func (r *GormUserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("user not found")
		}
		return nil, domainErrors.NewInternalErrorWithCause("failed to find user", err)
	}
	return userFromModel(&model), nil
}

// List 列出全部用户
func (r *GormUserRepository) List(ctx context.Context) ([]*entity.User, error) {
	var rows []models.UserModel
	if err := r.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to list users", err)
	}
	users := make([]*entity.User, 0, len(rows))
	for i := range rows {
		users = append(users, userFromModel(&rows[i]))
	}
	return users, nil
}

// Count 统计用户数量
func (r *GormUserRepository) Count(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserModel{}).Count(&count).Error; err != nil {
		return 0, domainErrors.NewInternalErrorWithCause("failed to count users", err)
	}
	return int(count), nil
}

func userFromModel(m *models.UserModel) *entity.User {
	return entity.ReconstructUser(m.ID, m.Username, m.FirstName, m.LastName, m.JoinDate)
}

// === 历史记录 ===

// GormHistoryRepository GORM 实现的历史仓储
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository 创建 GORM 历史仓储
func NewGormHistoryRepository(db *gorm.DB) repository.HistoryRepository {
	return &GormHistoryRepository{db: db}
}

// Append 追加历史记录
func (r *GormHistoryRepository) Append(ctx context.Context, userID int64, entry entity.HistoryEntry) error {
	model := &models.HistoryModel{
		UserID:    userID,
		Message:   entry.Message,
		Type:      string(entry.Type),
		Timestamp: entry.Timestamp,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to append history", err)
	}
	return nil
}

// ListByUser 查询用户历史（按插入顺序）
func (r *GormHistoryRepository) ListByUser(ctx context.Context, userID int64) ([]entity.HistoryEntry, error) {
	var rows []models.HistoryModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to list history", err)
	}

	entries := make([]entity.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, historyFromModel(row))
	}
	return entries, nil
}

// All 查询全部历史
func (r *GormHistoryRepository) All(ctx context.Context) (map[int64][]entity.HistoryEntry, error) {
	var rows []models.HistoryModel
	if err := r.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to load history", err)
	}

	out := make(map[int64][]entity.HistoryEntry)
	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], historyFromModel(row))
	}
	return out, nil
}

func historyFromModel(m models.HistoryModel) entity.HistoryEntry {
	return entity.HistoryEntry{
		Message:   m.Message,
		Type:      entity.HistoryType(m.Type),
		Timestamp: m.Timestamp,
	}
}

// === 封禁 ===

// GormBanRepository GORM 实现的封禁仓储
type GormBanRepository struct {
	db *gorm.DB
}

// NewGormBanRepository 创建 GORM 封禁仓储
func NewGormBanRepository(db *gorm.DB) repository.BanRepository {
	return &GormBanRepository{db: db}
}

// Save 创建或覆盖封禁记录
func (r *GormBanRepository) Save(ctx context.Context, ban *entity.BanRecord) error {
	model := &models.BanModel{
		UserID:      ban.UserID,
		Username:    ban.Username,
		DisplayName: ban.DisplayName,
		Reason:      ban.Reason,
		BanDate:     ban.BanDate,
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to save ban", err)
	}
	return nil
}

// Delete 删除封禁记录
func (r *GormBanRepository) Delete(ctx context.Context, userID int64) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.BanModel{}, "user_id = ?", userID)
	if result.Error != nil {
		return false, domainErrors.NewInternalErrorWithCause("failed to delete ban", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// IsBanned 判断是否被封禁
func (r *GormBanRepository) IsBanned(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BanModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, domainErrors.NewInternalErrorWithCause("failed to check ban", err)
	}
	return count > 0, nil
}

// List returns bans oldest first.
func (r *GormBanRepository) List(ctx context.Context) ([]*entity.BanRecord, error) {
	var rows []models.BanModel
	if err := r.db.WithContext(ctx).Order("ban_date asc, user_id asc").Find(&rows).Error; err != nil {
		return nil, domainErrors.NewInternalErrorWithCause("failed to list bans", err)
	}

	bans := make([]*entity.BanRecord, 0, len(rows))
	for _, row := range rows {
		bans = append(bans, &entity.BanRecord{
			UserID:      row.UserID,
			Username:    row.Username,
			DisplayName: row.DisplayName,
			Reason:      row.Reason,
			BanDate:     row.BanDate,
		})
	}
	return bans, nil
}

// === 广播 ===

// GormBroadcastRepository GORM 实现的广播仓储
type GormBroadcastRepository struct {
	db *gorm.DB
}

// NewGormBroadcastRepository 创建 GORM 广播仓储
func NewGormBroadcastRepository(db *gorm.DB) repository.BroadcastRepository {
	return &GormBroadcastRepository{db: db}
}

// Save 保存广播记录
func (r *GormBroadcastRepository) Save(ctx context.Context, record *entity.BroadcastRecord) error {
	model := &models.BroadcastModel{
		ID:         record.ID,
		CreatedAt:  record.CreatedAt,
		Recipients: make([]models.BroadcastRecipientModel, 0, len(record.Recipients)),
	}
	for i, rc := range record.Recipients {
		model.Recipients = append(model.Recipients, models.BroadcastRecipientModel{
			BroadcastID: record.ID,
			Position:    i,
			UserID:      rc.UserID,
			MessageID:   rc.MessageID,
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("broadcast_id = ?", record.ID).Delete(&models.BroadcastRecipientModel{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.BroadcastModel{}, "id = ?", record.ID).Error; err != nil {
			return err
		}
		return tx.Create(model).Error
	})
	if err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to save broadcast", err)
	}
	return nil
}

// Latest 返回最近一次广播
func (r *GormBroadcastRepository) Latest(ctx context.Context) (*entity.BroadcastRecord, error) {
	var model models.BroadcastModel
	err := r.db.WithContext(ctx).
		Preload("Recipients", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Order("id desc").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("no broadcasts")
		}
		return nil, domainErrors.NewInternalErrorWithCause("failed to load broadcast", err)
	}

	record := &entity.BroadcastRecord{
		ID:         model.ID,
		CreatedAt:  model.CreatedAt,
		Recipients: make([]entity.Recipient, 0, len(model.Recipients)),
	}
	for _, rc := range model.Recipients {
		record.Recipients = append(record.Recipients, entity.Recipient{UserID: rc.UserID, MessageID: rc.MessageID})
	}
	return record, nil
}

// Delete 删除广播记录
func (r *GormBroadcastRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("broadcast_id = ?", id).Delete(&models.BroadcastRecipientModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.BroadcastModel{}, "id = ?", id).Error
	})
	if err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to delete broadcast", err)
	}
	return nil
}

// === 消息映射 ===

// GormMappingRepository GORM 实现的映射仓储
type GormMappingRepository struct {
	db          *gorm.DB
	maxForwards int
}

// NewGormMappingRepository 创建 GORM 映射仓储，maxForwards > 0 时限制转发映射数量
func NewGormMappingRepository(db *gorm.DB, maxForwards int) repository.MappingRepository {
	return &GormMappingRepository{db: db, maxForwards: maxForwards}
}

// SaveForward 记录转发映射
func (r *GormMappingRepository) SaveForward(ctx context.Context, m entity.ForwardMapping) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := &models.ForwardMappingModel{StaffMessageID: m.StaffMessageID, UserID: m.UserID}
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		return r.evictForwards(tx)
	})
	if err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to save forward mapping", err)
	}
	return nil
}

func (r *GormMappingRepository) evictForwards(tx *gorm.DB) error {
	if r.maxForwards <= 0 {
		return nil
	}

	var count int64
	if err := tx.Model(&models.ForwardMappingModel{}).Count(&count).Error; err != nil {
		return err
	}
	excess := int(count) - r.maxForwards
	if excess <= 0 {
		return nil
	}

	var oldest []int
	err := tx.Model(&models.ForwardMappingModel{}).
		Order("staff_message_id asc").
		Limit(excess).
		Pluck("staff_message_id", &oldest).Error
	if err != nil {
		return err
	}
	return tx.Delete(&models.ForwardMappingModel{}, "staff_message_id IN ?", oldest).Error
}

// FindForward 查询转发映射
func (r *GormMappingRepository) FindForward(ctx context.Context, staffMessageID int) (int64, error) {
	var model models.ForwardMappingModel
	if err := r.db.WithContext(ctx).First(&model, "staff_message_id = ?", staffMessageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domainErrors.NewNotFoundError("forward mapping not found")
		}
		return 0, domainErrors.NewInternalErrorWithCause("failed to find forward mapping", err)
	}
	return model.UserID, nil
}

// CountForward 统计转发映射数量
func (r *GormMappingRepository) CountForward(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ForwardMappingModel{}).Count(&count).Error; err != nil {
		return 0, domainErrors.NewInternalErrorWithCause("failed to count forward mappings", err)
	}
	return int(count), nil
}

// SaveReply 记录回复映射
func (r *GormMappingRepository) SaveReply(ctx context.Context, m entity.ReplyMapping) error {
	model := &models.ReplyMappingModel{
		StaffMessageID: m.StaffMessageID,
		UserID:         m.UserID,
		MessageID:      m.MessageID,
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to save reply mapping", err)
	}
	return nil
}

// FindReply 查询回复映射
func (r *GormMappingRepository) FindReply(ctx context.Context, staffMessageID int) (*entity.ReplyMapping, error) {
	var model models.ReplyMappingModel
	if err := r.db.WithContext(ctx).First(&model, "staff_message_id = ?", staffMessageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.NewNotFoundError("reply mapping not found")
		}
		return nil, domainErrors.NewInternalErrorWithCause("failed to find reply mapping", err)
	}
	return &entity.ReplyMapping{
		StaffMessageID: model.StaffMessageID,
		UserID:         model.UserID,
		MessageID:      model.MessageID,
	}, nil
}

// DeleteReply 删除回复映射
func (r *GormMappingRepository) DeleteReply(ctx context.Context, staffMessageID int) error {
	if err := r.db.WithContext(ctx).Delete(&models.ReplyMappingModel{}, "staff_message_id = ?", staffMessageID).Error; err != nil {
		return domainErrors.NewInternalErrorWithCause("failed to delete reply mapping", err)
	}
	return nil
}
