package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Olamide1/loopline/internal/dao"
	"github.com/Olamide1/loopline/internal/model"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户 Repository
func NewUserRepository(db *gorm.DB) dao.UserRepository {
	return &userRepository{db: db}
}

// FindByUuid 按 UUID 查找用户
func (r *userRepository) FindByUuid(ctx context.Context, uuid string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.WithContext(ctx).First(&user, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 uuid=%s", uuid)
	}
	return &user, nil
}

// UpdateStatus 在事务内加锁读取旧状态再写入
// 用户行不存在时插入，并发插入冲突时按 uuid 覆盖
func (r *userRepository) UpdateStatus(ctx context.Context, uuid string, status model.UserStatus, lastSeen time.Time) (model.UserStatus, error) {
	prev := model.StatusOffline
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.UserInfo
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "uuid = ?", uuid).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = model.UserInfo{Uuid: uuid, Status: status, LastSeen: lastSeen}
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "uuid"}},
				DoUpdates: clause.AssignmentColumns([]string{"status", "last_seen", "updated_at"}),
			}).Create(&user).Error
		case err != nil:
			return err
		}
		prev = user.Status
		return tx.Model(&user).Updates(map[string]any{"status": status, "last_seen": lastSeen}).Error
	})
	if err != nil {
		return "", wrapDBErrorf(err, "更新用户状态 uuid=%s", uuid)
	}
	return prev, nil
}
