package dao

import (
	"context"
	"time"

	"relaybot/relaybot/sources/store/models"

	"gorm.io/gorm"
)

type MessageDAO struct {
	DB *gorm.DB
}

func NewMessageDAO(db *gorm.DB) *MessageDAO {
	return &MessageDAO{DB: db}
}

// Append writes one immutable log row and returns it with the assigned id.
func (dao *MessageDAO) Append(ctx context.Context, userID int64, sender, contentType, content, firstName, username string) (*models.Message, error) {
	msg := models.Message{
		UserID:      userID,
		Sender:      sender,
		ContentType: contentType,
		Content:     content,
		Timestamp:   time.Now(),
		FirstName:   firstName,
		Username:    username,
	}
	if err := dao.DB.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListDistinctUsers returns every user with at least one recorded first name
// or username, ordered by id. A user who changed their profile shows up once
// per distinct identity snapshot, same as the original query.
func (dao *MessageDAO) ListDistinctUsers(ctx context.Context) ([]models.UserRef, error) {
	var refs []models.UserRef
	err := dao.DB.WithContext(ctx).
		Model(&models.Message{}).
		Distinct("user_id", "first_name", "username").
		Where("sender = ?", models.SenderUser).
		Where("first_name <> '' OR username <> ''").
		Order("user_id ASC").
		Find(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (dao *MessageDAO) HistoryFor(ctx context.Context, userID int64) ([]models.Message, error) {
	var msgs []models.Message
	err := dao.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// ExistsQuestionInitiated reports whether the user ever pressed "ask a
// question"; a later free-text message is then logged as a question instead
// of plain text.
func (dao *MessageDAO) ExistsQuestionInitiated(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := dao.DB.WithContext(ctx).
		Model(&models.Message{}).
		Where("user_id = ? AND content_type = ?", userID, "question_initiated").
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (dao *MessageDAO) ExistsAnyRecord(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := dao.DB.WithContext(ctx).
		Model(&models.Message{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// PurgeOlderThan deletes ALL rows of every user having at least one row older
// than the cutoff, including that user's newer rows. The coarse per-user
// granularity is intentional.
func (dao *MessageDAO) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	sub := dao.DB.Model(&models.Message{}).
		Distinct("user_id").
		Where("timestamp < ?", cutoff)
	res := dao.DB.WithContext(ctx).
		Where("user_id IN (?)", sub).
		Delete(&models.Message{})
	return res.RowsAffected, res.Error
}

func (dao *MessageDAO) PurgeAll(ctx context.Context) (int64, error) {
	res := dao.DB.WithContext(ctx).
		Where("1 = 1").
		Delete(&models.Message{})
	return res.RowsAffected, res.Error
}
