// Package sendlog implements the idempotency guard over send_records.
package sendlog

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	campaigndomain "github.com/smallbiznis/retainly/internal/campaign/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Log struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func New(db *gorm.DB, genID *snowflake.Node) campaigndomain.SendLog {
	return &Log{db: db, genID: genID}
}

func (l *Log) AlreadySent(ctx context.Context, key campaigndomain.SendKey) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&campaigndomain.SendRecord{}).
		Where("customer_id = ? AND template_key = ? AND step = ? AND related_id = ?",
			key.CustomerID, key.TemplateKey, key.Step, key.RelatedID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecordSent races on the unique key constraint: the insert is a no-op when
// the key already exists, so concurrent recorders cannot produce two rows.
func (l *Log) RecordSent(ctx context.Context, key campaigndomain.SendKey) (bool, error) {
	record := campaigndomain.SendRecord{
		ID:          l.genID.Generate(),
		CustomerID:  key.CustomerID,
		TemplateKey: key.TemplateKey,
		Step:        key.Step,
		RelatedID:   key.RelatedID,
		CreatedAt:   time.Now().UTC(),
	}
	result := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "customer_id"},
				{Name: "template_key"},
				{Name: "step"},
				{Name: "related_id"},
			},
			DoNothing: true,
		}).
		Create(&record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (l *Log) FindSentInWindow(ctx context.Context, templateKey string, step int, start, end time.Time) ([]campaigndomain.SendRecord, error) {
	var records []campaigndomain.SendRecord
	err := l.db.WithContext(ctx).
		Where("template_key = ? AND step = ?", templateKey, step).
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
