package sendlog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	campaigndomain "github.com/smallbiznis/retainly/internal/campaign/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSendLogDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(
		`CREATE TABLE send_records (
			id INTEGER PRIMARY KEY,
			customer_id BIGINT NOT NULL,
			template_key TEXT NOT NULL,
			step INT NOT NULL,
			related_id BIGINT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (customer_id, template_key, step, related_id)
		)`,
	).Error; err != nil {
		t.Fatalf("create send_records: %v", err)
	}
	return db
}

func newSendLog(t *testing.T, db *gorm.DB) campaigndomain.SendLog {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new snowflake node: %v", err)
	}
	return New(db, node)
}

func TestRecordSentIsAtomicPerKey(t *testing.T) {
	db := setupSendLogDB(t)
	log := newSendLog(t, db)
	ctx := context.Background()

	key := campaigndomain.SendKey{CustomerID: 1, TemplateKey: "review_request", Step: 1, RelatedID: 100}

	inserted, err := log.RecordSent(ctx, key)
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	if !inserted {
		t.Fatalf("expected first record to insert")
	}

	// A retried or overlapping invocation must be a silent no-op.
	inserted, err = log.RecordSent(ctx, key)
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if inserted {
		t.Fatalf("expected second record to be a no-op")
	}

	var count int64
	if err := db.Table("send_records").Count(&count).Error; err != nil {
		t.Fatalf("count records: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one record, got %d", count)
	}
}

func TestAlreadySentDistinguishesSteps(t *testing.T) {
	db := setupSendLogDB(t)
	log := newSendLog(t, db)
	ctx := context.Background()

	step1 := campaigndomain.SendKey{CustomerID: 7, TemplateKey: "winback_offer", Step: 1, RelatedID: 200}
	if _, err := log.RecordSent(ctx, step1); err != nil {
		t.Fatalf("record step1: %v", err)
	}

	sent, err := log.AlreadySent(ctx, step1)
	if err != nil {
		t.Fatalf("already sent: %v", err)
	}
	if !sent {
		t.Fatalf("expected step1 marked sent")
	}

	step2 := campaigndomain.SendKey{CustomerID: 7, TemplateKey: "winback_final", Step: 2, RelatedID: 200}
	sent, err = log.AlreadySent(ctx, step2)
	if err != nil {
		t.Fatalf("already sent step2: %v", err)
	}
	if sent {
		t.Fatalf("expected step2 unsent: steps are independent keys")
	}
}

func TestFindSentInWindow(t *testing.T) {
	db := setupSendLogDB(t)
	log := newSendLog(t, db)
	ctx := context.Background()

	node, _ := snowflake.NewNode(2)
	now := time.Now().UTC()
	rows := []campaigndomain.SendRecord{
		{ID: node.Generate(), CustomerID: 1, TemplateKey: "winback_offer", Step: 1, RelatedID: 10, CreatedAt: now.AddDate(0, 0, -3)},
		{ID: node.Generate(), CustomerID: 2, TemplateKey: "winback_offer", Step: 1, RelatedID: 11, CreatedAt: now.AddDate(0, 0, -20)},
		{ID: node.Generate(), CustomerID: 3, TemplateKey: "review_request", Step: 1, RelatedID: 12, CreatedAt: now.AddDate(0, 0, -3)},
	}
	for _, row := range rows {
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed record: %v", err)
		}
	}

	records, err := log.FindSentInWindow(ctx, "winback_offer", 1, now.AddDate(0, 0, -7), now)
	if err != nil {
		t.Fatalf("find in window: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record in window, got %d", len(records))
	}
	if records[0].RelatedID != 10 {
		t.Fatalf("expected related id 10, got %d", records[0].RelatedID)
	}
}
