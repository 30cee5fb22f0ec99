package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"repeat-task-service/internal/repeat-manager/db"
	"repeat-task-service/internal/repeat-manager/recurrence"
)

// SQLRecordType is the Record.Type reported for rows of the SQL store.
const SQLRecordType = "record"

// SQLStore keeps templates and instances as rows of db.Record.
type SQLStore struct {
	DB *gorm.DB
}

func NewSQLStore(gormDB *gorm.DB) *SQLStore {
	return &SQLStore{DB: gormDB}
}

// QueryTemplates skips rows whose properties are not a JSON object and
// reports them as RecordErrors.
func (s *SQLStore) QueryTemplates(ctx context.Context) ([]recurrence.Record, error) {
	var rows []db.Record
	if err := s.DB.WithContext(ctx).Where("is_repeat_template = ?", true).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query repeat templates: %w", err)
	}
	records := make([]recurrence.Record, 0, len(rows))
	var bad RecordErrors
	for _, row := range rows {
		rec, err := ToRecord(row)
		if err != nil {
			bad = append(bad, &recurrence.DecodeError{RecordID: strconv.FormatUint(uint64(row.ID), 10), Err: err})
			continue
		}
		records = append(records, rec)
	}
	if len(bad) > 0 {
		return records, bad
	}
	return records, nil
}

func (s *SQLStore) CreateInstance(ctx context.Context, props recurrence.Properties) (string, error) {
	b, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("failed to marshal instance properties: %w", err)
	}
	row := db.Record{Properties: string(b)}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("failed to create instance: %w", err)
	}
	return strconv.FormatUint(uint64(row.ID), 10), nil
}

// ToRecord converts a stored row into a store-neutral record.
func ToRecord(row db.Record) (recurrence.Record, error) {
	props := recurrence.Properties{}
	if row.Properties != "" {
		if err := json.Unmarshal([]byte(row.Properties), &props); err != nil {
			return recurrence.Record{}, fmt.Errorf("invalid properties JSON: %w", err)
		}
	}
	return recurrence.Record{
		ID:          strconv.FormatUint(uint64(row.ID), 10),
		Type:        SQLRecordType,
		CreatedTime: row.CreatedAt,
		Properties:  props,
	}, nil
}
