package postgres

import "time"

// AlertRecord is one fired threshold alert.
type AlertRecord struct {
	ID uint `gorm:"primaryKey"`

	Symbol    string    `gorm:"type:text;not null;index:idx_alert_symbol_fired"`
	Kind      string    `gorm:"type:varchar(10);not null"` // "below" or "above"
	Threshold float64   `gorm:"type:numeric;not null"`
	Price     float64   `gorm:"type:numeric;not null"`
	Message   string    `gorm:"type:text;not null"`
	FiredAt   time.Time `gorm:"not null;index:idx_alert_symbol_fired"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (AlertRecord) TableName() string {
	return "alert_record"
}
