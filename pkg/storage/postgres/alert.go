package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wschart/internal/alert"
)

func (p *PostgresClient) InsertAlert(ctx context.Context, record *AlertRecord) error {
	if err := p.DB.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// RecordAlert implements alert.Recorder.
func (p *PostgresClient) RecordAlert(ctx context.Context, ev alert.Event) error {
	return p.InsertAlert(ctx, ToAlertRecord(ev))
}

// ListAlerts returns the alerts fired for symbol since the given time, oldest first.
func (p *PostgresClient) ListAlerts(ctx context.Context, symbol string, since time.Time) ([]AlertRecord, error) {
	var records []AlertRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ? AND fired_at >= ?", strings.ToUpper(symbol), since).
		Order("fired_at").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (p *PostgresClient) DeleteOldAlerts(ctx context.Context, before time.Time) error {
	return p.DB.WithContext(ctx).
		Where("fired_at < ?", before).
		Delete(&AlertRecord{}).Error
}

// ToAlertRecord converts a fired event into an AlertRecord for DB insertion.
func ToAlertRecord(ev alert.Event) *AlertRecord {
	return &AlertRecord{
		Symbol:    strings.ToUpper(ev.Symbol),
		Kind:      ev.Kind.String(),
		Threshold: ev.Threshold,
		Price:     ev.Price,
		Message:   ev.Message(),
		FiredAt:   ev.Time.UTC(),
	}
}
