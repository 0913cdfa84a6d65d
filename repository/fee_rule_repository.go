package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"adminBackend/models"
)

// FeeRuleRepository stores the gateway fee table.
type FeeRuleRepository struct {
	db *sql.DB
}

func NewFeeRuleRepository(d *sql.DB) *FeeRuleRepository {
	return &FeeRuleRepository{db: d}
}

// List returns rules ordered by priority (desc) then id. activeOnly skips disabled rows.
func (r *FeeRuleRepository) List(ctx context.Context, activeOnly bool) ([]models.FeeRule, error) {
	query := `SELECT id, channel, method_kind, card_brand, issuer_region, currency, percent, fixed_minor, priority, active FROM fee_rules`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY priority DESC, id`

	ctx, cancel := context.WithTimeout(ctx, shortTimeout*time.Second)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.FeeRule
	for rows.Next() {
		var f models.FeeRule
		if err := rows.Scan(&f.ID, &f.Channel, &f.MethodKind, &f.CardBrand, &f.IssuerRegion, &f.Currency, &f.Percent, &f.FixedMinor, &f.Priority, &f.Active); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ReplaceAll swaps the whole table for rules in a single transaction.
func (r *FeeRuleRepository) ReplaceAll(ctx context.Context, rules []models.FeeRule) error {
	ctx, cancel := context.WithTimeout(ctx, longTimeout*time.Second)
	defer cancel()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM fee_rules`); err != nil {
		_ = tx.Rollback()
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO fee_rules (channel, method_kind, card_brand, issuer_region, currency, percent, fixed_minor, priority, active) VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, f := range rules {
		if _, err := stmt.ExecContext(ctx, strings.ToLower(f.Channel), strings.ToLower(f.MethodKind), strings.ToLower(f.CardBrand),
			strings.ToLower(f.IssuerRegion), strings.ToUpper(f.Currency), f.Percent, f.FixedMinor, f.Priority, f.Active); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
