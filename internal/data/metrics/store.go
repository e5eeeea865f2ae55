package metrics

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aurahq/aura-backend/internal/pkg/apperr"
	"github.com/aurahq/aura-backend/internal/platform/logger"
)

// Value is one per-day reading. Exactly one of Number, Text, Timestamp is
// set, depending on the source column's type.
type Value struct {
	Date      time.Time
	Number    *float64
	Text      *string
	Timestamp *time.Time
}

// Store reads per-day metric tables that the catalog's definitions point
// at via (metric_table, metric_column). The tables themselves are written
// by the external ingestion service.
type Store interface {
	// GetValue returns the reading for one date, or nil when absent.
	GetValue(ctx context.Context, tx *gorm.DB, userID uuid.UUID, table, column string, date time.Time) (*Value, error)
	// GetHistory returns readings with date in [from, to), ascending.
	// Dates with no row are simply absent from the result.
	GetHistory(ctx context.Context, tx *gorm.DB, userID uuid.UUID, table, column string, from, to time.Time) ([]Value, error)
}

type store struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStore(db *gorm.DB, baseLog *logger.Logger) Store {
	return &store{db: db, log: baseLog.With("component", "MetricStore")}
}

// identRe guards the dynamic identifiers; table and column names come from
// catalog rows, not request input, but the raw SQL below must never see
// anything but a plain lowercase identifier.
var identRe = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

func checkIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("%w: bad identifier %q", apperr.ErrInvalidArgument, name)
	}
	return nil
}

func (s *store) GetValue(ctx context.Context, tx *gorm.DB, userID uuid.UUID, table, column string, date time.Time) (*Value, error) {
	rows, err := s.query(ctx, tx, userID, table, column, date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	v := rows[0]
	return &v, nil
}

func (s *store) GetHistory(ctx context.Context, tx *gorm.DB, userID uuid.UUID, table, column string, from, to time.Time) ([]Value, error) {
	return s.query(ctx, tx, userID, table, column, from, to)
}

func (s *store) query(ctx context.Context, tx *gorm.DB, userID uuid.UUID, table, column string, from, to time.Time) ([]Value, error) {
	t := tx
	if t == nil {
		t = s.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	if err := checkIdent(column); err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT date, %s FROM %s WHERE user_id = ? AND date >= ? AND date < ? ORDER BY date ASC`, column, table)
	rows, err := t.WithContext(ctx).Raw(q, userID, from, to).Rows()
	if err != nil {
		return nil, fmt.Errorf("metric fetch %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	var out []Value
	for rows.Next() {
		var date time.Time
		var raw interface{}
		if err := rows.Scan(&date, &raw); err != nil {
			return nil, fmt.Errorf("metric scan %s.%s: %w", table, column, err)
		}
		if raw == nil {
			continue
		}
		v := Value{Date: date}
		switch val := raw.(type) {
		case float64:
			v.Number = &val
		case float32:
			f := float64(val)
			v.Number = &f
		case int64:
			f := float64(val)
			v.Number = &f
		case string:
			v.Text = &val
		case []byte:
			str := string(val)
			v.Text = &str
		case time.Time:
			v.Timestamp = &val
		default:
			return nil, fmt.Errorf("metric %s.%s: unsupported column type %T", table, column, raw)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
