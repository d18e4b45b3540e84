package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/stockengine/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const bumpSequenceSQL = `INSERT INTO order_sequences (prefix, year, last_value) VALUES (?, ?, ?)
ON CONFLICT (prefix, year) DO UPDATE SET last_value = order_sequences.last_value + 1
RETURNING last_value`

// nextOrderNumber returns {prefix}-{YYYY}-{NNNNN} from the per-year counter.
// The upsert row-locks the counter until the surrounding transaction ends,
// so concurrent creates queue instead of colliding. A missing counter is
// seeded from the highest number already issued that year.
func nextOrderNumber(ctx context.Context, db *gorm.DB, model any, prefix string, now time.Time) (string, error) {
	db = db.WithContext(ctx)
	year := now.Year()
	yearPrefix := fmt.Sprintf("%s-%d-", prefix, year)

	var seq models.OrderSequenceModel
	err := db.Where("prefix = ? AND year = ?", prefix, year).Take(&seq).Error
	seed := int64(0)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if seed, err = highestIssued(db, model, yearPrefix); err != nil {
			return "", err
		}
	case err != nil:
		return "", translateError(err)
	}

	var value int64
	if err := db.Raw(bumpSequenceSQL, prefix, year, seed+1).Scan(&value).Error; err != nil {
		return "", translateError(err)
	}
	return fmt.Sprintf("%s%05d", yearPrefix, value), nil
}

// highestIssued finds the largest numeric suffix under yearPrefix. Longer
// suffixes sort first so 100000 beats 99999.
func highestIssued(db *gorm.DB, model any, yearPrefix string) (int64, error) {
	var last string
	err := db.Model(model).
		Select("order_number").
		Where("order_number LIKE ?", yearPrefix+"%").
		Order("LENGTH(order_number) DESC, order_number DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, translateError(err)
	}
	if last == "" {
		return 0, nil
	}
	num, err := strconv.ParseInt(strings.TrimPrefix(last, yearPrefix), 10, 64)
	if err != nil {
		return 0, nil
	}
	return num, nil
}
