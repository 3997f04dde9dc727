package reservation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	bookingPrefix = "BK-"
	tablePrefix   = "TBL-"
	maxSequence   = 999
)

// IDGenerator produces readable booking and table identifiers. Booking
// numbers come from a per-date counter row incremented in the database;
// when that fails the id falls back to a random suffix.
type IDGenerator struct {
	db *gorm.DB
}

func NewIDGenerator(db *gorm.DB) *IDGenerator {
	return &IDGenerator{db: db}
}

// NextBookingID returns BK-YYYYMMDD-NNN for the booking date.
func (g *IDGenerator) NextBookingID(ctx context.Context, date string) string {
	day := strings.ReplaceAll(date, "-", "")
	seq, err := g.nextSequence(ctx, day)
	if err != nil || seq > maxSequence {
		if err != nil {
			utils.ErrorLogger.Printf("Error generating booking ID for %s: %v", date, err)
		}
		return fallbackID(bookingPrefix)
	}
	return fmt.Sprintf("%s%s-%03d", bookingPrefix, day, seq)
}

func (g *IDGenerator) nextSequence(ctx context.Context, day string) (int, error) {
	var (
		seq     models.BookingSequence
		lastErr error
	)
	// two attempts: a concurrent first insert for the same day loses on the
	// primary key and then finds the row on retry
	for attempt := 0; attempt < 2; attempt++ {
		lastErr = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.BookingSequence{}).
				Where("day = ?", day).
				Update("value", gorm.Expr("value + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				if err := tx.Create(&models.BookingSequence{Day: day, Value: 1}).Error; err != nil {
					return err
				}
			}
			return tx.Where("day = ?", day).First(&seq).Error
		})
		if lastErr == nil {
			return seq.Value, nil
		}
		if !isDuplicateKey(lastErr) {
			break
		}
	}
	return 0, lastErr
}

// NextTableID returns TBL-NNN one above the highest existing number, so
// deleted tables never cause a reused id.
func (g *IDGenerator) NextTableID(ctx context.Context) string {
	return nextTableID(g.db.WithContext(ctx))
}

func nextTableID(tx *gorm.DB) string {
	var ids []string
	if err := tx.Model(&models.Table{}).Where("id LIKE ?", tablePrefix+"%").Pluck("id", &ids).Error; err != nil {
		utils.ErrorLogger.Printf("Error generating table ID: %v", err)
		return fallbackID(tablePrefix)
	}

	highest := 0
	for _, id := range ids {
		n, err := strconv.Atoi(strings.TrimPrefix(id, tablePrefix))
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	if highest >= maxSequence {
		return fallbackID(tablePrefix)
	}
	return fmt.Sprintf("%s%03d", tablePrefix, highest+1)
}

func fallbackID(prefix string) string {
	return prefix + uuid.NewString()[:8]
}
