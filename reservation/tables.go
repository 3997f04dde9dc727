package reservation

import (
	"context"
	"errors"
	"strings"

	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/utils"
	"gorm.io/gorm"
)

type TableInput struct {
	TableNumber string `json:"tableNumber" validate:"required"`
	Seats       int    `json:"seats" validate:"required,gt=0"`
	Location    string `json:"location"`
	Status      string `json:"status" validate:"omitempty,oneof=AVAILABLE RESERVED"`
}

type TableUpdate struct {
	TableNumber *string `json:"tableNumber"`
	Seats       *int    `json:"seats"`
	Location    *string `json:"location"`
	Status      *string `json:"status"`
}

func (s *Service) CreateTable(ctx context.Context, in TableInput) (*models.Table, error) {
	in.TableNumber = strings.TrimSpace(in.TableNumber)
	in.Status = strings.ToUpper(strings.TrimSpace(in.Status))
	if err := s.validate.Struct(in); err != nil {
		return nil, toInputError(err)
	}
	if in.Status == "" {
		in.Status = models.TableAvailable
	}

	table := models.Table{
		ID:          s.ids.NextTableID(ctx),
		TableNumber: in.TableNumber,
		Seats:       in.Seats,
		Location:    strings.TrimSpace(in.Location),
		Status:      in.Status,
	}
	err := s.db.WithContext(ctx).Create(&table).Error
	if isDuplicateKey(err) {
		// lost the id to a concurrent create
		table.ID = fallbackID(tablePrefix)
		err = s.db.WithContext(ctx).Create(&table).Error
	}
	if err != nil {
		return nil, dependency("create table", err)
	}
	utils.InfoLogger.WithField("table", table.ID).Info("Table created")
	return &table, nil
}

// ListTables returns tables ordered by id, optionally filtered by status.
func (s *Service) ListTables(ctx context.Context, status string) ([]models.Table, error) {
	q := s.db.WithContext(ctx).Order("id ASC")
	if status != "" {
		status = strings.ToUpper(status)
		if !models.ValidTableStatus(status) {
			return nil, &InputError{Field: "status", Reason: "must be AVAILABLE or RESERVED"}
		}
		q = q.Where("status = ?", status)
	}
	var tables []models.Table
	if err := q.Find(&tables).Error; err != nil {
		return nil, dependency("list tables", err)
	}
	return tables, nil
}

func (s *Service) GetTable(ctx context.Context, id string) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).First(&table, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, dependency("load table", err)
	}
	return &table, nil
}

func (s *Service) UpdateTable(ctx context.Context, id string, upd TableUpdate) (*models.Table, error) {
	var table models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&table, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTableNotFound
			}
			return dependency("load table", err)
		}
		if upd.TableNumber != nil {
			v := strings.TrimSpace(*upd.TableNumber)
			if v == "" {
				return &InputError{Field: "tableNumber", Reason: "cannot be blank"}
			}
			table.TableNumber = v
		}
		if upd.Seats != nil {
			if *upd.Seats <= 0 {
				return &InputError{Field: "seats", Reason: "must be greater than 0"}
			}
			table.Seats = *upd.Seats
		}
		if upd.Location != nil {
			table.Location = strings.TrimSpace(*upd.Location)
		}
		if upd.Status != nil {
			st := strings.ToUpper(strings.TrimSpace(*upd.Status))
			if !models.ValidTableStatus(st) {
				return &InputError{Field: "status", Reason: "must be AVAILABLE or RESERVED"}
			}
			table.Status = st
		}
		return dependency("save table", tx.Save(&table).Error)
	})
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// DeleteTable refuses while the table is reserved or still has active bookings.
func (s *Service) DeleteTable(ctx context.Context, id string) (*models.Table, error) {
	var table models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&table, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTableNotFound
			}
			return dependency("load table", err)
		}
		if table.Status == models.TableReserved {
			return ErrTableReserved
		}
		var active int64
		if err := tx.Model(&models.Booking{}).
			Where("table_id = ? AND status IN ?", id, models.ActiveStatuses).
			Count(&active).Error; err != nil {
			return dependency("count active bookings", err)
		}
		if active > 0 {
			return ErrTableReserved
		}
		return dependency("delete table", tx.Delete(&table).Error)
	})
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.WithField("table", id).Info("Table deleted")
	return &table, nil
}
