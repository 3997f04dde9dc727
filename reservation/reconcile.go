package reservation

import (
	"context"

	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReconcileReport lists the tables whose status was corrected.
type ReconcileReport struct {
	Released []string `json:"released"`
}

func (r ReconcileReport) Changed() bool {
	return len(r.Released) > 0
}

// Reconcile releases RESERVED tables that no active booking holds, which
// happens after a manual status edit. It never reserves a table; a release
// from a cancellation or rejection stands.
func (s *Service) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		held := tx.Model(&models.Booking{}).
			Select("table_id").
			Where("status IN ?", models.ActiveStatuses)

		if err := tx.Model(&models.Table{}).
			Where("status = ? AND id NOT IN (?)", models.TableReserved, held).
			Order("id ASC").
			Pluck("id", &report.Released).Error; err != nil {
			return dependency("find orphaned tables", err)
		}

		if len(report.Released) > 0 {
			if err := tx.Model(&models.Table{}).
				Where("id IN ?", report.Released).
				Update("status", models.TableAvailable).Error; err != nil {
				return dependency("release tables", err)
			}
		}
		return nil
	})
	if err != nil {
		return ReconcileReport{}, err
	}

	if report.Changed() {
		utils.InfoLogger.WithFields(logrus.Fields{
			"released": report.Released,
		}).Info("Table status reconciled")
	}
	return report, nil
}
