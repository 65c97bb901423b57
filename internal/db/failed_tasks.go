package db

import (
	"github.com/asteroid-belt/eveuniverse/internal/models"
)

// RecordFailedTask stores a task that could not be completed.
func (db *DB) RecordFailedTask(task *models.FailedTask) error {
	return db.Create(task).Error
}

// ListFailedTasks returns the most recent failed tasks first.
func (db *DB) ListFailedTasks(limit int) ([]models.FailedTask, error) {
	var tasks []models.FailedTask
	q := db.Order("failed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ClearFailedTasks removes all failed task records.
func (db *DB) ClearFailedTasks() (int64, error) {
	res := db.Where("1 = 1").Delete(&models.FailedTask{})
	return res.RowsAffected, res.Error
}
