package store

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sujalbistaa/yatube/internal/logger"
	"github.com/sujalbistaa/yatube/internal/models"
)

// deleteRows removes rows of table by id after applying every relation that
// references table: SetNull children get their column cleared, Cascade
// children are deleted the same way, recursively. Table and column names come
// from models.Relations, never from input.
func deleteRows(tx *gorm.DB, table string, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	for _, rel := range models.RelationsOf(table) {
		switch rel.Policy {
		case models.SetNull:
			res := tx.Exec(
				fmt.Sprintf("UPDATE %s SET %s = NULL WHERE %s IN ?", rel.Child, rel.Column, rel.Column),
				ids,
			)
			if res.Error != nil {
				return fmt.Errorf("nullify %s.%s: %w", rel.Child, rel.Column, res.Error)
			}
			logger.Log.Debug("nullified references",
				zap.String("table", rel.Child), zap.String("column", rel.Column),
				zap.Int64("rows", res.RowsAffected))

		case models.Cascade:
			var childIDs []uint
			if err := tx.Table(rel.Child).Where(rel.Column+" IN ?", ids).Pluck("id", &childIDs).Error; err != nil {
				return fmt.Errorf("collect %s.%s: %w", rel.Child, rel.Column, err)
			}
			if err := deleteRows(tx, rel.Child, childIDs); err != nil {
				return err
			}

		default:
			return fmt.Errorf("unknown delete policy %d on %s.%s", rel.Policy, rel.Child, rel.Column)
		}
	}

	res := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE id IN ?", table), ids)
	if res.Error != nil {
		return fmt.Errorf("delete from %s: %w", table, res.Error)
	}
	logger.Log.Debug("deleted rows", zap.String("table", table), zap.Int64("rows", res.RowsAffected))
	return nil
}
