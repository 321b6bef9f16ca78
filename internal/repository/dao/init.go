package dao

import (
	"fmt"

	"gorm.io/gorm"
)

const (
	citiesTable          = "cities"
	usersTable           = "users"
	eventsTable          = "events"
	activitiesTable      = "activities"
	juryAssignmentsTable = "jury_assignments"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&City{},
		&User{},
		&Event{},
		&Activity{},
		&JuryAssignment{},
	)
}

func DropAllTables(db *gorm.DB) error {
	for _, table := range []string{juryAssignmentsTable, activitiesTable, eventsTable, usersTable, citiesTable} {
		if err := db.Exec("DROP TABLE IF EXISTS " + table + " CASCADE").Error; err != nil {
			return err
		}
	}

	return nil
}

// lockTable serializes writers that derive ids or check bookings on table for
// the rest of the transaction. Plain reads are not blocked.
func lockTable(tx *gorm.DB, table string) error {
	return tx.Exec(fmt.Sprintf("LOCK TABLE %s IN SHARE ROW EXCLUSIVE MODE", table)).Error
}

// nextID returns max(id)+1 for table. Events and activities carry ids assigned
// by the application, so the caller must hold lockTable on the same table.
func nextID(tx *gorm.DB, table string) (uint, error) {
	var next uint
	err := tx.Table(table).Select("COALESCE(MAX(id), 0) + 1").Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}
