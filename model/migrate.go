package model

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// allModels lists every model to be auto-migrated.
var allModels = []interface{}{
	&Mpa{},
	&Genre{},
	&Film{},
	&User{},
	&Like{},
	&FilmGenre{},
	&Friendship{},
	&AuditLog{},
}

// AutoMigrate creates or updates all tables and seeds the reference data.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels...); err != nil {
		return err
	}
	return Seed(db)
}

// Seed inserts the default ratings and genres, leaving existing rows alone.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&DefaultMpa).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&DefaultGenres).Error
	})
}
