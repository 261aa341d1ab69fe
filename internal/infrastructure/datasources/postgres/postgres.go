package postgres

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to PostgreSQL via GORM. TranslateError is enabled so
// duplicate-key violations surface as gorm.ErrDuplicatedKey, which the
// repositories map onto the domain conflict error.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		TranslateError: true,
	})
}
