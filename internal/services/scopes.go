package services

import "gorm.io/gorm"

// activeOnly is a GORM scope that hides deactivated rows.
func activeOnly(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

// paginate returns a GORM scope selecting one page. Callers normalize
// page and limit first.
func paginate(page, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}
