// Package domain holds the persisted row types shared by repos and services.
package domain

// AllModels lists every table for gorm automigrate, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&UserToken{},
		&PortalFile{},
		&UploadSession{},
		&PortalContent{},
		&AssessmentSubmission{},
	}
}
