package main

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"audioconv/jobs"
)

type User struct {
	gorm.Model
	Username string `gorm:"unique"`
	Password string
}

// Upload records an intake file saved under the uploads dir. Convert
// requests may only reference paths recorded here.
type Upload struct {
	gorm.Model
	Token      string `gorm:"uniqueIndex"`
	Filename   string // original client filename
	StoredPath string
}

// Conversion is the durable history row written when a job reaches a
// terminal state. The live job state itself stays in memory.
type Conversion struct {
	gorm.Model
	JobID       string `gorm:"uniqueIndex"`
	DisplayName string
	Format      string
	Status      string
	OutputPath  string
	ErrorDetail string
}

func CreateUser(db *gorm.DB, username, password string) error {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	user := User{Username: username, Password: string(hashedPassword)}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	return nil
}

func newUploadToken() string {
	return uuid.Must(uuid.NewV7()).String()
}

// recordUpload remembers an intake file so convert requests can be checked
// against it later.
func recordUpload(token, filename, storedPath string) error {
	upload := Upload{Token: token, Filename: filename, StoredPath: storedPath}
	return db.Create(&upload).Error
}

// isRecordedUpload reports whether path was produced by the upload intake.
func isRecordedUpload(path string) bool {
	var count int64
	if err := db.Model(&Upload{}).Where("stored_path = ?", path).Count(&count).Error; err != nil {
		log.Errorln(err)
		return false
	}
	return count > 0
}

// recordConversion persists the terminal snapshot of a job.
func recordConversion(snap jobs.Snapshot, format string) {
	conv := Conversion{
		JobID:       snap.ID,
		DisplayName: snap.DisplayName,
		Format:      format,
		Status:      string(snap.Status),
		OutputPath:  snap.OutputPath,
		ErrorDetail: snap.ErrorDetail,
	}
	if err := db.Create(&conv).Error; err != nil {
		log.Errorf("failed to record conversion for job %s: %v", snap.ID, err)
	}
}

func recentConversions(limit int) ([]Conversion, error) {
	var convs []Conversion
	err := db.Order("created_at DESC").Limit(limit).Find(&convs).Error
	return convs, err
}
