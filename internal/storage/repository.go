package storage

import (
	"context"

	"ccr-registry-scraper/internal/scraper"
)

// RegistryRecord is a deduplicated registry row prepared for the database.
type RegistryRecord struct {
	RegistrationNumber string
	Governorate        string
	RegistrationDate   string
	Owner              string
	Address            string
	TradeName          string
	Capital            string
	Status             string
	Action             string
	RunID              string
	CheckSum           string // SHA256 of the record fields
}

// FromRecord converts a scraped record.
func FromRecord(r scraper.Record, runID, checkSum string) *RegistryRecord {
	return &RegistryRecord{
		RegistrationNumber: r.Get("registration_number"),
		Governorate:        r.Get("governorate"),
		RegistrationDate:   r.Get("registration_date"),
		Owner:              r.Get("owner"),
		Address:            r.Get("address"),
		TradeName:          r.Get("trade_name"),
		Capital:            r.Get("capital"),
		Status:             r.Get("status"),
		Action:             r.Get("action"),
		RunID:              runID,
		CheckSum:           checkSum,
	}
}

// Repository stores registry records keyed by registration number.
type Repository interface {
	// UpsertRecord inserts or updates a record; unchanged rows report neither.
	UpsertRecord(ctx context.Context, rec *RegistryRecord) (isNew bool, isUpdated bool, err error)

	GetRecordCount(ctx context.Context) (int, error)

	Close() error
}
