package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"ccr-registry-scraper/internal/observability"
	"ccr-registry-scraper/internal/storage"
)

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger,
	}, nil
}

const upsertQuery = `
	MERGE INTO TblCommercialRegistry AS target
	USING (SELECT @RegistrationNumber AS RegistrationNumber) AS source
	ON target.[RegistrationNumber] = source.RegistrationNumber
	WHEN MATCHED AND target.[CheckSum] <> @CheckSum THEN
		UPDATE SET
			[Governorate] = @Governorate,
			[RegistrationDate] = @RegistrationDate,
			[Owner] = @Owner,
			[Address] = @Address,
			[TradeName] = @TradeName,
			[Capital] = @Capital,
			[Status] = @Status,
			[Action] = @Action,
			[RunID] = @RunID,
			[CheckSum] = @CheckSum,
			[UpdatedAt] = SYSUTCDATETIME()
	WHEN NOT MATCHED THEN
		INSERT ([RegistrationNumber], [Governorate], [RegistrationDate], [Owner], [Address],
			[TradeName], [Capital], [Status], [Action], [RunID], [CheckSum], [UpdatedAt])
		VALUES (@RegistrationNumber, @Governorate, @RegistrationDate, @Owner, @Address,
			@TradeName, @Capital, @Status, @Action, @RunID, @CheckSum, SYSUTCDATETIME())
	OUTPUT $action;
`

// UpsertRecord merges rec by registration number. Rows whose checksum is
// unchanged are left alone and reported as neither new nor updated.
func (r *Repository) UpsertRecord(ctx context.Context, rec *storage.RegistryRecord) (isNew bool, isUpdated bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var action string
	err = r.db.QueryRowContext(ctx, upsertQuery,
		sql.Named("RegistrationNumber", rec.RegistrationNumber),
		sql.Named("Governorate", rec.Governorate),
		sql.Named("RegistrationDate", rec.RegistrationDate),
		sql.Named("Owner", rec.Owner),
		sql.Named("Address", rec.Address),
		sql.Named("TradeName", rec.TradeName),
		sql.Named("Capital", rec.Capital),
		sql.Named("Status", rec.Status),
		sql.Named("Action", rec.Action),
		sql.Named("RunID", rec.RunID),
		sql.Named("CheckSum", rec.CheckSum),
	).Scan(&action)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, false, nil
	case err != nil:
		return false, false, fmt.Errorf("failed to execute upsert: %w", err)
	}

	switch action {
	case "INSERT":
		isNew = true
	case "UPDATE":
		isUpdated = true
	}

	return isNew, isUpdated, nil
}

// GetRecordCount returns the number of stored records.
func (r *Repository) GetRecordCount(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM TblCommercialRegistry`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to query database: %w", err)
	}

	return count, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
