package queue

import (
	"database/sql"

	"mixvault/internal/database"
)

const rawMixColumns = "id, raw_title, raw_description, source_url, provider, external_id, artwork_url, duration_seconds, raw_artist, channel_name, channel_id, uploaded_at, status, error_message, canonicalized_mix_id, processed_at, created_at, updated_at"

func scanRawMix(scanner interface{ Scan(dest ...any) error }) (*RawMix, error) {
	var (
		mix            RawMix
		description    sql.NullString
		sourceURL      sql.NullString
		externalID     sql.NullString
		artworkURL     sql.NullString
		duration       sql.NullInt64
		rawArtist      sql.NullString
		channelName    sql.NullString
		channelID      sql.NullString
		uploadedRaw    sql.NullString
		statusStr      string
		errorMessage   sql.NullString
		canonicalMixID sql.NullInt64
		processedRaw   sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&mix.ID,
		&mix.RawTitle,
		&description,
		&sourceURL,
		&mix.Provider,
		&externalID,
		&artworkURL,
		&duration,
		&rawArtist,
		&channelName,
		&channelID,
		&uploadedRaw,
		&statusStr,
		&errorMessage,
		&canonicalMixID,
		&processedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	mix.RawDescription = description.String
	mix.SourceURL = sourceURL.String
	mix.ExternalID = externalID.String
	mix.ArtworkURL = artworkURL.String
	mix.DurationSeconds = database.IntPtr(duration)
	mix.RawArtist = rawArtist.String
	mix.ChannelName = channelName.String
	mix.ChannelID = channelID.String
	mix.UploadedAt = database.TimePtr(uploadedRaw)
	mix.Status = Status(statusStr)
	mix.ErrorMessage = errorMessage.String
	mix.CanonicalizedMixID = canonicalMixID.Int64
	mix.ProcessedAt = database.TimePtr(processedRaw)
	if created, err := database.ParseTime(createdRaw.String); err == nil {
		mix.CreatedAt = created
	}
	if updated, err := database.ParseTime(updatedRaw.String); err == nil {
		mix.UpdatedAt = updated
	}
	return &mix, nil
}
