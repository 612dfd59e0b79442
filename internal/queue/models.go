package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a raw mix.
type Status string

const (
	StatusPending       Status = "pending"
	StatusProcessing    Status = "processing"
	StatusCanonicalized Status = "canonicalized"
	StatusFailed        Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCanonicalized,
	StatusFailed,
}

// AllStatuses returns every raw mix status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus attempts to map a string into a known status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range allStatuses {
		if s == normalized {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether the status ends processing for a raw mix.
func (s Status) IsTerminal() bool {
	return s == StatusCanonicalized || s == StatusFailed
}

// RawMix is a staged, unverified mix description.
type RawMix struct {
	ID                 int64
	RawTitle           string
	RawDescription     string
	SourceURL          string
	Provider           string
	ExternalID         string
	ArtworkURL         string
	DurationSeconds    *int
	RawArtist          string
	ChannelName        string
	ChannelID          string
	UploadedAt         *time.Time
	Status             Status
	ErrorMessage       string
	CanonicalizedMixID int64
	ProcessedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RawTrack is one staged tracklist line.
type RawTrack struct {
	ID               int64
	RawMixID         int64
	Position         int
	RawTitle         string
	RawArtist        string
	LineText         string
	TimestampSeconds *int
}

// NewRawMix describes a raw mix to stage along with its tracklist lines.
type NewRawMix struct {
	RawTitle        string          `json:"raw_title"`
	RawDescription  string          `json:"raw_description,omitempty"`
	SourceURL       string          `json:"source_url,omitempty"`
	Provider        string          `json:"provider"`
	ExternalID      string          `json:"external_id,omitempty"`
	ArtworkURL      string          `json:"artwork_url,omitempty"`
	DurationSeconds *int            `json:"duration_seconds,omitempty"`
	RawArtist       string          `json:"raw_artist,omitempty"`
	ChannelName     string          `json:"channel_name,omitempty"`
	ChannelID       string          `json:"channel_id,omitempty"`
	UploadedAt      *time.Time      `json:"uploaded_at,omitempty"`
	Tracks          []NewRawTrackIn `json:"tracks,omitempty"`
}

// NewRawTrackIn is a tracklist line inside NewRawMix. Position defaults to the
// 1-based slice index when zero.
type NewRawTrackIn struct {
	Position         int    `json:"position,omitempty"`
	RawTitle         string `json:"raw_title,omitempty"`
	RawArtist        string `json:"raw_artist,omitempty"`
	LineText         string `json:"line_text,omitempty"`
	TimestampSeconds *int   `json:"timestamp_seconds,omitempty"`
}
