// Package storage defines the durable blob storage contract consumed by the
// interview pipeline: uploads return an opaque durable URL, and uploaded
// artifacts can be fetched back by that URL.
package storage

import "context"

// Kind selects the storage resource type for an upload.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Uploader stores one blob durably and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string, kind Kind) (string, error)
}

// Fetcher retrieves a previously uploaded blob by its durable URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Store combines upload and retrieval.
type Store interface {
	Uploader
	Fetcher
}
