package wire

import "time"

// Descriptor describes a stored document without its content
type Descriptor struct {
	URI        string    `json:"uri"`
	Format     Format    `json:"format,omitempty"`
	MimeType   string    `json:"mime_type,omitempty"`
	ByteLength int64     `json:"byte_length"`
	Version    int64     `json:"version,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
}
