package domain

import "time"

// TicketComment is a reply on a ticket thread. Internal comments are staff only.
type TicketComment struct {
	ID         string
	TicketID   string
	AuthorID   string
	Body       string
	IsInternal bool
	CreatedAt  time.Time
}

// TicketAttachment stores metadata for a file kept in the blob store.
type TicketAttachment struct {
	ID         string
	TicketID   string
	BlobKey    string
	Filename   string
	UploadedBy string
	SizeBytes  int64
	UploadedAt time.Time
}
