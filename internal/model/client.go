package model

import "time"

// Client is a registered individual keyed by national ID. Files belong to a
// client through ClientFile.ClientID and are looked up by key; the struct
// carries no reference to them.
type Client struct {
	ID           string    `gorm:"primaryKey;size:20" json:"id"`
	Name         string    `gorm:"size:200;not null" json:"name"`
	Address      string    `gorm:"size:500;not null" json:"address"`
	Phone        string    `gorm:"size:50;not null" json:"phone"`
	Photo1       []byte    `json:"-"`
	Photo2       []byte    `json:"-"`
	Photo3       []byte    `json:"-"`
	RegisteredAt time.Time `gorm:"not null" json:"registered_at"`
}

func (Client) TableName() string { return "clients" }

// Photo returns photo n (1..3) when present.
func (c *Client) Photo(n int) ([]byte, bool) {
	var p []byte
	switch n {
	case 1:
		p = c.Photo1
	case 2:
		p = c.Photo2
	case 3:
		p = c.Photo3
	}
	return p, len(p) > 0
}

func (c *Client) Summary() ClientSummary {
	return ClientSummary{
		ID:           c.ID,
		Name:         c.Name,
		Address:      c.Address,
		Phone:        c.Phone,
		RegisteredAt: c.RegisteredAt,
		HasPhoto1:    len(c.Photo1) > 0,
		HasPhoto2:    len(c.Photo2) > 0,
		HasPhoto3:    len(c.Photo3) > 0,
	}
}

// ClientFile is one file extracted from an uploaded archive. FileName is the
// entry's name inside the archive; StoredName is what was written to storage,
// which differs from FileName after a collision rename.
type ClientFile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ClientID   string    `gorm:"size:20;not null;index" json:"client_id"`
	FileName   string    `gorm:"size:255;not null" json:"file_name"`
	StoredName string    `gorm:"size:255;not null" json:"stored_name"`
	URL        string    `gorm:"size:500;not null" json:"url"`
	Extension  string    `gorm:"size:10" json:"extension"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `gorm:"not null" json:"uploaded_at"`
}

func (ClientFile) TableName() string { return "client_files" }
