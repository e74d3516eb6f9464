package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// StorageMode says how a document payload is stored
type StorageMode string

const (
	StoragePlain     StorageMode = "plain"
	StorageEncrypted StorageMode = "encrypted"
)

// Envelope is an AES-256-GCM sealed payload
type Envelope struct {
	IV         []byte `json:"iv"`
	Tag        []byte `json:"tag"`
	Ciphertext []byte `json:"data"`
}

// Payload holds document content in exactly one of its storage forms
type Payload struct {
	Plain    []byte
	Envelope *Envelope
}

// Document is an uploaded student file
type Document struct {
	ID            uuid.UUID   `json:"id"`
	StudentID     string      `json:"studentId"`
	ReceiverGroup string      `json:"receiverGroup"`
	DataGroup     string      `json:"dataGroup"`
	FileName      string      `json:"fileName"`
	MimeType      string      `json:"mimeType"`
	SizeBytes     int64       `json:"sizeBytes"`
	StorageMode   StorageMode `json:"storageMode"`
	SharedWith    []string    `json:"sharedWith"`
	Payload       Payload     `json:"-"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// IsOwnedBy checks document ownership
func (d *Document) IsOwnedBy(studentID string) bool {
	return d.StudentID == studentID
}

// IsSharedWith checks the owner's sharing allow-list
func (d *Document) IsSharedWith(group string) bool {
	return slices.Contains(d.SharedWith, group)
}

// Access modes for a download
const (
	AccessModeOwner  = "owner"
	AccessModeShared = "shared"
)
