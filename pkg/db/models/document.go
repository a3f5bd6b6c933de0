package models

import (
	"time"

	"github.com/Dj0083/final-project-sub000/pkg/enums"
)

// Document references an uploaded binary held by the object store. SingletonKey is
// set only for single-instance types so the unique index ignores every other row.
// StorageKey is the object key from the upload and is not persisted.
type Document struct {
	ID           uint64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ThreadType   enums.ThreadType `gorm:"column:thread_type;type:varchar(32);not null;index:ix_documents_thread;uniqueIndex:ux_documents_singleton" json:"thread_type"`
	ThreadID     uint64           `gorm:"column:thread_id;not null;index:ix_documents_thread;uniqueIndex:ux_documents_singleton" json:"thread_id"`
	UploaderID   uint64           `gorm:"column:uploader_id;not null" json:"uploader_id"`
	DocType      enums.DocType    `gorm:"column:doc_type;type:varchar(32);not null" json:"doc_type"`
	FilePath     string           `gorm:"column:file_path;not null" json:"file_path"`
	MimeType     string           `gorm:"column:mime_type;not null" json:"mime_type"`
	SingletonKey *string          `gorm:"column:singleton_key;uniqueIndex:ux_documents_singleton" json:"-"`
	StorageKey   string           `gorm:"-" json:"-"`
	CreatedAt    time.Time        `gorm:"column:created_at;not null" json:"created_at"`
}

func (Document) TableName() string { return "documents" }
