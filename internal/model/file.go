// Package model contains simple struct definitions shared across packages.
package model

import (
	"time"
)

// FileType is the closed set of kinds a stored file can have.
type FileType string

const (
	TypeImage FileType = "image"
	TypePDF   FileType = "pdf"
	TypeVideo FileType = "video"
	TypeText  FileType = "text"
)

// FileTypes lists every valid FileType in display order.
var FileTypes = []FileType{TypeImage, TypePDF, TypeVideo, TypeText}

// Valid reports whether t is one of the known file types.
func (t FileType) Valid() bool {
	switch t {
	case TypeImage, TypePDF, TypeVideo, TypeText:
		return true
	}
	return false
}

// FileItem is a stored file. Content holds raw text for notes and a data URI
// for binary files.
type FileItem struct {
	ID        string    `json:"id" bson:"id"`
	UserID    string    `json:"userId" bson:"userId"`
	Name      string    `json:"name" bson:"name"`
	Type      FileType  `json:"type" bson:"type"`
	Size      int64     `json:"size" bson:"size"`
	Content   string    `json:"content" bson:"content"`
	Details   string    `json:"details,omitempty" bson:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// FilePatch carries a partial update. Nil fields are left untouched; owner,
// id and creation time are not patchable.
type FilePatch struct {
	Name    *string   `json:"name,omitempty"`
	Type    *FileType `json:"type,omitempty"`
	Size    *int64    `json:"size,omitempty"`
	Content *string   `json:"content,omitempty"`
	Details *string   `json:"details,omitempty"`
}

// Empty reports whether the patch changes nothing besides the update time.
func (p FilePatch) Empty() bool {
	return p.Name == nil && p.Type == nil && p.Size == nil && p.Content == nil && p.Details == nil
}

// Apply merges the patch into f and stamps UpdatedAt.
func (p FilePatch) Apply(f *FileItem, now time.Time) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Type != nil {
		f.Type = *p.Type
	}
	if p.Size != nil {
		f.Size = *p.Size
	}
	if p.Content != nil {
		f.Content = *p.Content
	}
	if p.Details != nil {
		f.Details = *p.Details
	}
	f.UpdatedAt = now
}

// FileStats is the per-type count of an owner's files.
type FileStats struct {
	Image int64 `json:"image"`
	PDF   int64 `json:"pdf"`
	Video int64 `json:"video"`
	Text  int64 `json:"text"`
	Total int64 `json:"total"`
}

// Add counts n files of type t. Unknown types are ignored.
func (s *FileStats) Add(t FileType, n int64) {
	switch t {
	case TypeImage:
		s.Image += n
	case TypePDF:
		s.PDF += n
	case TypeVideo:
		s.Video += n
	case TypeText:
		s.Text += n
	default:
		return
	}
	s.Total += n
}
