package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileStatsAdd(t *testing.T) {
	var s FileStats
	s.Add(TypeImage, 2)
	s.Add(TypePDF, 1)
	s.Add(TypeText, 3)
	s.Add(FileType("audio"), 5)

	assert.Equal(t, FileStats{Image: 2, PDF: 1, Video: 0, Text: 3, Total: 6}, s)
}

func TestFileTypeValid(t *testing.T) {
	for _, ft := range FileTypes {
		assert.True(t, ft.Valid(), ft)
	}
	assert.False(t, FileType("").Valid())
	assert.False(t, FileType("Image").Valid())
}

func TestFilePatchApply(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f := &FileItem{
		ID:        "1-abc",
		UserID:    "u1",
		Name:      "notes.txt",
		Type:      TypeText,
		Size:      4,
		Content:   "todo",
		Details:   "groceries",
		CreatedAt: created,
		UpdatedAt: created,
	}
	name := "list.txt"
	later := created.Add(time.Hour)

	patch := FilePatch{Name: &name}
	assert.False(t, patch.Empty())
	patch.Apply(f, later)

	assert.Equal(t, "list.txt", f.Name)
	assert.Equal(t, "todo", f.Content)
	assert.Equal(t, "groceries", f.Details)
	assert.Equal(t, "u1", f.UserID)
	assert.Equal(t, created, f.CreatedAt)
	assert.Equal(t, later, f.UpdatedAt)

	assert.True(t, FilePatch{}.Empty())
}
