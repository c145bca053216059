package main

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/VaultBox/internal/model"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		mediaType string
		want      model.FileType
	}{
		{"image/png", model.TypeImage},
		{"image/svg+xml", model.TypeImage},
		{"video/mp4", model.TypeVideo},
		{"application/pdf", model.TypePDF},
		{"text/plain", model.TypeText},
		{"application/octet-stream", model.TypeText},
	}
	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			assert.Equal(t, tt.want, detectType(tt.mediaType))
		})
	}
}

func TestReadUpload(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0o600))
		return path
	}
	png := write("pic.png", []byte("\x89PNG\r\n"))
	pdf := write("report.pdf", []byte("%PDF-1.7"))
	blob := write("data.vbxunknown", []byte("raw"))

	tests := []struct {
		name       string
		path       string
		storedName string
		fileType   string
		wantName   string
		wantType   model.FileType
		wantPrefix string
		wantErr    bool
	}{
		{name: "image by extension", path: png, wantName: "pic.png", wantType: model.TypeImage, wantPrefix: "data:image/png;base64,"},
		{name: "pdf with custom name", path: pdf, storedName: "Q1 Report", wantName: "Q1 Report", wantType: model.TypePDF, wantPrefix: "data:application/pdf;base64,"},
		{name: "unknown extension falls back to text", path: blob, wantName: "data.vbxunknown", wantType: model.TypeText, wantPrefix: "data:application/octet-stream;base64,"},
		{name: "explicit type wins", path: png, fileType: "video", wantName: "pic.png", wantType: model.TypeVideo, wantPrefix: "data:image/png;base64,"},
		{name: "invalid explicit type", path: png, fileType: "audio", wantErr: true},
		{name: "missing file", path: filepath.Join(dir, "nope.txt"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readUpload(tt.path, tt.storedName, tt.fileType, "some details")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, "some details", got.Details)

			data, err := os.ReadFile(tt.path)
			require.NoError(t, err)
			assert.Equal(t, int64(len(data)), got.Size)
			require.True(t, strings.HasPrefix(got.Content, tt.wantPrefix), got.Content)
			decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got.Content, tt.wantPrefix))
			require.NoError(t, err)
			assert.Equal(t, data, decoded)
		})
	}
}
