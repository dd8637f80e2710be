// Package storage uploads report attachments to an S3 compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// UploadResult describes a stored attachment
type UploadResult struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Storage is the object store used for report attachments
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	// GetURL returns a URL the backend can fetch key from
	GetURL(key string) string
}

// MediaPolicy restricts what may be attached. A type ending in "/*" matches
// the whole family.
type MediaPolicy struct {
	Types []string
}

// ReportMedia is the policy for driver report attachments.
var ReportMedia = MediaPolicy{Types: []string{"image/*", "video/mp4", "video/quicktime", "application/pdf"}}

// Allows reports whether contentType is accepted. An empty policy accepts anything.
func (p MediaPolicy) Allows(contentType string) bool {
	if len(p.Types) == 0 {
		return true
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	for _, t := range p.Types {
		t = strings.ToLower(t)
		if family, ok := strings.CutSuffix(t, "*"); ok && strings.HasPrefix(ct, family) {
			return true
		}
		if t == ct {
			return true
		}
	}
	return false
}

// phone cameras produce several types the system mime table may lack
var attachmentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".heic": "image/heic",
	".heif": "image/heif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".pdf":  "application/pdf",
}

// ContentTypeFor guesses a file's type from its extension.
func ContentTypeFor(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ct, ok := attachmentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// ReportMediaKey builds a unique object key for an attachment on a ride report:
// rides/{ride_id}/reports/{yyyymmdd}_{short_id}{ext}
func ReportMediaKey(rideID, filename string, now time.Time) string {
	return fmt.Sprintf("rides/%s/reports/%s_%s%s",
		safeSegment(rideID), now.UTC().Format("20060102"), uuid.New().String()[:8], safeExt(filename))
}

func safeSegment(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, s)
}

func safeExt(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 8 || strings.ContainsAny(ext, "/\\ ") {
		return ""
	}
	return ext
}
