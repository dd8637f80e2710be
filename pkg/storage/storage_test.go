package storage

import (
	"regexp"
	"testing"
	"time"

	appconfig "github.com/richxcame/rider-client/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestReportMediaKey(t *testing.T) {
	now := time.Date(2026, 3, 9, 23, 30, 0, 0, time.FixedZone("x", -5*3600))

	key := ReportMediaKey("ride-42", "Dashcam.MP4", now)
	assert.Regexp(t, regexp.MustCompile(`^rides/ride-42/reports/20260310_[0-9a-f-]{8}\.mp4$`), key)
	assert.NotEqual(t, key, ReportMediaKey("ride-42", "Dashcam.MP4", now))

	assert.Regexp(t, regexp.MustCompile(`^rides/___etc/reports/20260310_[0-9a-f-]{8}$`), ReportMediaKey("../etc", "noext", now))
}

func TestMediaPolicy_Allows(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/png", true},
		{"image/heic", true},
		{"VIDEO/MP4", true},
		{"application/pdf; charset=binary", true},
		{"application/zip", false},
		{"video/webm", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, ReportMedia.Allows(tt.contentType))
		})
	}
	assert.True(t, MediaPolicy{}.Allows("anything"))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentTypeFor("a.JPG"))
	assert.Equal(t, "video/quicktime", ContentTypeFor("clip.mov"))
	assert.Equal(t, "image/heic", ContentTypeFor("IMG_0001.HEIC"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("notes"))
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com", publicBaseURL(appconfig.StorageConfig{BaseURL: "https://cdn.example.com/"}))
	assert.Equal(t, "http://minio:9000/reports", publicBaseURL(appconfig.StorageConfig{Endpoint: "http://minio:9000", Bucket: "reports"}))
	assert.Equal(t, "https://reports.s3.eu-west-1.amazonaws.com", publicBaseURL(appconfig.StorageConfig{Bucket: "reports", Region: "eu-west-1"}))
}
