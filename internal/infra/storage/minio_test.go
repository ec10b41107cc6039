package storage

import "testing"

func TestParseMediaURL(t *testing.T) {
	tests := []struct {
		raw     string
		want    Location
		wantErr bool
	}{
		{"s3://pitches/u1/demo.mp4", Location{Bucket: "pitches", Key: "u1/demo.mp4"}, false},
		{"minio://media/a.webm", Location{Bucket: "media", Key: "a.webm"}, false},
		{"u1/demo.mp4", Location{Bucket: "default", Key: "u1/demo.mp4"}, false},
		{"/u1/demo.mp4", Location{Bucket: "default", Key: "u1/demo.mp4"}, false},
		{"https://cdn.example.com/v.mp4", Location{External: "https://cdn.example.com/v.mp4"}, false},
		{"s3://bucket-only", Location{}, true},
		{"ftp://host/file", Location{}, true},
		{"  ", Location{}, true},
	}
	for _, tt := range tests {
		got, err := ParseMediaURL(tt.raw, "default")
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMediaURL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMediaURL(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}
