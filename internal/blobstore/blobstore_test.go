package blobstore

import "testing"

func TestSplitURI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		object  string
		wantErr bool
	}{
		{"gs://statements/uploads/2026/08/28/abc-invoice.pdf", "statements", "uploads/2026/08/28/abc-invoice.pdf", false},
		{"gs://statements/top-level.pdf", "statements", "top-level.pdf", false},
		{"gs://statements", "", "", true},
		{"gs://statements/", "", "", true},
		{"https://example.com/file.pdf", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := splitURI(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("splitURI failed: %v", err)
			}
			if bucket != tt.bucket || object != tt.object {
				t.Errorf("got %q/%q, want %q/%q", bucket, object, tt.bucket, tt.object)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"gs://statements/uploads/2026/08/28/abc-invoice.pdf", "abc-invoice.pdf"},
		{"gs://statements/statement.csv", "statement.csv"},
		// Unparseable URIs come back unchanged rather than as a bogus base.
		{"not-a-uri", "not-a-uri"},
	}

	for _, tt := range tests {
		if got := Filename(tt.uri); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}
