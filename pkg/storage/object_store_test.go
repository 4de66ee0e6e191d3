package storage

import "testing"

func TestNewMinioStoreRequiresEndpointAndBucket(t *testing.T) {
	if _, err := NewMinioStore("", "key", "secret", "certificates", false); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
	if _, err := NewMinioStore("minio.local:9000", "key", "secret", "", false); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}
