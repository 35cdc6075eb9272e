package database

import (
	"context"
	"testing"
)

func TestConnect_InvalidConnString(t *testing.T) {
	if _, err := Connect(context.Background(), "not a connection string"); err == nil {
		t.Error("expected error for malformed connection string")
	}
}
