package telemetry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestScanIDRoundTrip(t *testing.T) {
	id := NewScanID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	ctx := WithScanID(context.Background(), id)
	got, ok := ScanIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, got)
}

func TestScanIDMissing(t *testing.T) {
	_, ok := ScanIDFromContext(context.Background())
	require.False(t, ok)

	ctx := WithScanID(context.Background(), "")
	_, ok = ScanIDFromContext(ctx)
	require.False(t, ok)
}

func TestBuildIDsAreUnique(t *testing.T) {
	require.NotEqual(t, NewBuildID(), NewBuildID())
}
