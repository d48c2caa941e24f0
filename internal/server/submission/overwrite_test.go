package submission

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridfts/submitd/internal/server/models"
)

func httpTransfer(dest string) Transfer {
	return Transfer{Destination: dest, DestScheme: "davs"}
}

func TestResolveOverwrite_SingleFlags(t *testing.T) {
	ctx := context.Background()
	log := testLogger()

	tests := []struct {
		name string
		p    TransferParams
		want models.OverwriteFlag
	}{
		{"none", TransferParams{}, models.OverwriteNone},
		{"always", TransferParams{Overwrite: true}, models.OverwriteAlways},
		{"on retry", TransferParams{OverwriteOnRetry: true}, models.OverwriteOnRetry},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveOverwrite(ctx, &tc.p, models.JobTypeNormal, nil, true, log)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveOverwrite_IncompatibleCombination(t *testing.T) {
	p := TransferParams{Overwrite: true, OverwriteOnRetry: true}
	_, err := ResolveOverwrite(context.Background(), &p, models.JobTypeNormal, nil, true, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPolicyViolation)
}

func TestResolveOverwrite_HopPlusDiskOnly(t *testing.T) {
	p := TransferParams{OverwriteHop: true, OverwriteWhenOnlyOnDisk: true, ArchiveTimeout: 3600}
	transfers := []Transfer{
		{Destination: "gsiftp://hop.example.org/f", DestScheme: "gsiftp"},
		httpTransfer("davs://tape.example.org/f"),
	}

	got, err := ResolveOverwrite(context.Background(), &p, models.JobTypeMultihop, transfers, true, testLogger())
	require.NoError(t, err)
	assert.Equal(t, models.OverwriteHopAndDiskOnly, got)
}

func TestResolveOverwrite_DiskOnlyNeedsArchiveTimeout(t *testing.T) {
	p := TransferParams{OverwriteWhenOnlyOnDisk: true}
	_, err := ResolveOverwrite(context.Background(), &p, models.JobTypeNormal,
		[]Transfer{httpTransfer("davs://tape.example.org/f")}, true, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPolicyViolation)
	assert.Contains(t, err.Error(), "archive_timeout")
}

func TestResolveOverwrite_DiskOnlyNeedsHTTPDestination(t *testing.T) {
	p := TransferParams{OverwriteWhenOnlyOnDisk: true, ArchiveTimeout: 3600}
	_, err := ResolveOverwrite(context.Background(), &p, models.JobTypeNormal,
		[]Transfer{{Destination: "gsiftp://dst.example.org/f", DestScheme: "gsiftp"}}, true, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPolicyViolation)
}

func TestResolveOverwrite_DiskOnlyMultihopChecksFinalHopOnly(t *testing.T) {
	p := TransferParams{OverwriteWhenOnlyOnDisk: true, ArchiveTimeout: 3600}
	transfers := []Transfer{
		{Destination: "gsiftp://hop.example.org/f", DestScheme: "gsiftp"},
		httpTransfer("https://tape.example.org/f"),
	}
	transfers[1].DestScheme = "https"

	got, err := ResolveOverwrite(context.Background(), &p, models.JobTypeMultihop, transfers, true, testLogger())
	require.NoError(t, err)
	assert.Equal(t, models.OverwriteDiskOnly, got)
}

func TestResolveOverwrite_HopOutsideMultihop(t *testing.T) {
	p := TransferParams{OverwriteHop: true}

	t.Run("strict rejects", func(t *testing.T) {
		_, err := ResolveOverwrite(context.Background(), &p, models.JobTypeNormal, nil, true, testLogger())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPolicyViolation)
	})

	t.Run("lenient warns and keeps the flag", func(t *testing.T) {
		got, err := ResolveOverwrite(context.Background(), &p, models.JobTypeNormal, nil, false, testLogger())
		require.NoError(t, err)
		assert.Equal(t, models.OverwriteHop, got)
	})
}
