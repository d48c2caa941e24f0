package submission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridfts/submitd/internal/server/models"
)

const (
	mib = int64(1 << 20)
	gib = int64(1 << 30)
)

func autoReuseConfig() AutoReuseConfig {
	return AutoReuseConfig{
		Enabled:        true,
		MinFiles:       5,
		MaxFiles:       1000,
		MaxBigFiles:    2,
		SmallSizeLimit: 100 * mib,
		BigSizeLimit:   gib,
	}
}

func sizedFiles(sizes ...int64) []*models.File {
	files := make([]*models.File, len(sizes))
	for i, s := range sizes {
		files[i] = &models.File{UserFilesize: s, HashedID: uint16(i)}
	}
	return files
}

func manySmall(n int) []*models.File {
	sizes := make([]int64, n)
	for i := range sizes {
		sizes[i] = 10 * mib
	}
	return sizedFiles(sizes...)
}

func TestEvaluateAutoReuse_UpgradesSmallBatch(t *testing.T) {
	files := manySmall(6)
	ids := &seqHashedIDs{next: 42}

	got := EvaluateAutoReuse(autoReuseConfig(), models.JobTypeNormal, plainParams(),
		"gsiftp://a.example.org", "gsiftp://x.example.org", files, ids)

	assert.Equal(t, models.JobTypeReuse, got)
	for _, f := range files {
		assert.Equal(t, uint16(42), f.HashedID)
	}
}

func TestEvaluateAutoReuse_Disqualifiers(t *testing.T) {
	staging := plainParams()
	staging.BringOnline = 300

	tests := []struct {
		name    string
		cfg     AutoReuseConfig
		jobType models.JobType
		p       *TransferParams
		srcSE   string
		dstSE   string
		files   []*models.File
	}{
		{"disabled", AutoReuseConfig{}, models.JobTypeNormal, plainParams(),
			"gsiftp://a", "gsiftp://x", manySmall(6)},
		{"already multihop", autoReuseConfig(), models.JobTypeMultihop, plainParams(),
			"gsiftp://a", "gsiftp://x", manySmall(6)},
		{"bring-online", autoReuseConfig(), models.JobTypeNormal, staging,
			"gsiftp://a", "gsiftp://x", manySmall(6)},
		{"mixed source SEs", autoReuseConfig(), models.JobTypeNormal, plainParams(),
			"", "gsiftp://x", manySmall(6)},
		{"too few files", autoReuseConfig(), models.JobTypeNormal, plainParams(),
			"gsiftp://a", "gsiftp://x", manySmall(3)},
		{"unknown filesize", autoReuseConfig(), models.JobTypeNormal, plainParams(),
			"gsiftp://a", "gsiftp://x", sizedFiles(10*mib, 10*mib, 10*mib, 10*mib, 10*mib, 0)},
		{"oversized file", autoReuseConfig(), models.JobTypeNormal, plainParams(),
			"gsiftp://a", "gsiftp://x", sizedFiles(10*mib, 10*mib, 10*mib, 10*mib, 10*mib, 2*gib)},
		{"too many big files", autoReuseConfig(), models.JobTypeNormal, plainParams(),
			"gsiftp://a", "gsiftp://x", sizedFiles(10*mib, 10*mib, 10*mib, 500*mib, 500*mib, 500*mib)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := make([]uint16, len(tc.files))
			for i, f := range tc.files {
				before[i] = f.HashedID
			}

			got := EvaluateAutoReuse(tc.cfg, tc.jobType, tc.p, tc.srcSE, tc.dstSE, tc.files, &seqHashedIDs{next: 99})
			assert.Equal(t, tc.jobType, got)
			for i, f := range tc.files {
				assert.Equal(t, before[i], f.HashedID, "hashed ids must be untouched on a declined upgrade")
			}
		})
	}
}

func TestEvaluateAutoReuse_BigFilesWithinLimit(t *testing.T) {
	files := sizedFiles(10*mib, 10*mib, 10*mib, 10*mib, 500*mib, 500*mib)

	got := EvaluateAutoReuse(autoReuseConfig(), models.JobTypeNormal, plainParams(),
		"gsiftp://a.example.org", "gsiftp://x.example.org", files, &seqHashedIDs{})
	assert.Equal(t, models.JobTypeReuse, got)
}
