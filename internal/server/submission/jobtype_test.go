package submission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridfts/submitd/internal/server/models"
)

// seqHashedIDs hands out a fixed, predictable sequence.
type seqHashedIDs struct {
	next uint16
}

func (s *seqHashedIDs) Next() uint16 {
	v := s.next
	s.next++
	return v
}

func TestResolveJobType(t *testing.T) {
	single := []Transfer{{FileIndex: 0}}
	replicas := []Transfer{{FileIndex: 0}, {FileIndex: 0}}

	tests := []struct {
		name      string
		p         TransferParams
		transfers []Transfer
		want      models.JobType
		wantErr   bool
	}{
		{"plain", TransferParams{}, single, models.JobTypeNormal, false},
		{"multihop", TransferParams{Multihop: true}, []Transfer{{FileIndex: 0}, {FileIndex: 1}}, models.JobTypeMultihop, false},
		{"reuse", TransferParams{Reuse: true}, single, models.JobTypeReuse, false},
		{"replicas", TransferParams{}, replicas, models.JobTypeMultiReplica, false},
		{"multihop plus reuse", TransferParams{Multihop: true, Reuse: true}, single, "", true},
		{"multihop plus replicas", TransferParams{Multihop: true}, replicas, "", true},
		{"multihop plus replicas in later entry", TransferParams{Multihop: true},
			[]Transfer{{FileIndex: 0}, {FileIndex: 1}, {FileIndex: 1}}, "", true},
		{"reuse plus replicas", TransferParams{Reuse: true}, replicas, "", true},
		{"replicas with extra entry", TransferParams{}, []Transfer{{FileIndex: 0}, {FileIndex: 0}, {FileIndex: 1}}, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveJobType(&tc.p, tc.transfers)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrPolicyViolation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEntryState(t *testing.T) {
	assert.Equal(t, models.FileStateSubmitted, EntryState(&TransferParams{BringOnline: -1, CopyPinLifetime: -1}))
	assert.Equal(t, models.FileStateStaging, EntryState(&TransferParams{BringOnline: 300}))
	assert.Equal(t, models.FileStateStaging, EntryState(&TransferParams{CopyPinLifetime: 600}))
	assert.Equal(t, models.FileStateQosTransition, EntryState(&TransferParams{TargetQoS: "TAPE", BringOnline: -1}))

	// Bring-online takes precedence over a QoS transition.
	assert.Equal(t, models.FileStateStaging, EntryState(&TransferParams{TargetQoS: "TAPE", BringOnline: 300}))
}

func TestJobStateMirrorsEntryState(t *testing.T) {
	assert.Equal(t, models.JobStateSubmitted, jobState(models.FileStateSubmitted))
	assert.Equal(t, models.JobStateStaging, jobState(models.FileStateStaging))
	assert.Equal(t, models.JobStateQosTransition, jobState(models.FileStateQosTransition))
}

func TestGrouped(t *testing.T) {
	plain := &TransferParams{BringOnline: -1, CopyPinLifetime: -1}
	staging := &TransferParams{BringOnline: 300}

	assert.False(t, grouped(models.JobTypeNormal, plain))
	assert.True(t, grouped(models.JobTypeNormal, staging))
	assert.True(t, grouped(models.JobTypeReuse, plain))
	assert.True(t, grouped(models.JobTypeMultihop, plain))
	assert.True(t, grouped(models.JobTypeMultiReplica, plain))
}
