package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileState_Held(t *testing.T) {
	tests := []struct {
		state FileState
		want  FileState
		ok    bool
	}{
		{FileStateSubmitted, FileStateOnHold, true},
		{FileStateStaging, FileStateOnHoldStaging, true},
		{FileStateNotUsed, "", false},
		{FileStateQosTransition, "", false},
		{FileStateDelete, "", false},
	}
	for _, tc := range tests {
		got, ok := tc.state.Held()
		assert.Equal(t, tc.ok, ok, "state %s", tc.state)
		if tc.ok {
			assert.Equal(t, tc.want, got, "state %s", tc.state)
		}
	}
}

func TestBan_Applies(t *testing.T) {
	voBan := Ban{SE: "gsiftp://a", VO: "atlas", Mode: BanModePlain}
	assert.True(t, voBan.Applies("atlas"))
	assert.False(t, voBan.Applies("cms"))

	wildcard := Ban{SE: "gsiftp://a", VO: BanWildcardVO, Mode: BanModeWaitAsSubmit}
	assert.True(t, wildcard.Applies("atlas"))
	assert.True(t, wildcard.Applies("cms"))
}
