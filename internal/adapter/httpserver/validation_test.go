package httpserver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateID(t *testing.T) {
	cases := []struct {
		name  string
		id    string
		valid bool
		code  string
	}{
		{"empty", "", false, "REQUIRED"},
		{"too_long", strings.Repeat("a", 101), false, "TOO_LONG"},
		{"invalid_chars", "abc$%", false, "INVALID_FORMAT"},
		{"valid", "batch_01HZX-abc", true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ValidateID("id", tc.id)
			assert.Equal(t, tc.valid, res.Valid)
			if !tc.valid {
				require.Len(t, res.Errors, 1)
				assert.Equal(t, tc.code, res.Errors[0].Code)
			}
		})
	}
}

func TestValidateK(t *testing.T) {
	k, res := ValidateK("")
	assert.True(t, res.Valid)
	assert.Equal(t, 0, k)

	k, res = ValidateK("3")
	assert.True(t, res.Valid)
	assert.Equal(t, 3, k)

	for _, raw := range []string{"0", "-2", "x"} {
		_, res = ValidateK(raw)
		assert.False(t, res.Valid, raw)
	}
}

func TestValidateStruct(t *testing.T) {
	res := ValidateStruct(runRequest{JobID: "job_1", CandidateIDs: []string{"cand_1"}})
	assert.True(t, res.Valid)

	res = ValidateStruct(runRequest{CandidateIDs: []string{""}})
	require.False(t, res.Valid)
	fields := map[string]string{}
	for _, e := range res.Errors {
		fields[e.Field] = e.Code
	}
	assert.Equal(t, "REQUIRED", fields["job_id"])
	assert.Equal(t, "REQUIRED", fields["candidate_ids[0]"])

	res = ValidateStruct(createJobRequest{Title: "x", Rubric: []rubricItemRequest{{Key: "k", Weight: -1}}})
	require.False(t, res.Valid)
	assert.Equal(t, "rubric[0].weight", res.Errors[0].Field)
	assert.Equal(t, "GTE", res.Errors[0].Code)
}
