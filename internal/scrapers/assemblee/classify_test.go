package assemblee

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyVote(t *testing.T) {
	cases := []struct {
		label    string
		expected VoteType
	}{
		{label: "Pour", expected: VOTE_FOR},
		{label: "Contre", expected: VOTE_AGAINST},
		{label: "Abstention", expected: VOTE_ABSTENTION},
		{label: "Non votant", expected: VOTE_ABSENT},
	}
	for _, test := range cases {
		voteType, err := ClassifyVote(test.label)
		require.NoError(t, err)
		require.Equal(t, test.expected, voteType)
	}

	for _, label := range []string{"pour", "CONTRE", "Non-votant", "Absent", ""} {
		_, err := ClassifyVote(label)
		require.True(t, errors.Is(err, ErrUnknownVoteLabel), label)
	}
}
