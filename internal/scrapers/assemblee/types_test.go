package assemblee

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestVoteEventJson(t *testing.T) {
	censure := VoteEvent{
		Id:             3166,
		Name:           "motion de censure",
		Url:            "/dyn/17/scrutins/3166",
		Date:           "2025-10-30",
		VoteFor:        271,
		VoteAgainst:    NotApplicable(),
		VoteAbstention: NotApplicable(),
	}
	serialized, err := json.Marshal(censure)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"id": 3166,
		"name": "motion de censure",
		"url": "/dyn/17/scrutins/3166",
		"text_url": "",
		"date": "2025-10-30",
		"adopted": false,
		"vote_for": 271,
		"vote_against": -1,
		"vote_abstention": -1
	}`, string(serialized))

	var decoded VoteEvent
	require.NoError(t, json.Unmarshal(serialized, &decoded))
	if diff := cmp.Diff(censure, decoded); diff != "" {
		t.Fatal(diff)
	}

	regular := censure
	regular.VoteAgainst = Counted(0)
	regular.VoteAbstention = Counted(12)
	serialized, err = json.Marshal(regular)
	require.NoError(t, err)
	require.Contains(t, string(serialized), `"vote_against":0`)
	require.Contains(t, string(serialized), `"vote_abstention":12`)
}

func TestCount(t *testing.T) {
	n, ok := Counted(0).Value()
	require.True(t, ok)
	require.Equal(t, 0, n)

	_, ok = NotApplicable().Value()
	require.False(t, ok)

	require.False(t, Counted(0).Equal(NotApplicable()))
	require.Equal(t, "n/a", NotApplicable().String())
	require.Equal(t, "42", Counted(42).String())
}

func TestProposersJson(t *testing.T) {
	serialized, err := json.Marshal(ProposedByGovernment())
	require.NoError(t, err)
	require.Equal(t, `"Le Gouvernement"`, string(serialized))

	var decoded Proposers
	require.NoError(t, json.Unmarshal(serialized, &decoded))
	require.True(t, decoded.Government)

	deputies := ProposedByDeputies([]Participant{
		{FirstName: "Jeanne", LastName: "de Fleurian", Party: "RN"},
	})
	serialized, err = json.Marshal(deputies)
	require.NoError(t, err)
	require.JSONEq(t, `[{"first_name":"Jeanne","last_name":"de Fleurian","party":"RN"}]`, string(serialized))

	decoded = Proposers{}
	require.NoError(t, json.Unmarshal(serialized, &decoded))
	require.False(t, decoded.Government)
	require.Equal(t, deputies.Deputies, decoded.Deputies)

	serialized, err = json.Marshal(ProposedByDeputies(nil))
	require.NoError(t, err)
	require.Equal(t, `[]`, string(serialized))

	require.Error(t, json.Unmarshal([]byte(`"Le Président"`), &decoded))
}
