package assemblee

import "fmt"

type VoteType int

const (
	VOTE_FOR VoteType = iota
	VOTE_AGAINST
	VOTE_ABSTENTION
	VOTE_ABSENT
)

func (v VoteType) String() string {
	switch v {
	case VOTE_FOR:
		return "for"
	case VOTE_AGAINST:
		return "against"
	case VOTE_ABSTENTION:
		return "abstention"
	case VOTE_ABSENT:
		return "absent"
	}
	return fmt.Sprintf("VoteType(%d)", int(v))
}

var voteLabels = map[string]VoteType{
	"Pour":       VOTE_FOR,
	"Contre":     VOTE_AGAINST,
	"Abstention": VOTE_ABSTENTION,
	"Non votant": VOTE_ABSENT,
}

// ClassifyVote maps the label of a ballot row to its VoteType. The vocabulary is closed,
// anything else means the markup changed and is reported as ErrUnknownVoteLabel.
func ClassifyVote(label string) (VoteType, error) {
	voteType, ok := voteLabels[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownVoteLabel, label)
	}
	return voteType, nil
}
