package assemblee

import "errors"

var (
	// ErrFetch is returned when a page could not be retrieved or answered with a non 2xx status.
	ErrFetch = errors.New("fetch failed")
	// ErrStructure is returned when an expected region of the markup is absent or malformed.
	ErrStructure = errors.New("unexpected page structure")
	// ErrVoteCountMissing is returned when a listing entry has neither vote tally layout.
	ErrVoteCountMissing = errors.New("vote count missing")
	// ErrUnknownVoteLabel is returned when a ballot row carries a label outside the known vocabulary.
	ErrUnknownVoteLabel = errors.New("unknown vote label")
	// ErrProposerPartyNotFound is returned when an amendment proposer has no political group on the page.
	ErrProposerPartyNotFound = errors.New("proposer party not found")
)
