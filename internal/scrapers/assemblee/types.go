package assemblee

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// GovernmentSentinel is both the marker searched for in an amendment's first section and the
// value ProposedBy serializes to when the government submitted the amendment.
const GovernmentSentinel = "Le Gouvernement"

// Count is a vote tally that may not apply to a given vote (ex. motions of censure only
// count votes in favor). It serializes to -1 when not applicable.
type Count struct {
	value      int
	applicable bool
}

func Counted(n int) Count {
	return Count{value: n, applicable: true}
}

func NotApplicable() Count {
	return Count{}
}

// Value returns the tally and whether it applies.
func (c Count) Value() (int, bool) {
	return c.value, c.applicable
}

func (c Count) Equal(other Count) bool {
	return c == other
}

func (c Count) String() string {
	if !c.applicable {
		return "n/a"
	}
	return fmt.Sprint(c.value)
}

func (c Count) MarshalJSON() ([]byte, error) {
	if !c.applicable {
		return []byte("-1"), nil
	}
	return json.Marshal(c.value)
}

func (c *Count) UnmarshalJSON(data []byte) error {
	var n int
	err := json.Unmarshal(data, &n)
	if err != nil {
		return err
	}
	if n < 0 {
		*c = NotApplicable()
		return nil
	}
	*c = Counted(n)
	return nil
}

// VoteEvent is one entry of a legislature's roll-call listing (a "scrutin").
type VoteEvent struct {
	Id      int64  `json:"id"`
	Name    string `json:"name"`
	Url     string `json:"url"`
	TextUrl string `json:"text_url"`
	// Date is YYYY-MM-DD or empty when the listing does not spell one out.
	Date           string `json:"date"`
	Adopted        bool   `json:"adopted"`
	VoteFor        int    `json:"vote_for"`
	VoteAgainst    Count  `json:"vote_against"`
	VoteAbstention Count  `json:"vote_abstention"`
}

// Participant is a deputy as they appeared on one ballot or proposal, Party is the
// political group code at that time.
type Participant struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Party     string `json:"party"`
}

func (p Participant) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// VoteAnalysis is the per deputy breakdown of a single VoteEvent.
type VoteAnalysis struct {
	Id      int64  `json:"id"`
	Date    string `json:"date"`
	Title   string `json:"title"`
	Adopted bool   `json:"adopted"`
	// Visualizer is a base64 encoded screenshot of the hemicycle, empty when the page has none.
	Visualizer     string        `json:"visualizer"`
	VoteFor        []Participant `json:"vote_for"`
	VoteAgainst    []Participant `json:"vote_against"`
	VoteAbstention []Participant `json:"vote_abstention"`
	VoteAbsent     []Participant `json:"vote_absent"`
}

// Proposers is either the government or a list of deputies.
type Proposers struct {
	Government bool
	Deputies   []Participant
}

func ProposedByGovernment() Proposers {
	return Proposers{Government: true}
}

func ProposedByDeputies(deputies []Participant) Proposers {
	return Proposers{Deputies: deputies}
}

func (p Proposers) MarshalJSON() ([]byte, error) {
	if p.Government {
		return json.Marshal(GovernmentSentinel)
	}
	deputies := p.Deputies
	if deputies == nil {
		deputies = []Participant{}
	}
	return json.Marshal(deputies)
}

func (p *Proposers) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		err := json.Unmarshal(data, &name)
		if err != nil {
			return err
		}
		if name != GovernmentSentinel {
			return fmt.Errorf("unexpected proposer %q", name)
		}
		*p = ProposedByGovernment()
		return nil
	}
	var deputies []Participant
	err := json.Unmarshal(data, &deputies)
	if err != nil {
		return err
	}
	*p = ProposedByDeputies(deputies)
	return nil
}

// Amendment is a proposed modification to a law text.
type Amendment struct {
	Id         int64     `json:"id"`
	Name       string    `json:"name"`
	Url        string    `json:"url"`
	Date       string    `json:"date"`
	Status     string    `json:"status"`
	ProposedBy Proposers `json:"proposed_by"`
	// Summary is the amendment's explanatory statement, empty when the page has none.
	Summary string `json:"summary"`
}
