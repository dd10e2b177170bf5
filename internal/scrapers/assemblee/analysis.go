package assemblee

import (
	"context"
	"fmt"
	"strings"

	"anscrutins/internal/components/chrono"
	"anscrutins/lib/htmlutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ballotRow is one vote type row of a political group: its label and the deputies under it.
type ballotRow struct {
	group     string
	voteType  VoteType
	announced int
	voters    []Participant
}

// Ballots holds the four vote buckets of a VoteAnalysis.
type Ballots struct {
	For        []Participant
	Against    []Participant
	Abstention []Participant
	Absent     []Participant
}

// analysisPage is everything extracted from a vote detail page before rendering.
type analysisPage struct {
	date          string
	title         string
	adopted       bool
	visualizerUrl string
	rows          []ballotRow
}

// AnalyzeVote extracts the per deputy breakdown of a vote from its detail page.
func (c *Client) AnalyzeVote(ctx context.Context, detailUrl string) (VoteAnalysis, error) {
	ctx, span := tracer.Start(ctx, "AnalyzeVote")
	defer span.End()
	span.SetAttributes(attribute.String("url", detailUrl))

	fail := func(err error) (VoteAnalysis, error) {
		c.tel.ReportBroken(report_client_analyze_vote, err, detailUrl)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to analyze vote")
		return VoteAnalysis{}, err
	}

	id, err := IdFromUrl(detailUrl)
	if err != nil {
		return fail(err)
	}
	doc, err := c.fetch(ctx, detailUrl)
	if err != nil {
		return fail(err)
	}
	page, err := parseAnalysisPage(doc)
	if err != nil {
		return fail(err)
	}

	for _, row := range page.rows {
		if row.announced >= 0 && row.announced != len(row.voters) {
			c.tel.ReportWarning(
				report_client_analyze_vote,
				"announced count differs from listed voters",
				detailUrl, row.group, row.voteType.String(), row.announced, len(row.voters),
			)
		}
	}

	ballots, err := foldBallots(page.rows)
	if err != nil {
		return fail(err)
	}

	visualizer := ""
	if page.visualizerUrl != "" && c.renderer != nil {
		target, err := c.absoluteUrl(page.visualizerUrl)
		if err != nil {
			return fail(fmt.Errorf("visualizer url: %w", err))
		}
		visualizer, err = c.renderer.Capture(ctx, target)
		if err != nil {
			return fail(fmt.Errorf("render visualizer: %w", err))
		}
	}

	return VoteAnalysis{
		Id:             id,
		Date:           page.date,
		Title:          page.title,
		Adopted:        page.adopted,
		Visualizer:     visualizer,
		VoteFor:        ballots.For,
		VoteAgainst:    ballots.Against,
		VoteAbstention: ballots.Abstention,
		VoteAbsent:     ballots.Absent,
	}, nil
}

func parseAnalysisPage(doc htmlutil.Scope) (analysisPage, error) {
	breakdown, ok := doc.FindOne("div.ha-grid-item._size-3")
	if !ok {
		return analysisPage{}, missing("vote breakdown")
	}
	info, ok := doc.FindOne("div.relative-flex._vertical")
	if !ok {
		return analysisPage{}, missing("vote info")
	}
	dateLabel, ok := info.FindOne("h2")
	if !ok {
		return analysisPage{}, missing("date label")
	}
	title, ok := info.FindOne("p")
	if !ok {
		return analysisPage{}, missing("title")
	}
	_, adopted := doc.FindOne("span._colored-green._bold")

	visualizerUrl := ""
	if embed, ok := doc.FindOne(`div[data-targetembedid="embedHemicycle"]`); ok {
		visualizerUrl, _ = embed.Attr("data-content")
	}

	var rows []ballotRow
	for _, group := range breakdown.FindAll("ul.simple-tree-list._large-border") {
		groupRows, err := visitGroup(group)
		if err != nil {
			return analysisPage{}, err
		}
		rows = append(rows, groupRows...)
	}

	return analysisPage{
		date:          chrono.ParseFrenchDate(dateLabel.Text()),
		title:         title.Text(),
		adopted:       adopted,
		visualizerUrl: visualizerUrl,
		rows:          rows,
	}, nil
}

// visitGroup classifies every vote type row of one political group.
func visitGroup(group htmlutil.Scope) ([]ballotRow, error) {
	id, ok := group.Attr("id")
	if !ok || id == "" {
		return nil, missing("group id")
	}
	code := strings.TrimPrefix(id, "groupe")

	var rows []ballotRow
	for _, item := range group.FindAll("li.relative-flex._vertical") {
		row, err := visitRow(code, item)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", code, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func visitRow(group string, item htmlutil.Scope) (ballotRow, error) {
	spans := item.FindAll("span")
	if len(spans) == 0 {
		return ballotRow{}, missing("vote label")
	}
	voteType, err := ClassifyVote(spans[0].Text())
	if err != nil {
		return ballotRow{}, err
	}

	announced := -1
	if len(spans) > 1 {
		if n, err := parseCount(spans[1].Text()); err == nil {
			announced = n
		}
	}

	list, ok := item.FindOne("ul")
	if !ok {
		return ballotRow{}, missing("voter list")
	}
	entries := list.FindAll("li")
	voters := make([]Participant, 0, len(entries))
	for _, entry := range entries {
		firstName, lastName := ResolveName(entry.Text())
		if firstName == "" {
			return ballotRow{}, fmt.Errorf("%w: unreadable voter %q", ErrStructure, entry.Text())
		}
		voters = append(voters, Participant{
			FirstName: firstName,
			LastName:  lastName,
			Party:     group,
		})
	}

	return ballotRow{
		group:     group,
		voteType:  voteType,
		announced: announced,
		voters:    voters,
	}, nil
}

// foldBallots sorts the rows' voters into their buckets. Every bucket is its own slice,
// a deputy showing up twice on one page means the markup was misread and is an error.
func foldBallots(rows []ballotRow) (Ballots, error) {
	ballots := Ballots{
		For:        []Participant{},
		Against:    []Participant{},
		Abstention: []Participant{},
		Absent:     []Participant{},
	}
	seen := make(map[Participant]VoteType)

	for _, row := range rows {
		for _, voter := range row.voters {
			if previous, duplicate := seen[voter]; duplicate {
				return Ballots{}, fmt.Errorf(
					"%w: duplicate ballot for %s (%s) under %s and %s",
					ErrStructure, voter.FullName(), voter.Party, previous, row.voteType,
				)
			}
			seen[voter] = row.voteType

			switch row.voteType {
			case VOTE_FOR:
				ballots.For = append(ballots.For, voter)
			case VOTE_AGAINST:
				ballots.Against = append(ballots.Against, voter)
			case VOTE_ABSTENTION:
				ballots.Abstention = append(ballots.Abstention, voter)
			case VOTE_ABSENT:
				ballots.Absent = append(ballots.Absent, voter)
			}
		}
	}
	return ballots, nil
}
