package assemblee

import (
	"context"
	"fmt"
	"strings"

	"anscrutins/internal/components/chrono"
	"anscrutins/lib/htmlutil"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ExtractAmendment extracts an amendment's proposers, status and summary from its page.
func (c *Client) ExtractAmendment(ctx context.Context, amendmentUrl string) (Amendment, error) {
	ctx, span := tracer.Start(ctx, "ExtractAmendment")
	defer span.End()
	span.SetAttributes(attribute.String("url", amendmentUrl))

	fail := func(err error) (Amendment, error) {
		c.tel.ReportBroken(report_client_extract_amendment, err, amendmentUrl)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to extract amendment")
		return Amendment{}, err
	}

	id, err := IdFromUrl(amendmentUrl)
	if err != nil {
		return fail(err)
	}
	doc, err := c.fetch(ctx, amendmentUrl)
	if err != nil {
		return fail(err)
	}
	amendment, err := ParseAmendment(doc)
	if err != nil {
		return fail(err)
	}
	amendment.Id = id
	amendment.Url = amendmentUrl
	return amendment, nil
}

// ParseAmendment extracts everything but the id and url off an amendment page.
func ParseAmendment(doc htmlutil.Scope) (Amendment, error) {
	// the page repeats the same container for the proposers, the amended article
	// and the summary, the summary is always the last one
	sections := doc.FindAll("div.amendement-section-body")
	if len(sections) == 0 {
		return Amendment{}, missing("amendment sections")
	}

	var paragraphs []string
	for _, p := range sections[len(sections)-1].FindAll("p") {
		paragraphs = append(paragraphs, p.Text())
	}
	summary := strings.Join(paragraphs, "\n")

	proposedBy := ProposedByGovernment()
	if !strings.Contains(sections[0].Text(), GovernmentSentinel) {
		deputies, err := parseProposers(doc)
		if err != nil {
			return Amendment{}, err
		}
		proposedBy = ProposedByDeputies(deputies)
	}

	status, ok := doc.FindOne("div.amendement-fate span")
	if !ok {
		return Amendment{}, missing("status")
	}
	dateLabel, ok := doc.FindOne("div.mirror-card-subtitle b")
	if !ok {
		return Amendment{}, missing("date label")
	}
	detail, ok := doc.FindOne("div.amendement-detail")
	if !ok {
		return Amendment{}, missing("amendment detail")
	}
	detailSpans := detail.FindAll("span")
	if len(detailSpans) < 2 {
		return Amendment{}, missing("amendment name")
	}

	return Amendment{
		Name:       detailSpans[1].Text(),
		Date:       chrono.ParseFrenchDate(dateLabel.Text()),
		Status:     status.Text(),
		ProposedBy: proposedBy,
		Summary:    summary,
	}, nil
}

// parseProposers resolves each listed proposer and recovers their political group from
// the page's deputy directory, which is keyed by "<first name> <last name>".
func parseProposers(doc htmlutil.Scope) ([]Participant, error) {
	names := doc.FindAll("ul.acteur-list-embed--names li")
	if len(names) == 0 {
		return nil, missing("proposer list")
	}

	directory := make(map[string]string)
	for _, entry := range doc.FindAll("div[data-nom]") {
		name, _ := entry.Attr("data-nom")
		party, ok := entry.Attr("data-gp")
		if !ok {
			continue
		}
		name = htmlutil.CleanText(name)
		if _, exists := directory[name]; !exists {
			directory[name] = party
		}
	}

	proposers := make([]Participant, 0, len(names))
	for _, li := range names {
		label, ok := li.FindOne("span")
		if !ok {
			return nil, missing("proposer name")
		}
		firstName, lastName := ResolveName(label.Text())
		proposer := Participant{FirstName: firstName, LastName: lastName}

		party, ok := directory[proposer.FullName()]
		if !ok {
			return nil, fmt.Errorf(
				"%w: %q (closest directory entry %q)",
				ErrProposerPartyNotFound, proposer.FullName(), closestName(proposer.FullName(), directory),
			)
		}
		proposer.Party = party
		proposers = append(proposers, proposer)
	}
	return proposers, nil
}

// closestName is only used to make ErrProposerPartyNotFound easier to investigate,
// a close match is never accepted in place of an exact one.
func closestName(name string, directory map[string]string) string {
	var best string
	var bestSimilarity float64
	for candidate := range directory {
		similarity := matchr.JaroWinkler(name, candidate, false)
		if similarity > bestSimilarity || (similarity == bestSimilarity && candidate < best) {
			best = candidate
			bestSimilarity = similarity
		}
	}
	return best
}
