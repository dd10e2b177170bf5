package assemblee

import (
	"context"
	"fmt"

	"anscrutins/internal/components/chrono"
	"anscrutins/lib/htmlutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ListingUrl is the site relative url of one page of a legislature's vote listing.
func ListingUrl(legislature, page int) string {
	return fmt.Sprintf("/dyn/%d/scrutins?order=date,desc&limit=100&page=%d", legislature, page)
}

// ListVotes walks the paginated vote listing of a legislature and returns every entry it could
// parse, in the order they were discovered. maxPages <= 0 visits every page.
//
// Only failing to read the first page (or its page count) is returned as an error, a broken
// entry or a later page that fails to load is reported and skipped.
func (c *Client) ListVotes(ctx context.Context, legislature, maxPages int) ([]VoteEvent, error) {
	ctx, span := tracer.Start(ctx, "ListVotes")
	defer span.End()
	span.SetAttributes(attribute.Int("legislature", legislature))

	first, err := c.fetch(ctx, ListingUrl(legislature, 1))
	if err != nil {
		c.tel.ReportBroken(report_client_list_votes, fmt.Errorf("fetch first page: %w", err), legislature)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch first listing page")
		return nil, err
	}
	total, err := parseTotalPages(first)
	if err != nil {
		c.tel.ReportBroken(report_client_list_votes, fmt.Errorf("total pages: %w", err), legislature)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read page count")
		return nil, err
	}

	pages := total
	if maxPages > 0 && maxPages < pages {
		pages = maxPages
	}
	c.tel.ReportDebug("listing pages", legislature, total, pages)

	var events []VoteEvent
	seen := make(map[int64]struct{})

	for page := 1; page <= pages; page++ {
		doc := first
		if page > 1 {
			doc, err = c.fetch(ctx, ListingUrl(legislature, page))
			if err != nil {
				c.tel.ReportBroken(report_client_list_votes, err, legislature, page)
				continue
			}
		}

		blocks := doc.FindAll("div.an-bloc._style-scrutin")
		c.tel.ReportDebug("listing page", legislature, page, len(blocks))

		for _, block := range blocks {
			event, err := ParseVoteEvent(block)
			if err != nil {
				c.tel.ReportBroken(report_client_parse_vote_event, err, legislature, page)
				continue
			}
			if _, duplicate := seen[event.Id]; duplicate {
				c.tel.ReportWarning(report_client_parse_vote_event, "duplicate vote id", event.Id, page)
				continue
			}
			seen[event.Id] = struct{}{}
			events = append(events, event)
		}
	}

	span.SetAttributes(attribute.Int("events", len(events)))
	return events, nil
}

// parseTotalPages reads the page count off the pagination control, the last item
// is the "next" arrow so the count is the one before it.
func parseTotalPages(doc htmlutil.Scope) (int, error) {
	pagination, ok := doc.FindOne("div.an-pagination")
	if !ok {
		return 0, missing("pagination")
	}
	items := pagination.FindAll("div.an-pagination--item")
	if len(items) < 2 {
		return 0, fmt.Errorf("%w: expected at least 2 pagination items, got %d", ErrStructure, len(items))
	}
	total, err := parseCount(items[len(items)-2].Text())
	if err != nil {
		return 0, err
	}
	if total < 1 {
		return 0, fmt.Errorf("%w: page count %d", ErrStructure, total)
	}
	return total, nil
}

// ParseVoteEvent extracts a VoteEvent from one listing block.
func ParseVoteEvent(block htmlutil.Scope) (VoteEvent, error) {
	title, ok := block.FindOne("a.link.h6")
	if !ok {
		return VoteEvent{}, missing("title")
	}
	link, textLink, err := parseLinks(block)
	if err != nil {
		return VoteEvent{}, err
	}
	id, err := IdFromUrl(link)
	if err != nil {
		return VoteEvent{}, err
	}
	dateLabel, ok := block.FindOne("span.h6._colored-primary")
	if !ok {
		return VoteEvent{}, missing("date label")
	}
	_, adopted := block.FindOne("span._colored-green._bold")

	event := VoteEvent{
		Id:      id,
		Name:    title.Text(),
		Url:     link,
		TextUrl: textLink,
		Date:    chrono.ParseFrenchDate(dateLabel.Text()),
		Adopted: adopted,
	}
	event.VoteFor, event.VoteAgainst, event.VoteAbstention, err = parseTally(block)
	if err != nil {
		return VoteEvent{}, fmt.Errorf("vote %d: %w", id, err)
	}
	return event, nil
}

// parseLinks returns the detail url and the optional law text url from the block's action list.
func parseLinks(block htmlutil.Scope) (string, string, error) {
	actions, ok := block.FindOne("ul.button-list._vertical._align-end")
	if !ok {
		return "", "", missing("action list")
	}
	items := actions.FindAll("li")
	if len(items) == 0 {
		return "", "", missing("detail link")
	}

	link, err := itemHref(items[0])
	if err != nil {
		return "", "", err
	}
	textLink := ""
	if len(items) >= 2 {
		textLink, err = itemHref(items[1])
		if err != nil {
			return "", "", err
		}
	}
	return SitePath(link), SitePath(textLink), nil
}

func itemHref(item htmlutil.Scope) (string, error) {
	anchor, ok := item.FindOne("a")
	if !ok {
		return "", missing("link anchor")
	}
	href, ok := anchor.Attr("href")
	if !ok || href == "" {
		return "", missing("link href")
	}
	return href, nil
}

// parseTally reads the for/against/abstention counts. Regular votes list all three in
// that order, single outcome votes (ex. motions of censure) only highlight one count.
func parseTally(block htmlutil.Scope) (int, Count, Count, error) {
	if list, ok := block.FindOne("ul.votes-list"); ok {
		items := list.FindAll("li")
		if len(items) < 3 {
			return 0, Count{}, Count{}, fmt.Errorf("%w: expected 3 vote counts, got %d", ErrStructure, len(items))
		}
		counts := make([]int, 3)
		for i, item := range items[:3] {
			b, ok := item.FindOne("b")
			if !ok {
				return 0, Count{}, Count{}, missing("vote count")
			}
			n, err := parseCount(b.Text())
			if err != nil {
				return 0, Count{}, Count{}, err
			}
			counts[i] = n
		}
		return counts[0], Counted(counts[1]), Counted(counts[2]), nil
	}

	if container, ok := block.FindOne("div.flex1._gutter-xs._vertical"); ok {
		var highlighted []htmlutil.Scope
		for _, span := range container.FindAll("span._colored-primary:not(.h6)") {
			if b, ok := span.FindOne("b"); ok {
				highlighted = append(highlighted, b)
			}
		}
		if len(highlighted) > 1 {
			return 0, Count{}, Count{}, fmt.Errorf("%w: %d highlighted counts", ErrStructure, len(highlighted))
		}
		if len(highlighted) == 1 {
			n, err := parseCount(highlighted[0].Text())
			if err != nil {
				return 0, Count{}, Count{}, err
			}
			return n, NotApplicable(), NotApplicable(), nil
		}
	}

	return 0, Count{}, Count{}, ErrVoteCountMissing
}
