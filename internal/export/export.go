package export

import (
	"context"
	"database/sql"
	"fmt"

	"anscrutins/internal/components/telemetry"
	"anscrutins/internal/harvest"
	"anscrutins/internal/scrapers/assemblee"
	"anscrutins/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const report_export_artifact = "export.artifact"

var tracer = otel.Tracer("anscrutins.export")

type Report struct {
	Votes      int
	Analyses   int
	Ballots    int
	Amendments int
}

// Exporter loads the stored artifacts of a legislature into a relational database so they
// can be queried, ex. "how did each group vote on amendments proposed by the government".
type Exporter struct {
	db    *sql.DB
	store store.Store
	tel   telemetry.API
}

func NewExporter(db *sql.DB, s store.Store, tel telemetry.API) Exporter {
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	return Exporter{
		db:    db,
		store: s,
		tel:   telemetry.NewScopedAPI("export", tel),
	}
}

// Export replaces every row belonging to the legislature's votes with the stored artifacts.
// Votes whose analysis or amendment was never stored are exported without them.
func (e Exporter) Export(ctx context.Context, legislature int) (Report, error) {
	ctx, span := tracer.Start(ctx, "Export")
	defer span.End()

	var listing harvest.Listing
	err := e.store.Get(ctx, e.store.ListingPath(legislature), &listing)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read listing")
		return Report{}, fmt.Errorf("read listing: %w", err)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to begin transaction")
		return Report{}, err
	}
	defer tx.Rollback()

	var report Report
	for _, event := range listing.Scrutins {
		err = e.exportVote(ctx, tx, legislature, event, &report)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to export vote")
			return Report{}, fmt.Errorf("vote %d: %w", event.Id, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to commit")
		return Report{}, err
	}
	return report, nil
}

func nullableCount(c assemblee.Count) sql.NullInt64 {
	n, ok := c.Value()
	return sql.NullInt64{Int64: int64(n), Valid: ok}
}

func (e Exporter) exportVote(ctx context.Context, tx *sql.Tx, legislature int, event assemblee.VoteEvent, report *Report) error {
	analysis, analyzed := e.readAnalysis(ctx, event)

	_, err := tx.ExecContext(
		ctx,
		`insert into vote (
			legislature, id, name, url, text_url, date, adopted,
			vote_for, vote_against, vote_abstention, analyzed, visualizer
		) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		on conflict (legislature, id) do update set
			name = excluded.name,
			url = excluded.url,
			text_url = excluded.text_url,
			date = excluded.date,
			adopted = excluded.adopted,
			vote_for = excluded.vote_for,
			vote_against = excluded.vote_against,
			vote_abstention = excluded.vote_abstention,
			analyzed = excluded.analyzed,
			visualizer = excluded.visualizer`,
		legislature, event.Id, event.Name, event.Url, event.TextUrl, event.Date, event.Adopted,
		event.VoteFor, nullableCount(event.VoteAgainst), nullableCount(event.VoteAbstention),
		analyzed, analysis.Visualizer,
	)
	if err != nil {
		return err
	}
	report.Votes++

	_, err = tx.ExecContext(
		ctx,
		"delete from ballot where vote_legislature = ? and vote_id = ?",
		legislature, event.Id,
	)
	if err != nil {
		return err
	}
	if analyzed {
		report.Analyses++
		buckets := []struct {
			voteType assemblee.VoteType
			voters   []assemblee.Participant
		}{
			{assemblee.VOTE_FOR, analysis.VoteFor},
			{assemblee.VOTE_AGAINST, analysis.VoteAgainst},
			{assemblee.VOTE_ABSTENTION, analysis.VoteAbstention},
			{assemblee.VOTE_ABSENT, analysis.VoteAbsent},
		}
		for _, bucket := range buckets {
			for _, voter := range bucket.voters {
				_, err = tx.ExecContext(
					ctx,
					`insert into ballot (vote_legislature, vote_id, first_name, last_name, party, vote_type)
					values (?, ?, ?, ?, ?, ?)`,
					legislature, event.Id, voter.FirstName, voter.LastName, voter.Party, bucket.voteType.String(),
				)
				if err != nil {
					return err
				}
				report.Ballots++
			}
		}
	}

	if !assemblee.IsAmendmentUrl(event.TextUrl) {
		return nil
	}
	amendment, ok := e.readAmendment(ctx, event.TextUrl)
	if !ok {
		return nil
	}
	return e.exportAmendment(ctx, tx, amendment, report)
}

func (e Exporter) exportAmendment(ctx context.Context, tx *sql.Tx, amendment assemblee.Amendment, report *Report) error {
	_, err := tx.ExecContext(
		ctx,
		`insert or replace into amendment (url, id, name, date, status, by_government, summary)
		values (?, ?, ?, ?, ?, ?, ?)`,
		amendment.Url, amendment.Id, amendment.Name, amendment.Date, amendment.Status,
		amendment.ProposedBy.Government, amendment.Summary,
	)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, "delete from amendment_proposer where amendment_url = ?", amendment.Url)
	if err != nil {
		return err
	}
	for i, proposer := range amendment.ProposedBy.Deputies {
		_, err = tx.ExecContext(
			ctx,
			`insert into amendment_proposer (amendment_url, position, first_name, last_name, party)
			values (?, ?, ?, ?, ?)`,
			amendment.Url, i, proposer.FirstName, proposer.LastName, proposer.Party,
		)
		if err != nil {
			return err
		}
	}
	report.Amendments++
	return nil
}

func (e Exporter) readAnalysis(ctx context.Context, event assemblee.VoteEvent) (assemblee.VoteAnalysis, bool) {
	var analysis assemblee.VoteAnalysis
	if event.Url == "" {
		return analysis, false
	}
	artifact, err := e.store.PathForUrl(event.Url)
	if err != nil || !e.store.IsComplete(artifact) {
		return analysis, false
	}
	err = e.store.Get(ctx, artifact, &analysis)
	if err != nil {
		e.tel.ReportWarning(report_export_artifact, err, artifact)
		return analysis, false
	}
	return analysis, true
}

func (e Exporter) readAmendment(ctx context.Context, textUrl string) (assemblee.Amendment, bool) {
	var amendment assemblee.Amendment
	artifact, err := e.store.PathForUrl(textUrl)
	if err != nil || !e.store.IsComplete(artifact) {
		return amendment, false
	}
	err = e.store.Get(ctx, artifact, &amendment)
	if err != nil {
		e.tel.ReportWarning(report_export_artifact, err, artifact)
		return amendment, false
	}
	if amendment.Url == "" {
		amendment.Url = textUrl
	}
	return amendment, true
}
