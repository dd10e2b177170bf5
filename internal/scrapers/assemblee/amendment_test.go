package assemblee

import (
	"context"
	"errors"
	"strings"
	"testing"

	"anscrutins/lib/htmlutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	_ "embed"
)

//go:embed testdata/amendment_deputies.html
var amendmentDeputiesFixture string

//go:embed testdata/amendment_government.html
var amendmentGovernmentFixture string

func TestExtractAmendment(t *testing.T) {
	site, server := newFakeSite(t)
	site.set("/dyn/17/amendements/1906A/AN/2493", amendmentDeputiesFixture)
	site.set("/dyn/17/amendements/1906A/AN/12", amendmentGovernmentFixture)
	client, recorder := newTestClient(t, server.URL, nil)

	testCases := []struct {
		url      string
		expected Amendment
	}{
		{
			url: "/dyn/17/amendements/1906A/AN/2493",
			expected: Amendment{
				Id:     2493,
				Name:   "Amendement n°2493",
				Url:    "/dyn/17/amendements/1906A/AN/2493",
				Date:   "2025-10-21",
				Status: "Rejeté",
				ProposedBy: ProposedByDeputies([]Participant{
					{FirstName: "Loïc", LastName: "Prud'homme", Party: "LFI-NFP"},
					{FirstName: "Jeanne", LastName: "de Fleurian", Party: "RN"},
					{FirstName: "Paul", LastName: "Vincent", Party: "EPR"},
				}),
				Summary: "Cet amendement vise à rétablir la progressivité de l'impôt.\nIl est gagé par une hausse des droits sur le tabac.",
			},
		},
		{
			url: "/dyn/17/amendements/1906A/AN/12",
			expected: Amendment{
				Id:         12,
				Name:       "Amendement n°12",
				Url:        "/dyn/17/amendements/1906A/AN/12",
				Date:       "2025-10-21",
				Status:     "Adopté",
				ProposedBy: ProposedByGovernment(),
				Summary:    "Amendement de coordination.",
			},
		},
	}

	for _, test := range testCases {
		amendment, err := client.ExtractAmendment(context.Background(), test.url)
		require.NoError(t, err, test.url)
		if diff := cmp.Diff(test.expected, amendment); diff != "" {
			t.Fatal(diff)
		}
	}
	require.Empty(t, recorder.Broken(report_client_extract_amendment))
}

func TestExtractAmendmentPartyNotFound(t *testing.T) {
	site, server := newFakeSite(t)
	site.set(
		"/dyn/17/amendements/1906A/AN/2493",
		strings.Replace(amendmentDeputiesFixture, `data-nom="Paul Vincent"`, `data-nom="Paul Vincente"`, 1),
	)
	client, recorder := newTestClient(t, server.URL, nil)

	_, err := client.ExtractAmendment(context.Background(), "/dyn/17/amendements/1906A/AN/2493")
	require.True(t, errors.Is(err, ErrProposerPartyNotFound))
	require.Contains(t, err.Error(), `"Paul Vincent"`)
	require.Len(t, recorder.Broken(report_client_extract_amendment), 1)
}

func TestParseAmendmentStructure(t *testing.T) {
	cases := []struct {
		name string
		html string
	}{
		{
			name: "no sections",
			html: `<html><body><div class="amendement-fate"><span>Rejeté</span></div></body></html>`,
		},
		{
			name: "no status",
			html: strings.Replace(amendmentGovernmentFixture, "amendement-fate", "amendement-fait", 1),
		},
		{
			name: "no proposers",
			html: strings.Replace(amendmentDeputiesFixture, "acteur-list-embed--names", "acteur-list", 1),
		},
		{
			name: "no name",
			html: strings.Replace(amendmentGovernmentFixture, "amendement-detail", "amendement-details", 1),
		},
	}

	for _, test := range cases {
		doc, err := htmlutil.Parse([]byte(test.html))
		require.NoError(t, err)
		_, err = ParseAmendment(doc)
		require.True(t, errors.Is(err, ErrStructure), test.name)
	}
}

func TestParseAmendmentWithoutSummary(t *testing.T) {
	doc, err := htmlutil.Parse([]byte(`<html><body>
		<div class="mirror-card-subtitle">Déposé le <b>jeudi 2 octobre 2025</b></div>
		<div class="amendement-detail"><span>PLF 2026</span> <span>Amendement n°7</span></div>
		<div class="amendement-fate"><span>Non soutenu</span></div>
		<div class="amendement-section-body"><p>Le Gouvernement</p></div>
		<div class="amendement-section-body"></div>
	</body></html>`))
	require.NoError(t, err)

	amendment, err := ParseAmendment(doc)
	require.NoError(t, err)
	require.Equal(t, "", amendment.Summary)
	require.True(t, amendment.ProposedBy.Government)
	require.Equal(t, "2025-10-02", amendment.Date)
}
