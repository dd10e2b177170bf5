package assemblee

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"anscrutins/internal/components/telemetry"
	"anscrutins/lib/htmlutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

const DefaultBaseUrl = "https://www.assemblee-nationale.fr"

const (
	report_client_fetch             = "client.fetch"
	report_client_list_votes        = "client.list-votes"
	report_client_parse_vote_event  = "client.parse-vote-event"
	report_client_analyze_vote      = "client.analyze-vote"
	report_client_extract_amendment = "client.extract-amendment"
)

var tracer = otel.Tracer("anscrutins.scrapers.assemblee")

// Renderer captures a rendered web page as a base64 encoded image.
type Renderer interface {
	Capture(ctx context.Context, url string) (string, error)
}

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl   string
	UserAgent string
	// Timeout bounds a single fetch, zero means no timeout.
	Timeout time.Duration
	// Renderer is used to screenshot the hemicycle, nil leaves visualizers empty.
	Renderer Renderer
	// Tel defaults to telemetry.SlogAPI.
	Tel telemetry.API
	// ResponseOutput receives every raw response when set.
	ResponseOutput telemetry.ResponseOutput
}

// Client scrapes the assemblee nationale website. Every method is independent of the
// others and safe for concurrent use.
type Client struct {
	baseUrl  *url.URL
	http     *resty.Client
	renderer Renderer
	tel      telemetry.API
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Tel == nil {
		opts.Tel = telemetry.SlogAPI{}
	}
	tel := telemetry.NewScopedAPI("assemblee", opts.Tel)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(strings.TrimSuffix(opts.BaseUrl, "/"))
	if opts.UserAgent != "" {
		httpClient.SetHeader("user-agent", opts.UserAgent)
	}
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}
	telemetry.InstrumentResty(httpClient, tel, opts.ResponseOutput)

	return &Client{
		baseUrl:  baseUrl,
		http:     httpClient,
		renderer: opts.Renderer,
		tel:      tel,
	}, nil
}

// fetch retrieves a site relative (or absolute) url and parses it.
func (c *Client) fetch(ctx context.Context, endpoint string) (htmlutil.Scope, error) {
	c.tel.ReportDebug(report_client_fetch, endpoint)

	res, err := c.http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, endpoint, err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("%w: %s: status %s", ErrFetch, endpoint, res.Status())
	}

	doc, err := htmlutil.Parse(res.Body())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", endpoint, err)
	}
	return doc, nil
}

// absoluteUrl resolves a site relative reference against the base url.
func (c *Client) absoluteUrl(ref string) (string, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return c.baseUrl.ResolveReference(parsed).String(), nil
}

// SitePath strips the scheme and host off a link so every stored url is site relative.
func SitePath(link string) string {
	parsed, err := url.Parse(strings.TrimSpace(link))
	if err != nil || parsed.Host == "" {
		return strings.TrimSpace(link)
	}
	return parsed.RequestURI()
}

// IdFromUrl parses the numeric id making up the last path segment of a url.
func IdFromUrl(link string) (int64, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return 0, err
	}
	segment := path.Base(strings.TrimSuffix(parsed.Path, "/"))
	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: no numeric id in %q", ErrStructure, link)
	}
	return id, nil
}

// parseCount reads an integer that may be written with spaces as thousand separators.
func parseCount(text string) (int, error) {
	digits := strings.Join(strings.Fields(text), "")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a count", ErrStructure, text)
	}
	return n, nil
}

func missing(what string) error {
	return fmt.Errorf("%w: missing %s", ErrStructure, what)
}

// IsAmendmentUrl reports whether a law text url points to an amendment. The other law
// text urls point to a legislative dossier, which is not extracted.
func IsAmendmentUrl(textUrl string) bool {
	return textUrl != "" && !strings.Contains(textUrl, "dossier")
}
