package tickvault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tickvault/go-tickvault-client/pkg/frame"
	"github.com/tickvault/go-tickvault-client/pkg/predicate"
)

// Query describes one tabular query. Times use the service's
// yyyyMMddHHmmss convention, e.g. 20210301093000.
type Query struct {
	// System, Dataset and Source select the store to query.
	System  string
	Dataset string
	Source  string

	// Tickers is the list of instruments, sent comma-joined in the path.
	Tickers []string

	// Start is required; End of zero means "no upper bound".
	Start int64
	End   int64

	// Fields restricts the returned columns when non-empty.
	Fields []string

	// Limit caps the number of rows when positive.
	Limit int

	// Predicates filters rows server-side: a predicate.Raw expression, a
	// predicate.Terms list, or a prebuilt predicate.Expression. nil means
	// no filtering.
	Predicates predicate.Source

	// Extra carries additional query parameters verbatim. Predicate fields
	// win on collision.
	Extra url.Values
}

// Validate checks that the query names everything the endpoint requires.
func (q Query) Validate() error {
	switch {
	case q.System == "":
		return fmt.Errorf("tickvault: query missing system")
	case q.Dataset == "":
		return fmt.Errorf("tickvault: query missing dataset")
	case q.Source == "":
		return fmt.Errorf("tickvault: query missing source")
	case len(q.Tickers) == 0:
		return fmt.Errorf("tickvault: query missing tickers")
	case q.Start <= 0:
		return fmt.Errorf("tickvault: query missing start time")
	default:
		return nil
	}
}

func (q Query) endpoint() string {
	return "/api/v1/dataset/query/" + strings.Join([]string{
		q.System,
		q.Dataset,
		q.Source,
		strings.Join(q.Tickers, ","),
		strconv.FormatInt(q.Start, 10),
	}, "/")
}

// params builds the query string: fixed parameters first, then the
// compiled predicate pairs on top so predicates win on clashes.
func (q Query) params() (url.Values, error) {
	fixed := make(map[string]string)
	if q.End > 0 {
		fixed["endTime"] = strconv.FormatInt(q.End, 10)
	}
	if q.Limit > 0 {
		fixed["limit"] = strconv.Itoa(q.Limit)
	}
	if len(q.Fields) > 0 {
		fixed["fields"] = strings.Join(q.Fields, ",")
	}

	expr, err := predicate.From(q.Predicates)
	if err != nil {
		return nil, err
	}

	values := make(url.Values, len(q.Extra))
	for key, v := range q.Extra {
		values[key] = append([]string(nil), v...)
	}
	for key, value := range expr.Params(fixed) {
		values.Set(key, value)
	}
	return values, nil
}

// QueryService runs tabular queries.
type QueryService struct {
	client *Client
}

// Run executes the query and decodes the response into flat records.
func (s *QueryService) Run(ctx context.Context, q Query, opts ...RequestOption) ([]frame.Record, error) {
	raw, err := s.RunRaw(ctx, q, opts...)
	if err != nil {
		return nil, err
	}
	var records []frame.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("tickvault: decoding query response: %w", err)
	}
	return records, nil
}

// RunFrame executes the query and converts the records into a time-indexed
// frame on the service's ts column.
func (s *QueryService) RunFrame(ctx context.Context, q Query, opts ...RequestOption) (*frame.Frame, error) {
	records, err := s.Run(ctx, q, opts...)
	if err != nil {
		return nil, err
	}
	return frame.FromRecords(records, frame.DefaultIndexColumn)
}

// RunRaw executes the query and returns the response body. A body that is
// empty, or NUL padding only, yields ErrEmptyResponse; a literal empty
// JSON array is a valid result.
func (s *QueryService) RunRaw(ctx context.Context, q Query, opts ...RequestOption) ([]byte, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	values, err := q.params()
	if err != nil {
		return nil, err
	}

	req, err := s.client.newRequest(ctx, http.MethodGet, q.endpoint(), values, opts)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	// The service pads "no data" replies with NUL bytes.
	data = bytes.TrimRight(data, "\x00")
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyResponse
	}
	return data, nil
}
