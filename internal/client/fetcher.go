package client

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/bpchanges/bpchanges/internal/logging"
	"github.com/bpchanges/bpchanges/internal/metrics"
	"github.com/bpchanges/bpchanges/internal/pacing"
	"github.com/bpchanges/bpchanges/internal/record"
	"github.com/bpchanges/bpchanges/internal/timewindow"
)

// Sort fields accepted by the list endpoint.
const (
	SortStartTime = "start_time_frame"
	SortEndTime   = "end_time_frame"
)

// DefaultLimit is the page size used when none is given.
const DefaultLimit = 100

// Lister fetches one page of changes.
type Lister interface {
	ListPage(ctx context.Context, params url.Values) (*Page, error)
}

// ListParams are the query parameters of a retrieval.
type ListParams struct {
	Window timewindow.Window
	Limit  int
	Sort   string
	Search string
	Cursor string
}

// Values encodes the parameters for the list endpoint.
func (p ListParams) Values() url.Values {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	sort := p.Sort
	if sort == "" {
		sort = SortStartTime
	}

	v := url.Values{}
	v.Set("start_time_frame", strconv.FormatInt(p.Window.Start, 10))
	v.Set("end_time_frame", strconv.FormatInt(p.Window.End, 10))
	v.Set("include", "change")
	v.Set("limit", strconv.Itoa(limit))
	v.Set("sort", sort)
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.Cursor != "" {
		v.Set("cursor", p.Cursor)
	}
	return v
}

// FetchResult is what a retrieval produced. Completed is true only when the
// last page had no next link; otherwise Err says why the loop stopped and
// Items holds everything accumulated before that.
type FetchResult struct {
	Items     []record.Record
	Completed bool
	Pages     int
	Err       error
}

// Fetcher follows cursor pagination until the API runs out of pages or a
// request fails.
type Fetcher struct {
	lister  Lister
	pacer   pacing.Pacer
	logger  *logging.Logger
	metrics *metrics.Recorder
}

// NewFetcher creates a Fetcher. A nil pacer means no pause between pages.
func NewFetcher(lister Lister, pacer pacing.Pacer, logger *logging.Logger, rec *metrics.Recorder) *Fetcher {
	if pacer == nil {
		pacer = pacing.None{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Fetcher{lister: lister, pacer: pacer, logger: logger, metrics: rec}
}

// Fetch retrieves every page for params. Failures never discard pages that
// were already received.
func (f *Fetcher) Fetch(ctx context.Context, params ListParams) FetchResult {
	values := params.Values()
	res := FetchResult{Items: []record.Record{}}

	for {
		f.logger.InfoContext(ctx, "requesting changes",
			logging.Page(res.Pages+1),
			logging.Cursor(values.Get("cursor")),
			"params", values.Encode(),
		)

		page, err := f.lister.ListPage(ctx, values)
		res.Pages++
		if err != nil {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) {
				f.logger.ErrorContext(ctx, "failed to retrieve changes",
					logging.Status(httpErr.StatusCode),
					logging.Body(httpErr.Body),
				)
			} else {
				f.logger.ErrorContext(ctx, "failed to retrieve changes", logging.Error(err))
			}
			res.Err = err
			return res
		}

		res.Items = append(res.Items, page.Results...)
		f.metrics.AddRecords(metrics.StageFetched, len(page.Results))
		f.logger.InfoContext(ctx, "fetched changes",
			logging.Count(len(page.Results)),
			logging.Total(len(res.Items)),
		)

		cursor, more, err := NextCursor(page.Link)
		if err != nil {
			f.logger.ErrorContext(ctx, "cannot follow pagination", logging.Error(err))
			res.Err = err
			return res
		}
		if !more {
			res.Completed = true
			return res
		}
		values.Set("cursor", cursor)

		if err := f.pacer.Wait(ctx); err != nil {
			res.Err = err
			return res
		}
	}
}
