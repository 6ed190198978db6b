// Package vso searches the Virtual Solar Observatory and downloads the
// matching files.
package vso

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/sdo-composite/internal/domain"
	"github.com/couchcryptid/sdo-composite/internal/observability"
)

// DefaultURL is the public VSO SOAP endpoint.
const DefaultURL = "https://vso.nascom.nasa.gov/cgi-bin/VSOi_rpc_literal"

// FileURL is a download location resolved for one record.
type FileURL struct {
	Provider string
	FileID   string
	URL      string
}

// Client talks to the VSO SOAP interface.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a VSO client. timeout bounds each request including the
// body transfer when used for downloads.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
	}
}

// HTTPClient returns the underlying HTTP client, shared with the Fetcher.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Query runs one search per filter and concatenates the records in filter order.
func (c *Client) Query(ctx context.Context, q domain.Query) (domain.ResultSet, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var rs domain.ResultSet
	for _, f := range q {
		req := requestBody{Query: &queryRequest{Body: queryBody{
			Version: apiVersion,
			Block: queryBlock{
				Time: timeRange{
					Start: f.Time.Start.UTC().Format(vsoTimeFmt),
					End:   f.Time.End.UTC().Format(vsoTimeFmt),
				},
				Instrument: f.Instrument,
				Physobs:    f.Physobs,
			},
		}}}

		resp, err := c.call(ctx, "Query", req)
		if err != nil {
			return nil, fmt.Errorf("vso query %s: %w", f.Instrument, err)
		}
		if resp.Query == nil {
			return nil, fmt.Errorf("vso query %s: missing QueryResponse", f.Instrument)
		}

		var n int
		for _, p := range resp.Query.Providers {
			if len(p.Records) == 0 && p.Status != "" {
				c.logger.Warn("vso provider returned no records", "provider", p.Provider, "status", p.Status)
			}
			for _, r := range p.Records {
				rs = append(rs, toRecord(p.Provider, r))
				n++
			}
		}
		c.metrics.RecordsFound.WithLabelValues(f.Instrument).Add(float64(n))
		c.logger.Info("vso query complete", "instrument", f.Instrument, "physobs", f.Physobs, "records", n)
	}
	return rs, nil
}

// Resolve asks each provider for URL-FILE download locations of its records.
func (c *Client) Resolve(ctx context.Context, rs domain.ResultSet) ([]FileURL, error) {
	if len(rs) == 0 {
		return nil, nil
	}

	container := dataContainer{}
	for _, p := range rs.Providers() {
		container.Items = append(container.Items, dataRequestItem{Provider: p, FileIDs: rs.FileIDs(p)})
	}
	req := requestBody{GetData: &getDataRequest{Body: getDataBody{
		Version: apiVersion,
		Request: dataRequest{
			Method:    method{Types: []string{MethodURLFile}},
			Container: container,
		},
	}}}

	resp, err := c.call(ctx, "GetData", req)
	if err != nil {
		return nil, fmt.Errorf("vso getdata: %w", err)
	}
	if resp.GetData == nil {
		return nil, errors.New("vso getdata: missing GetDataResponse")
	}

	var urls []FileURL
	for _, item := range resp.GetData.Items {
		if len(item.Data) == 0 && item.Status != "" {
			c.logger.Warn("vso provider returned no urls", "provider", item.Provider, "status", item.Status)
		}
		for _, d := range item.Data {
			if d.URL == "" {
				continue
			}
			fu := FileURL{Provider: item.Provider, URL: d.URL}
			if len(d.FileIDs) > 0 {
				fu.FileID = d.FileIDs[0]
			}
			urls = append(urls, fu)
		}
	}
	c.logger.Info("vso urls resolved", "records", len(rs), "urls", len(urls))
	return urls, nil
}

func (c *Client) call(ctx context.Context, action string, body requestBody) (*responseBody, error) {
	payload, err := xml.Marshal(requestEnvelope{SoapNS: soapEnvNS, VSONS: vsoNS, Body: body})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(append([]byte(xml.Header), payload...)))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("SOAPAction", vsoNS+"#"+action)

	method := strings.ToLower(action)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ArchiveRequests.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("%s request: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.ArchiveRequests.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	// SOAP faults arrive with status 500 and a parseable body.
	var env responseEnvelope
	decodeErr := xml.Unmarshal(raw, &env)
	if decodeErr == nil && env.Body.Fault != nil {
		c.metrics.ArchiveRequests.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("soap fault %s: %s", env.Body.Fault.Code, env.Body.Fault.String)
	}
	if resp.StatusCode != http.StatusOK {
		c.metrics.ArchiveRequests.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("vso API error: status %d: %s", resp.StatusCode, raw)
	}
	if decodeErr != nil {
		c.metrics.ArchiveRequests.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}

	c.metrics.ArchiveRequests.WithLabelValues(method, "success").Inc()
	return &env.Body, nil
}

func toRecord(provider string, r recordItem) domain.Record {
	if r.Provider != "" {
		provider = r.Provider
	}
	rec := domain.Record{
		Provider:   provider,
		Source:     r.Source,
		Instrument: r.Instrument,
		Physobs:    r.Physobs,
		FileID:     r.FileID,
		WaveMin:    r.Wave.Min,
		WaveMax:    r.Wave.Max,
		WaveUnit:   r.Wave.Unit,
		SizeKB:     r.Size,
		Info:       r.Info,
	}
	if t, err := time.Parse(vsoTimeFmt, r.Time.Start); err == nil {
		rec.Start = t
	}
	if t, err := time.Parse(vsoTimeFmt, r.Time.End); err == nil {
		rec.End = t
	}
	return rec
}
