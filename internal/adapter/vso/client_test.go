package vso

import (
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sdo-composite/internal/domain"
	"github.com/couchcryptid/sdo-composite/internal/observability"
)

const headerContentType = "Content-Type"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     testLogger(),
	}
}

// capturedRequest decodes the client's envelope by local element names.
type capturedRequest struct {
	Body struct {
		Query *struct {
			Block struct {
				Time struct {
					Start string `xml:"start"`
					End   string `xml:"end"`
				} `xml:"time"`
				Instrument string `xml:"instrument"`
				Physobs    string `xml:"physobs"`
			} `xml:"body>block"`
		} `xml:"Query"`
		GetData *struct {
			Methods []string `xml:"body>request>method>methodtype"`
			Items   []struct {
				Provider string   `xml:"provider"`
				FileIDs  []string `xml:"fileiditem>fileid"`
			} `xml:"body>request>datacontainer>datarequestitem"`
		} `xml:"GetData"`
	} `xml:"Body"`
}

func decodeRequest(t *testing.T, r *http.Request) capturedRequest {
	t.Helper()
	var req capturedRequest
	require.NoError(t, xml.NewDecoder(r.Body).Decode(&req))
	return req
}

func envelope(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>` + body + `</soap:Body></soap:Envelope>`
}

const aiaQueryResponse = `<QueryResponse xmlns="http://virtualsolar.org/VSO/VSOi"><body>
<provideritem><provider>JSOC</provider><record>
<recorditem>
  <provider>JSOC</provider><source>SDO</source><instrument>AIA</instrument><physobs>intensity</physobs>
  <time><start>20141209100131</start><end>20141209100132</end></time>
  <wave><wavemin>171</wavemin><wavemax>171</wavemax><waveunit>Angstrom</waveunit></wave>
  <fileid>aia__lev1:171:1197194528</fileid><size>66200</size><info>AIA level 1</info>
</recorditem>
<recorditem>
  <provider>JSOC</provider><source>SDO</source><instrument>AIA</instrument><physobs>intensity</physobs>
  <time><start>20141209100138</start><end>20141209100139</end></time>
  <wave><wavemin>193</wavemin><wavemax>193</wavemax><waveunit>Angstrom</waveunit></wave>
  <fileid>aia__lev1:193:1197194535</fileid><size>66200</size><info>AIA level 1</info>
</recorditem>
</record></provideritem>
</body></QueryResponse>`

const hmiQueryResponse = `<QueryResponse xmlns="http://virtualsolar.org/VSO/VSOi"><body>
<provideritem><provider>JSOC</provider><record>
<recorditem>
  <provider>JSOC</provider><source>SDO</source><instrument>HMI</instrument><physobs>LOS_magnetic_field</physobs>
  <time><start>20141209100100</start><end>20141209100145</end></time>
  <wave><wavemin>6173</wavemin><wavemax>6174</wavemax><waveunit>Angstrom</waveunit></wave>
  <fileid>hmi__M_45s:1197194505</fileid><size></size>
</recorditem>
</record></provideritem>
<provideritem><provider>SDAC</provider><status>no data for this time range</status></provideritem>
</body></QueryResponse>`

func TestClient_Query_Success(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, vsoNS+"#Query", r.Header.Get("SOAPAction"))
		assert.Contains(t, r.Header.Get(headerContentType), "text/xml")

		req := decodeRequest(t, r)
		require.NotNil(t, req.Body.Query)
		block := req.Body.Query.Block
		seen = append(seen, block.Instrument+"|"+block.Physobs+"|"+block.Time.Start+"|"+block.Time.End)

		w.Header().Set(headerContentType, contentType)
		if block.Instrument == domain.InstrumentHMI {
			_, _ = io.WriteString(w, envelope(hmiQueryResponse))
			return
		}
		_, _ = io.WriteString(w, envelope(aiaQueryResponse))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	window := domain.NewTimeWindow(domain.DefaultStart, domain.DefaultAIASpan, domain.DefaultHMISpan)
	rs, err := c.Query(context.Background(), window.Query())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"AIA||20141209100130|20141209100142",
		"HMI|LOS_magnetic_field|20141209100130|20141209100200",
	}, seen)

	require.Len(t, rs, 3)
	assert.Equal(t, "aia__lev1:171:1197194528", rs[0].FileID)
	assert.Equal(t, "JSOC", rs[0].Provider)
	assert.Equal(t, 171.0, rs[0].WaveMin)
	assert.Equal(t, "Angstrom", rs[0].WaveUnit)
	assert.Equal(t, 66200.0, rs[0].SizeKB)
	assert.Equal(t, time.Date(2014, time.December, 9, 10, 1, 31, 0, time.UTC), rs[0].Start)
	assert.Equal(t, domain.InstrumentHMI, rs[2].Instrument)
	assert.Equal(t, domain.PhysobsLOSMagneticField, rs[2].Physobs)
	assert.Zero(t, rs[2].SizeKB)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.metrics.RecordsFound.WithLabelValues("AIA")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.RecordsFound.WithLabelValues("HMI")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.metrics.ArchiveRequests.WithLabelValues("query", "success")))
}

func TestClient_Query_InvalidQuery(t *testing.T) {
	c := testClient("http://127.0.0.1:0")
	_, err := c.Query(context.Background(), domain.Query{})
	require.Error(t, err)
}

func TestClient_Query_SOAPFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, envelope(`<soap:Fault><faultcode>soap:Server</faultcode><faultstring>bad block</faultstring></soap:Fault>`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Query(context.Background(), domain.DefaultScene().Window.Query())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "soap fault")
	assert.Contains(t, err.Error(), "bad block")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.ArchiveRequests.WithLabelValues("query", "error")))
}

func TestClient_Query_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "maintenance")
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Query(context.Background(), domain.DefaultScene().Window.Query())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), "maintenance")
}

func TestClient_Query_MissingResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, envelope(`<Other/>`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Query(context.Background(), domain.DefaultScene().Window.Query())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing QueryResponse")
}

func TestClient_Query_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, envelope(aiaQueryResponse))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testClient(srv.URL).Query(ctx, domain.DefaultScene().Window.Query())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Resolve_GroupsByProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, vsoNS+"#GetData", r.Header.Get("SOAPAction"))
		req := decodeRequest(t, r)
		require.NotNil(t, req.Body.GetData)
		assert.Equal(t, []string{MethodURLFile}, req.Body.GetData.Methods)
		require.Len(t, req.Body.GetData.Items, 2)
		assert.Equal(t, "JSOC", req.Body.GetData.Items[0].Provider)
		assert.Equal(t, []string{"a", "c"}, req.Body.GetData.Items[0].FileIDs)
		assert.Equal(t, "SDAC", req.Body.GetData.Items[1].Provider)
		assert.Equal(t, []string{"b"}, req.Body.GetData.Items[1].FileIDs)

		_, _ = io.WriteString(w, envelope(`<GetDataResponse><body>
<getdataresponseitem><provider>JSOC</provider><data>
  <dataitem><fileiditem><fileid>a</fileid></fileiditem><url>http://jsoc.example/a.fits</url></dataitem>
  <dataitem><fileiditem><fileid>c</fileid></fileiditem><url>http://jsoc.example/c.fits</url></dataitem>
</data></getdataresponseitem>
<getdataresponseitem><provider>SDAC</provider><status>error</status></getdataresponseitem>
</body></GetDataResponse>`))
	}))
	defer srv.Close()

	rs := domain.ResultSet{
		{Provider: "JSOC", FileID: "a"},
		{Provider: "SDAC", FileID: "b"},
		{Provider: "JSOC", FileID: "c"},
	}
	urls, err := testClient(srv.URL).Resolve(context.Background(), rs)
	require.NoError(t, err)
	assert.Equal(t, []FileURL{
		{Provider: "JSOC", FileID: "a", URL: "http://jsoc.example/a.fits"},
		{Provider: "JSOC", FileID: "c", URL: "http://jsoc.example/c.fits"},
	}, urls)
}

func TestClient_Resolve_Empty(t *testing.T) {
	urls, err := testClient("http://127.0.0.1:0").Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestRequestEnvelope_Prefixes(t *testing.T) {
	raw, err := xml.Marshal(requestEnvelope{SoapNS: soapEnvNS, VSONS: vsoNS, Body: requestBody{
		Query: &queryRequest{Body: queryBody{Version: apiVersion, Block: queryBlock{Instrument: "AIA"}}},
	}})
	require.NoError(t, err)
	s := string(raw)
	assert.True(t, strings.HasPrefix(s, `<soap:Envelope xmlns:soap="`+soapEnvNS+`" xmlns:vso="`+vsoNS+`">`), s)
	assert.Contains(t, s, "<soap:Body><vso:Query><body><version>1.0</version>")
	assert.NotContains(t, s, "GetData")
	assert.NotContains(t, s, "<physobs>")
}
