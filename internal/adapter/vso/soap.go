package vso

import "encoding/xml"

const (
	soapEnvNS   = "http://schemas.xmlsoap.org/soap/envelope/"
	vsoNS       = "http://virtualsolar.org/VSO/VSOi"
	apiVersion  = "1.0"
	vsoTimeFmt  = "20060102150405"
	contentType = "text/xml; charset=utf-8"

	// MethodURLFile asks providers for plain per-file download URLs.
	MethodURLFile = "URL-FILE"
)

// Request types. Element names carry their prefix literally so the envelope
// matches the document/literal binding of the VSO endpoint.

type requestEnvelope struct {
	XMLName xml.Name    `xml:"soap:Envelope"`
	SoapNS  string      `xml:"xmlns:soap,attr"`
	VSONS   string      `xml:"xmlns:vso,attr"`
	Body    requestBody `xml:"soap:Body"`
}

type requestBody struct {
	Query   *queryRequest   `xml:"vso:Query,omitempty"`
	GetData *getDataRequest `xml:"vso:GetData,omitempty"`
}

type queryRequest struct {
	Body queryBody `xml:"body"`
}

type queryBody struct {
	Version string     `xml:"version"`
	Block   queryBlock `xml:"block"`
}

type queryBlock struct {
	Time       timeRange `xml:"time"`
	Instrument string    `xml:"instrument,omitempty"`
	Physobs    string    `xml:"physobs,omitempty"`
}

type timeRange struct {
	Start string `xml:"start"`
	End   string `xml:"end"`
}

type getDataRequest struct {
	Body getDataBody `xml:"body"`
}

type getDataBody struct {
	Version string      `xml:"version"`
	Request dataRequest `xml:"request"`
}

type dataRequest struct {
	Method    method        `xml:"method"`
	Container dataContainer `xml:"datacontainer"`
}

type method struct {
	Types []string `xml:"methodtype"`
}

type dataContainer struct {
	Items []dataRequestItem `xml:"datarequestitem"`
}

type dataRequestItem struct {
	Provider string   `xml:"provider"`
	FileIDs  []string `xml:"fileiditem>fileid"`
}

// Response types, matched by local name.

type responseEnvelope struct {
	XMLName xml.Name     `xml:"Envelope"`
	Body    responseBody `xml:"Body"`
}

type responseBody struct {
	Fault   *fault           `xml:"Fault"`
	Query   *queryResponse   `xml:"QueryResponse"`
	GetData *getDataResponse `xml:"GetDataResponse"`
}

type fault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

type queryResponse struct {
	Providers []providerItem `xml:"body>provideritem"`
}

type providerItem struct {
	Provider string       `xml:"provider"`
	Status   string       `xml:"status"`
	Records  []recordItem `xml:"record>recorditem"`
}

type recordItem struct {
	Provider   string    `xml:"provider"`
	Source     string    `xml:"source"`
	Instrument string    `xml:"instrument"`
	Physobs    string    `xml:"physobs"`
	FileID     string    `xml:"fileid"`
	Size       float64   `xml:"size"`
	Info       string    `xml:"info"`
	Time       timeRange `xml:"time"`
	Wave       wave      `xml:"wave"`
}

type wave struct {
	Min  float64 `xml:"wavemin"`
	Max  float64 `xml:"wavemax"`
	Unit string  `xml:"waveunit"`
}

type getDataResponse struct {
	Items []getDataResponseItem `xml:"body>getdataresponseitem"`
}

type getDataResponseItem struct {
	Provider string     `xml:"provider"`
	Status   string     `xml:"status"`
	Data     []dataItem `xml:"data>dataitem"`
}

type dataItem struct {
	FileIDs []string `xml:"fileiditem>fileid"`
	URL     string   `xml:"url"`
}
