package factus_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/factusapp/factusapp/internal/cache"
	"github.com/factusapp/factusapp/internal/config"
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/factusapp/factusapp/internal/integration/factus"
	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/metrics"
	"github.com/factusapp/factusapp/internal/testutil"
	"github.com/stretchr/testify/suite"
)

const (
	tokenBody = `{"access_token":"abc123","token_type":"Bearer","expires_in":3600,"refresh_token":"r"}`
	billBody  = `{
		"status": "Created",
		"message": "Documento con el número SETP990000203 ha sido validado",
		"data": {"bill": {
			"id": 203,
			"number": "SETP990000203",
			"cufe": "8c4e1f0b",
			"qr": "https://catalogo-vpfe-hab.dian.gov.co/document/searchqr?documentkey=8c4e1f0b",
			"status": 1,
			"validated": "05-03-2024 10:15:02",
			"public_url": "https://factus.example/p/203",
			"gross_value": "100000.00",
			"taxable_amount": "100000.00",
			"tax_amount": "19000.00",
			"total": "119000.00"
		}}
	}`
)

type APIClientSuite struct {
	suite.Suite
	http   *testutil.MockHTTPClient
	client *factus.APIClient
}

func TestAPIClient(t *testing.T) {
	suite.Run(t, new(APIClientSuite))
}

func (s *APIClientSuite) SetupTest() {
	s.http = testutil.NewMockHTTPClient()
	s.http.RegisterJSONResponse(http.MethodPost, "/oauth/token", http.StatusOK, tokenBody)
	cfg := config.FactusConfig{
		BaseURL:      "https://api-sandbox.factus.com.co/",
		ClientID:     "client",
		ClientSecret: "secret",
		Username:     "user@example.com",
		Password:     "pw",
	}
	s.client = factus.NewAPIClient(cfg, s.http, cache.NewInMemoryCache(), logger.NewNoopLogger(), metrics.NewNoop())
}

func (s *APIClientSuite) TestSubmitSendsBearerTokenAndDecodesBill() {
	s.http.RegisterJSONResponse(http.MethodPost, "/v1/bills/validate", http.StatusCreated, billBody)

	env, err := s.client.Submit(context.Background(), &factus.BillRequest{Document: "01", ReferenceCode: "FAC-1-1"})
	s.Require().NoError(err)

	s.Equal("Created", env.StatusText())
	s.Equal("203", env.Data.Bill.ID.String())
	s.Equal("SETP990000203", env.Data.Bill.Number)
	s.Equal("119000", env.Data.Bill.Total.String())

	reqs := s.http.Requests()
	s.Require().Len(reqs, 2)
	s.Equal("https://api-sandbox.factus.com.co/oauth/token", reqs[0].URL)
	var grant map[string]string
	s.Require().NoError(json.Unmarshal(reqs[0].Body, &grant))
	s.Equal("password", grant["grant_type"])
	s.Equal("user@example.com", grant["username"])

	s.Equal("https://api-sandbox.factus.com.co/v1/bills/validate", reqs[1].URL)
	s.Equal("Bearer abc123", reqs[1].Headers["Authorization"])
	s.Equal("application/json", reqs[1].Headers["Accept"])
}

func (s *APIClientSuite) TestTokenIsReusedAcrossCalls() {
	s.http.RegisterJSONResponse(http.MethodGet, "/v1/bills/203", http.StatusOK, billBody)

	for i := 0; i < 3; i++ {
		_, err := s.client.Status(context.Background(), "203")
		s.Require().NoError(err)
	}
	s.Equal(1, s.http.CountRequests(http.MethodPost, "/oauth/token"))
	s.Equal(3, s.http.CountRequests(http.MethodGet, "/v1/bills/203"))
}

func (s *APIClientSuite) TestProviderErrorBecomesExternalServiceError() {
	s.http.RegisterJSONResponse(http.MethodPost, "/v1/bills/validate", http.StatusUnprocessableEntity,
		`{"status":"Validation error","message":"El campo customer.identification es obligatorio"}`)

	_, err := s.client.Submit(context.Background(), &factus.BillRequest{})
	s.Require().Error(err)
	s.True(ierr.IsExternalService(err))
	s.Equal(http.StatusBadGateway, ierr.HTTPStatusFromErr(err))
	s.Contains(strings.Join(hints(err), " "), "customer.identification es obligatorio")
}

func (s *APIClientSuite) TestSubmitWithoutBillIsExternalServiceError() {
	tests := []struct {
		name string
		body string
	}{
		{"empty data", `{"status":"OK","message":"procesando","data":{}}`},
		{"bill without number", `{"status":"OK","message":"procesando","data":{"bill":{"id":203}}}`},
		{"bill without id", `{"status":"OK","message":"procesando","data":{"bill":{"number":"SETP990000203"}}}`},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.http.RegisterJSONResponse(http.MethodPost, "/v1/bills/validate", http.StatusOK, tt.body)

			env, err := s.client.Submit(context.Background(), &factus.BillRequest{ReferenceCode: "FAC-inv_1-1"})
			s.Require().Error(err)
			s.Nil(env)
			s.True(ierr.IsExternalService(err))
			s.Equal(http.StatusBadGateway, ierr.HTTPStatusFromErr(err))
			s.Contains(strings.Join(hints(err), " "), "procesando")
		})
	}
}

func (s *APIClientSuite) TestUnauthorizedDropsCachedToken() {
	s.http.RegisterJSONResponse(http.MethodGet, "/v1/bills/203", http.StatusUnauthorized, `{"message":"Unauthenticated."}`)

	_, err := s.client.Status(context.Background(), "203")
	s.True(ierr.IsExternalService(err))

	s.http.RegisterJSONResponse(http.MethodGet, "/v1/bills/203", http.StatusOK, billBody)
	_, err = s.client.Status(context.Background(), "203")
	s.Require().NoError(err)
	s.Equal(2, s.http.CountRequests(http.MethodPost, "/oauth/token"))
}

func (s *APIClientSuite) TestFailedAuthenticationIsExternalServiceError() {
	s.http.RegisterJSONResponse(http.MethodPost, "/oauth/token", http.StatusUnauthorized, `{"error":"invalid_grant"}`)

	_, err := s.client.Status(context.Background(), "203")
	s.True(ierr.IsExternalService(err))
	s.Equal(0, s.http.CountRequests(http.MethodGet, "/v1/bills/203"))
}

func (s *APIClientSuite) TestCancelSendsMotive() {
	s.http.RegisterJSONResponse(http.MethodPost, "/v1/bills/203/cancel", http.StatusOK, billBody)

	_, err := s.client.Cancel(context.Background(), "203", "Error en los datos del cliente")
	s.Require().NoError(err)

	reqs := s.http.Requests()
	var body map[string]string
	s.Require().NoError(json.Unmarshal(reqs[len(reqs)-1].Body, &body))
	s.Equal("Error en los datos del cliente", body["motive"])
}

func (s *APIClientSuite) TestDownloads() {
	s.http.RegisterJSONResponse(http.MethodGet, "/v1/bills/download-xml/SETP990000203", http.StatusOK,
		`{"status":"OK","message":"Solicitud exitosa","data":{"file_name":"fv08001972680002400000203","xml_base_64_encoded":"PD94bWw="}}`)
	s.http.RegisterJSONResponse(http.MethodGet, "/v1/bills/download-pdf/SETP990000203", http.StatusOK,
		`{"status":"OK","message":"Solicitud exitosa","data":{"file_name":"fv08001972680002400000203","pdf_base_64_encoded":"JVBERi0x"}}`)

	xml, err := s.client.DownloadXML(context.Background(), "SETP990000203")
	s.Require().NoError(err)
	s.Equal(factus.DocumentKindXML, xml.Kind)
	s.Equal("PD94bWw=", xml.Base64Content)

	pdf, err := s.client.DownloadPDF(context.Background(), "SETP990000203")
	s.Require().NoError(err)
	s.Equal(factus.DocumentKindPDF, pdf.Kind)
	s.Equal("JVBERi0x", pdf.Base64Content)
	s.Equal("fv08001972680002400000203", pdf.FileName)
}

func (s *APIClientSuite) TestMalformedBodyIsExternalServiceError() {
	s.http.RegisterJSONResponse(http.MethodGet, "/v1/bills/203", http.StatusOK, `<html>gateway</html>`)

	_, err := s.client.Status(context.Background(), "203")
	s.True(ierr.IsExternalService(err))
}

func TestNewClientSelectsDemoMode(t *testing.T) {
	cfg := config.GetDefaultConfig()
	client := factus.NewClient(cfg, cache.NewInMemoryCache(), logger.NewNoopLogger(), metrics.NewNoop())
	if _, ok := client.(*factus.DemoClient); !ok {
		t.Fatalf("expected demo client, got %T", client)
	}

	cfg.Factus.DemoMode = false
	cfg.Factus.BaseURL = "https://api-sandbox.factus.com.co"
	client = factus.NewClient(cfg, cache.NewInMemoryCache(), logger.NewNoopLogger(), metrics.NewNoop())
	if _, ok := client.(*factus.APIClient); !ok {
		t.Fatalf("expected api client, got %T", client)
	}
}
