package factus

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/shopspring/decimal"
)

// FlexString decodes a JSON string, number or boolean into its textual form.
// The provider is not consistent about the type of ids and status fields.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(string(data))
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Number is a decimal that is written as a bare JSON number and read from
// either a number or a quoted string
type Number struct {
	decimal.Decimal
}

func NewNumber(d decimal.Decimal) Number {
	return Number{Decimal: d}
}

func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.Decimal.String()), nil
}

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		n.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	n.Decimal = d
	return nil
}

// tokenRequest is the password grant body of the token endpoint
type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

// TokenResponse is returned by the token endpoint
type TokenResponse struct {
	AccessToken  string     `json:"access_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int64      `json:"expires_in"`
	RefreshToken string     `json:"refresh_token"`
	Scope        FlexString `json:"scope"`
	CreatedAt    FlexString `json:"created_at"`
}

// BillRequest is the body of the validate endpoint
type BillRequest struct {
	Document          string             `json:"document"`
	NumberingRangeID  *int               `json:"numbering_range_id,omitempty"`
	ReferenceCode     string             `json:"reference_code"`
	Observation       string             `json:"observation,omitempty"`
	PaymentMethodCode *int               `json:"payment_method_code,omitempty"`
	Customer          BillCustomer       `json:"customer"`
	Items             []BillItem         `json:"items"`
	Establishment     *BillEstablishment `json:"establishment,omitempty"`
}

type BillCustomer struct {
	IdentificationDocumentID int    `json:"identification_document_id"`
	Identification           string `json:"identification"`
	DV                       *int   `json:"dv,omitempty"`
	Company                  string `json:"company,omitempty"`
	TradeName                string `json:"trade_name,omitempty"`
	Names                    string `json:"names"`
	Address                  string `json:"address"`
	Email                    string `json:"email,omitempty"`
	Phone                    string `json:"phone,omitempty"`
	LegalOrganizationID      int    `json:"legal_organization_id"`
	TributeID                int    `json:"tribute_id"`
	MunicipalityID           int    `json:"municipality_id"`
}

type BillItem struct {
	CodeReference  string `json:"code_reference"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	DiscountRate   Number `json:"discount_rate"`
	Price          Number `json:"price"`
	TaxRate        string `json:"tax_rate"`
	UnitMeasureID  int    `json:"unit_measure_id"`
	StandardCodeID int    `json:"standard_code_id"`
	IsExcluded     int    `json:"is_excluded"`
	TributeID      int    `json:"tribute_id"`
}

type BillEstablishment struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	PhoneNumber    string `json:"phone_number"`
	Email          string `json:"email"`
	MunicipalityID int    `json:"municipality_id"`
}

type cancelRequest struct {
	Motive string `json:"motive"`
}

// BillEnvelope is the response of submit, status and cancel
type BillEnvelope struct {
	Status  FlexString `json:"status"`
	Message string     `json:"message"`
	Data    struct {
		Bill Bill `json:"bill"`
	} `json:"data"`
}

// Bill is the provider's view of an invoice
type Bill struct {
	ID            FlexString `json:"id"`
	Number        string     `json:"number"`
	CUFE          string     `json:"cufe"`
	QR            string     `json:"qr"`
	QRImage       string     `json:"qr_image,omitempty"`
	Status        FlexString `json:"status"`
	Validated     FlexString `json:"validated"`
	CreatedAt     FlexString `json:"created_at"`
	URLPDF        string     `json:"url_pdf"`
	URLXML        string     `json:"url_xml"`
	GrossValue    Number     `json:"gross_value"`
	TaxableAmount Number     `json:"taxable_amount"`
	TaxAmount     Number     `json:"tax_amount"`
	Total         Number     `json:"total"`
}

// StatusText is the status reported for the document. The envelope status is
// preferred and the bill level status is used when the envelope has none.
func (e *BillEnvelope) StatusText() string {
	if s := strings.TrimSpace(e.Status.String()); s != "" {
		return s
	}
	return e.Data.Bill.Status.String()
}

// RequireBill fails when a submit answer carries no bill id or number
func (e *BillEnvelope) RequireBill() error {
	bill := e.Data.Bill
	if strings.TrimSpace(bill.ID.String()) != "" && strings.TrimSpace(bill.Number) != "" {
		return nil
	}

	hint := "The fiscal provider did not return a bill id"
	if msg := strings.TrimSpace(e.Message); msg != "" {
		hint = "The fiscal provider did not return a bill id: " + msg
	}
	return ierr.NewError("submit response without bill").
		WithHint(hint).
		WithReportableDetails(map[string]any{
			"status":  e.StatusText(),
			"message": e.Message,
		}).
		Mark(ierr.ErrExternalService)
}

// DocumentEnvelope is the response of the download endpoints
type DocumentEnvelope struct {
	Status  FlexString `json:"status"`
	Message string     `json:"message"`
	Data    struct {
		FileName         string `json:"file_name"`
		XMLBase64Encoded string `json:"xml_base_64_encoded,omitempty"`
		PDFBase64Encoded string `json:"pdf_base_64_encoded,omitempty"`
	} `json:"data"`
}

// DocumentKind distinguishes XML and PDF downloads
type DocumentKind string

const (
	DocumentKindXML DocumentKind = "xml"
	DocumentKindPDF DocumentKind = "pdf"
)

// Document is a downloaded fiscal document
type Document struct {
	Kind          DocumentKind `json:"kind"`
	FileName      string       `json:"file_name"`
	Base64Content string       `json:"base64_content"`
	Status        string       `json:"status"`
	Message       string       `json:"message,omitempty"`
}

func (e *DocumentEnvelope) toDocument(kind DocumentKind) *Document {
	content := e.Data.XMLBase64Encoded
	if kind == DocumentKindPDF {
		content = e.Data.PDFBase64Encoded
	}
	return &Document{
		Kind:          kind,
		FileName:      e.Data.FileName,
		Base64Content: content,
		Status:        e.Status.String(),
		Message:       e.Message,
	}
}

// errorEnvelope is the body of a failed provider call
type errorEnvelope struct {
	Status  FlexString      `json:"status"`
	Message string          `json:"message"`
	Mensaje string          `json:"mensaje"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (e *errorEnvelope) text() string {
	for _, s := range []string{e.Message, e.Mensaje, e.Error, e.Status.String()} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func intPtr(v int) *int {
	return &v
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
