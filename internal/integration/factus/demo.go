package factus

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/factusapp/factusapp/internal/logger"
)

const (
	cufeLength   = 96
	cufeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	demoQRBase   = "https://catalogo-vpfe-homo.dian.gov.co/Document/DownloadDocument?cuce="

	DemoStatusCreated   = "Created"
	DemoStatusCancelled = "Cancelled"
	DemoSubmitMessage   = "Factura registrada exitosamente (MODO DEMO)"

	demoXMLBase64 = "PD94bWwgdmVyc2lvbj0iLz4+PC94eG1sPg=="
	demoPDFBase64 = "JVBERi0xLjQKJcfsj6IKMSAwIG9iago8PD4+CmVuZG9iagp0cmFpbGVyCjw8Pj4KJSVFT0YK"
)

// DemoClient simulates the provider without any network access. Numbers are
// sequential per process and submitted bills are kept for status and cancel.
type DemoClient struct {
	logger *logger.Logger

	mu     sync.Mutex
	seq    int
	bills  map[string]Bill
	nowFun func() time.Time
}

func NewDemoClient(log *logger.Logger) *DemoClient {
	return &DemoClient{
		logger: log,
		bills:  make(map[string]Bill),
		nowFun: time.Now,
	}
}

func (d *DemoClient) Submit(_ context.Context, req *BillRequest) (*BillEnvelope, error) {
	cufe, err := generateCUFE()
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.seq++
	number := fmt.Sprintf("SETP%09d", d.seq)
	id := fmt.Sprintf("FACTUS-%d", d.nowFun().UnixMilli())
	// ids are millisecond based so keep them unique within a burst
	for _, taken := d.bills[id]; taken; _, taken = d.bills[id] {
		id = fmt.Sprintf("FACTUS-%d-%d", d.nowFun().UnixMilli(), d.seq)
	}
	bill := Bill{
		ID:        FlexString(id),
		Number:    number,
		CUFE:      cufe,
		QR:        demoQRBase + cufe,
		Status:    DemoStatusCreated,
		Validated: "true",
		CreatedAt: FlexString(d.nowFun().Format(time.RFC3339)),
		URLPDF:    "#demo-pdf-" + number,
		URLXML:    "#demo-xml-" + number,
	}
	d.bills[id] = bill
	d.mu.Unlock()

	d.logger.Infow("demo mode: simulated bill emission",
		"reference_code", req.ReferenceCode,
		"external_id", id,
		"number", number,
	)
	return d.envelope(DemoStatusCreated, DemoSubmitMessage, bill), nil
}

func (d *DemoClient) Status(_ context.Context, externalID string) (*BillEnvelope, error) {
	d.mu.Lock()
	bill, ok := d.bills[externalID]
	d.mu.Unlock()
	if !ok {
		return nil, unknownBill(externalID)
	}
	return d.envelope(bill.Status.String(), "Consulta exitosa (MODO DEMO)", bill), nil
}

func (d *DemoClient) Cancel(_ context.Context, externalID, motive string) (*BillEnvelope, error) {
	d.mu.Lock()
	bill, ok := d.bills[externalID]
	if ok {
		bill.Status = DemoStatusCancelled
		d.bills[externalID] = bill
	}
	d.mu.Unlock()
	if !ok {
		return nil, unknownBill(externalID)
	}

	d.logger.Infow("demo mode: simulated bill cancellation", "external_id", externalID, "motive", motive)
	return d.envelope(DemoStatusCancelled, "Factura anulada exitosamente (MODO DEMO)", bill), nil
}

func (d *DemoClient) DownloadXML(_ context.Context, number string) (*Document, error) {
	return &Document{
		Kind:          DocumentKindXML,
		FileName:      "FACTURA_" + number + ".xml",
		Base64Content: demoXMLBase64,
		Status:        "Success",
		Message:       "XML descargado exitosamente (MODO DEMO)",
	}, nil
}

func (d *DemoClient) DownloadPDF(_ context.Context, number string) (*Document, error) {
	return &Document{
		Kind:          DocumentKindPDF,
		FileName:      "FACTURA_" + number + ".pdf",
		Base64Content: demoPDFBase64,
		Status:        "Success",
		Message:       "PDF descargado exitosamente (MODO DEMO)",
	}, nil
}

func (d *DemoClient) envelope(status, message string, bill Bill) *BillEnvelope {
	env := &BillEnvelope{Status: FlexString(status), Message: message}
	env.Data.Bill = bill
	return env
}

func unknownBill(externalID string) error {
	return ierr.NewError("bill not found").
		WithHintf("The fiscal provider has no bill with id %s", externalID).
		WithReportableDetails(map[string]any{"external_id": externalID}).
		Mark(ierr.ErrExternalService)
}

// generateCUFE returns a random 96 character code over [0-9A-Z]
func generateCUFE() (string, error) {
	limit := big.NewInt(int64(len(cufeAlphabet)))
	buf := make([]byte, cufeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", ierr.WithError(err).
				WithHint("Could not generate a document code").
				Mark(ierr.ErrSystem)
		}
		buf[i] = cufeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
