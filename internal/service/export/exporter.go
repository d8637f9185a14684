package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/shopledger/internal/domain/models"
	"github.com/mamadbah2/shopledger/pkg/clients/gotenberg"
)

// Document is a rendered export ready to be served or written to disk.
type Document struct {
	FileName    string
	ContentType string
	Body        []byte
}

// Exporter builds and renders reports over a ledger.
type Exporter struct {
	ledger   Ledger
	renderer gotenberg.Client
	currency string
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewExporter wires an exporter. renderer may be nil, in which case PDF
// exports fail with gotenberg.ErrNotConfigured.
func NewExporter(l Ledger, renderer gotenberg.Client, currency string, loc *time.Location, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{
		ledger:   l,
		renderer: renderer,
		currency: currency,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Export renders the selected sections of r in format.
func (e *Exporter) Export(ctx context.Context, format Format, r models.DateRange, opts Options) (Document, error) {
	now := e.now().In(e.loc)
	rep, err := BuildReport(e.ledger, r, opts, e.currency, now)
	if err != nil {
		return Document{}, err
	}

	var buf bytes.Buffer
	switch format {
	case FormatCSV:
		err = RenderCSV(&buf, rep)
	case FormatHTML, FormatPDF:
		err = RenderHTML(&buf, rep)
	default:
		return Document{}, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return Document{}, err
	}

	body := buf.Bytes()
	if format == FormatPDF {
		if body, err = e.renderPDF(ctx, buf.String()); err != nil {
			return Document{}, err
		}
	}

	e.logger.Info("report exported",
		zap.String("format", string(format)),
		zap.String("range", rep.RangeLabel),
		zap.Int("transactions", len(rep.Transactions)),
		zap.Int("bytes", len(body)))

	return Document{
		FileName:    FileName(now, format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

func (e *Exporter) renderPDF(ctx context.Context, html string) ([]byte, error) {
	if e.renderer == nil {
		return nil, gotenberg.ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()

	pdf, err := e.renderer.RenderHTML(ctx, html)
	if err != nil {
		e.logger.Error("pdf rendering failed", zap.Error(err))
		return nil, fmt.Errorf("render pdf report: %w", err)
	}
	return pdf, nil
}
