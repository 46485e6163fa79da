package chunk

import (
	"context"
	"io"

	"github.com/nao1215/pngcipher/internal/model"
)

// Summary returns the report row for c. Repeated metadata keys are joined
// with "; ".
func (c *Chunk) Summary() model.ChunkSummary {
	s := model.ChunkSummary{
		Type:                string(c.Type),
		Length:              c.Length,
		CRC:                 c.CRC,
		CRCValid:            c.CRCValid,
		Known:               c.Type.Known(),
		PreserveOnAnonymize: c.PreserveOnAnonymize(),
	}
	if c.Body != nil {
		s.Description = c.Body.Describe()
	}
	if m, ok := c.Body.(Metadata); ok {
		for k, v := range m.Pairs() {
			if s.Metadata == nil {
				s.Metadata = make(map[string]string)
			}
			if prev, dup := s.Metadata[k]; dup {
				v = prev + "; " + v
			}
			s.Metadata[k] = v
		}
	}
	return s
}

// Summary returns the report view of h.
func (h *Header) Summary() *model.HeaderSummary {
	return &model.HeaderSummary{
		Width:             h.Width,
		Height:            h.Height,
		BitDepth:          h.BitDepth,
		ColorType:         h.ColorType.String(),
		CompressionMethod: h.CompressionMethod,
		FilterMethod:      h.FilterMethod,
		InterlaceMethod:   h.InterlaceMethod,
	}
}

// Inspect parses r and collects every chunk and every warning or error into
// a report named name. A parse failure is recorded in the report's Error
// field along with the chunks read before it.
func (p *Parser) Inspect(ctx context.Context, r io.Reader, name string) *model.InspectionReport {
	report := model.NewInspectionReport(name)

	inner := *p
	inner.onLog = model.Tee(report.AddEntry, p.onLog)

	cr := &countingReader{r: r}
	chunks, err := inner.Parse(ctx, cr)
	report.Size = cr.n
	for _, c := range chunks {
		report.AddChunk(c.Summary())
		if h := c.Header(); h != nil && report.Header == nil {
			report.Header = h.Summary()
		}
	}
	if err != nil {
		report.Error = err.Error()
	}
	return report
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
