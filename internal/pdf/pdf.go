package pdf

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontfamily"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type CompanyData struct {
	Name    string
	Address string
	Email   string
	Phone   string
	TaxID   string
}

type CustomerData struct {
	Name    string
	Address string
	Email   string
}

type LineData struct {
	Name      string
	Qty       int
	UnitPrice string
	Total     string
}

// DocumentData is a fully-totaled document ready for rendering; amounts arrive
// pre-formatted so the renderer never does money arithmetic.
type DocumentData struct {
	Kind           string // "Quote" or "Invoice"
	Number         string
	Date           string
	DueDate        string // empty for quotes
	Currency       string
	Company        CompanyData
	Customer       CustomerData
	Lines          []LineData
	SubTotal       string
	DiscountAmount string
	TaxRate        string // empty when zero
	Total          string
	Terms          string
	Notes          string
}

// Options come from the user's Setting row.
type Options struct {
	Template   string // "classic" or "compact"
	FontSize   int
	MarginLeft float64
	MarginTop  float64
	ShowTerms  bool
	ShowNotes  bool
}

// Render produces the PDF bytes for a document.
func Render(data DocumentData, opts Options) ([]byte, error) {
	if opts.FontSize <= 0 {
		opts.FontSize = 10
	}
	if opts.MarginLeft <= 0 {
		opts.MarginLeft = 15
	}
	if opts.MarginTop <= 0 {
		opts.MarginTop = 10
	}
	cfg := config.NewBuilder().
		WithLeftMargin(opts.MarginLeft).
		WithTopMargin(opts.MarginTop).
		WithRightMargin(opts.MarginLeft).
		WithDefaultFont(&props.Font{Family: fontfamily.Helvetica, Size: float64(opts.FontSize)}).
		Build()
	m := maroto.New(cfg)

	buildHeader(m, data, opts)
	buildLinesTable(m, data)
	buildTotals(m, data)
	buildFooter(m, data, opts)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf generate: %w", err)
	}
	return doc.GetBytes(), nil
}

func buildHeader(m core.Maroto, data DocumentData, opts Options) {
	title := fmt.Sprintf("%s %s", data.Kind, data.Number)
	m.AddRow(12,
		text.NewCol(8, title, props.Text{Size: float64(opts.FontSize) + 6, Style: fontstyle.Bold}),
		text.NewCol(4, data.Date, props.Text{Align: align.Right}),
	)
	if data.DueDate != "" {
		m.AddRow(6, text.NewCol(12, "Due: "+data.DueDate, props.Text{Align: align.Right}))
	}
	if opts.Template != "compact" {
		m.AddRow(6,
			text.NewCol(6, data.Company.Name, props.Text{Style: fontstyle.Bold}),
			text.NewCol(6, data.Customer.Name, props.Text{Style: fontstyle.Bold, Align: align.Right}),
		)
		m.AddRow(14,
			text.NewCol(6, data.Company.Address),
			text.NewCol(6, data.Customer.Address, props.Text{Align: align.Right}),
		)
		if data.Company.TaxID != "" {
			m.AddRow(5, text.NewCol(6, "Tax ID: "+data.Company.TaxID))
		}
	} else {
		m.AddRow(6,
			text.NewCol(6, data.Company.Name),
			text.NewCol(6, data.Customer.Name, props.Text{Align: align.Right}),
		)
	}
	m.AddRows(line.NewRow(4))
}

func buildLinesTable(m core.Maroto, data DocumentData) {
	bold := props.Text{Style: fontstyle.Bold}
	boldRight := props.Text{Style: fontstyle.Bold, Align: align.Right}
	m.AddRow(7,
		text.NewCol(6, "Item", bold),
		text.NewCol(2, "Qty", boldRight),
		text.NewCol(2, "Unit", boldRight),
		text.NewCol(2, "Total", boldRight),
	)
	for _, l := range data.Lines {
		m.AddRow(6,
			text.NewCol(6, l.Name),
			text.NewCol(2, fmt.Sprintf("%d", l.Qty), props.Text{Align: align.Right}),
			text.NewCol(2, l.UnitPrice, props.Text{Align: align.Right}),
			text.NewCol(2, l.Total, props.Text{Align: align.Right}),
		)
	}
	m.AddRows(line.NewRow(4))
}

func buildTotals(m core.Maroto, data DocumentData) {
	right := props.Text{Align: align.Right}
	m.AddRow(6,
		col.New(8),
		text.NewCol(2, "Subtotal", right),
		text.NewCol(2, data.SubTotal+" "+data.Currency, right),
	)
	if data.DiscountAmount != "" {
		m.AddRow(6,
			col.New(8),
			text.NewCol(2, "Discount", right),
			text.NewCol(2, "-"+data.DiscountAmount+" "+data.Currency, right),
		)
	}
	if data.TaxRate != "" {
		m.AddRow(6,
			col.New(8),
			text.NewCol(2, "Tax "+data.TaxRate+"%", right),
			text.NewCol(2, "", right),
		)
	}
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(2, data.Total+" "+data.Currency, props.Text{Style: fontstyle.Bold, Align: align.Right}),
	)
}

func buildFooter(m core.Maroto, data DocumentData, opts Options) {
	if opts.ShowTerms && data.Terms != "" {
		m.AddRow(6, text.NewCol(12, "Terms", props.Text{Style: fontstyle.Bold, Top: 4}))
		m.AddRow(10, text.NewCol(12, data.Terms))
	}
	if opts.ShowNotes && data.Notes != "" {
		m.AddRow(6, text.NewCol(12, "Notes", props.Text{Style: fontstyle.Bold, Top: 4}))
		m.AddRow(10, text.NewCol(12, data.Notes))
	}
}
