// Package pdf формирует PDF-представление счета для вложения в письмо.
//
// Разметка страницы A4:
//
//	┌────────────────────────────────────────────────────────┐
//	│  Реквизиты компании          │  № счета + статус       │
//	│  ────────────────────────────────────────────────────  │
//	│  Bill To: клиент             │  Даты выставления/оплаты│
//	│  ────────────────────────────────────────────────────  │
//	│  ТАБЛИЦА: План | Срок | Цена/мес | Итого               │
//	│  ────────────────────────────────────────────────────  │
//	│  Subtotal / Tax (0%) / Amount Due                      │
//	│  Notes (если заданы)                                   │
//	└────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/magabrotheeeer/billing-manager/internal/models"
)

var (
	colorPrimary = &props.Color{Red: 33, Green: 53, Blue: 85}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// InvoiceRenderer строит PDF счета на Maroto v2.
type InvoiceRenderer struct{}

// NewInvoiceRenderer создает рендерер.
func NewInvoiceRenderer() *InvoiceRenderer { return &InvoiceRenderer{} }

// RenderInvoice генерирует PDF и возвращает его байты. Название плана
// передаётся отдельно: счёт хранит только снимок цены и длительности.
func (r *InvoiceRenderer) RenderInvoice(invoice *models.Invoice, client *models.Client, planName string) ([]byte, error) {
	const op = "pdf.RenderInvoice"

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Invoice "+invoice.InvoiceID, true).
		WithAuthor(invoice.Company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(invoice))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(billToRow(invoice, client))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(tableHeaderRow())
	m.AddRows(tableItemRow(invoice, planName))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(invoice))
	if invoice.Notes != "" {
		m.AddRows(notesRow(invoice.Notes))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.GetBytes(), nil
}

// headerRow: реквизиты компании слева, номер и статус счета справа.
func headerRow(invoice *models.Invoice) core.Row {
	return row.New(26).Add(
		col.New(7).Add(
			text.New(invoice.Company.Name, props.Text{
				Style: fontstyle.Bold, Size: 15, Color: colorPrimary, Top: 1,
			}),
			text.New(invoice.Company.Email, props.Text{Size: 8, Top: 11, Color: colorGray}),
			text.New(invoice.Company.Phone, props.Text{Size: 8, Top: 16, Color: colorGray}),
			text.New(invoice.Company.Address, props.Text{Size: 8, Top: 21, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("Invoice #"+invoice.InvoiceID, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1,
			}),
			text.New("Status: "+invoice.Status, props.Text{
				Size: 9, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

// billToRow: получатель слева, даты счета справа.
func billToRow(invoice *models.Invoice, client *models.Client) core.Row {
	return row.New(20).Add(
		col.New(7).Add(
			text.New("Bill To:", props.Text{
				Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 1,
			}),
			text.New(client.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 7}),
			text.New(client.Email, props.Text{Size: 8, Top: 13, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("Invoice Date: "+invoice.InvoiceDate.Format("01/02/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 1,
			}),
			text.New("Due Date: "+invoice.DueDate.Format("01/02/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 6,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: a,
			Color: colorPrimary, Top: 2,
		}))
	}
	return row.New(8).Add(
		h("Subscription", 5, align.Left),
		h("Duration", 3, align.Center),
		h("Price/Month", 2, align.Right),
		h("Total", 2, align.Right),
	)
}

func tableItemRow(invoice *models.Invoice, planName string) core.Row {
	return row.New(8).Add(
		col.New(5).Add(text.New(planName, props.Text{Size: 9, Top: 1})),
		col.New(3).Add(text.New(
			fmt.Sprintf("%g months", invoice.DurationMonths),
			props.Text{Size: 9, Align: align.Center, Top: 1},
		)),
		col.New(2).Add(text.New(
			fmt.Sprintf("$%.2f", invoice.PricePerMonth),
			props.Text{Size: 9, Align: align.Right, Top: 1},
		)),
		col.New(2).Add(text.New(
			fmt.Sprintf("$%.2f", invoice.Total()),
			props.Text{Size: 9, Align: align.Right, Top: 1},
		)),
	)
}

// notesRow: произвольные заметки счета под блоком итогов.
func notesRow(notes string) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("Notes:", props.Text{
				Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 2,
			}),
			text.New(notes, props.Text{Size: 8, Top: 8, Color: colorGray}),
		),
	)
}

// totalsRow: блок итогов справа, налог всегда нулевой.
func totalsRow(invoice *models.Invoice) core.Row {
	total := invoice.Total()
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Top: top})
	}

	return row.New(24).Add(
		col.New(6),
		col.New(4).Add(
			label("Subtotal:", 1),
			label("Tax (0%):", 6),
			text.New("Amount Due:", props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right,
				Color: colorPrimary, Right: 2, Top: 12,
			}),
		),
		col.New(2).Add(
			value(fmt.Sprintf("$%.2f", total), 1),
			value("$0.00", 6),
			text.New(fmt.Sprintf("$%.2f", total), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right,
				Color: colorPrimary, Top: 12,
			}),
		),
	)
}
