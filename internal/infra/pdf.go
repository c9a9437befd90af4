package infra

// pdf.go — invoice PDF generation using go-pdf/fpdf.
// Produces an A4 invoice with a store header, customer block, item table
// (product name, quantity, unit price charged, line subtotal), discount and
// shipping lines, and a bold grand total. The output file is saved to
// storagePath/factura_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"apolo/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

func decimalFromInt(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

// GenerateFacturaPDF renders the invoice for a completed Factura and returns
// the absolute path to the generated file.
func GenerateFacturaPDF(factura *model.Factura, tienda, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("factura_%s.pdf", factura.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tienda, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, "Factura de venta", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Invoice info ─────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("Factura N° %s", factura.ID), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, factura.Fecha.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	if factura.Usuario != nil {
		pdf.CellFormat(contentW, 5, "Cliente: "+factura.Usuario.Nombre, "", 1, "L", false, 0, "")
		pdf.CellFormat(contentW, 5, "Correo: "+factura.Usuario.Correo, "", 1, "L", false, 0, "")
	}
	if factura.Direccion != nil {
		pdf.CellFormat(contentW, 5, "Direccion de envio: "+*factura.Direccion, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	// ── Items header ─────────────────────────────────────────────────────────
	col1 := contentW * 0.46 // item name
	col2 := contentW * 0.14 // qty
	col3 := contentW * 0.20 // unit price
	col4 := contentW * 0.20 // subtotal

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "Articulo", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 6, "Precio", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "Subtotal", "B", 1, "R", false, 0, "")

	// ── Item rows ────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	for _, d := range factura.DetallesProducto {
		nombre := d.ProductoReferencia
		if d.Producto != nil {
			nombre = d.Producto.Nombre
		}
		if len(nombre) > 40 {
			nombre = nombre[:39] + "…"
		}
		sub := d.PrecioUnidad.Mul(decimalFromInt(d.Cantidad))
		pdf.CellFormat(col1, 6, nombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, fmt.Sprintf("x%d", d.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 6, "$"+d.PrecioUnidad.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, "$"+sub.StringFixed(2), "", 1, "R", false, 0, "")
	}
	for _, d := range factura.DetallesCalcomania {
		nombre := "Calcomania"
		if d.Calcomania != nil {
			nombre = d.Calcomania.Nombre
		}
		nombre = fmt.Sprintf("%s (%s)", nombre, d.Tamano)
		sub := d.PrecioUnidad.Mul(decimalFromInt(d.Cantidad))
		pdf.CellFormat(col1, 6, nombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, fmt.Sprintf("x%d", d.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 6, "$"+d.PrecioUnidad.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, "$"+sub.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 9)
	if !factura.DescuentoTotal.IsZero() {
		pdf.CellFormat(col1+col2+col3, 6, "Descuento:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col4, 6, "-$"+factura.DescuentoTotal.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.CellFormat(col1+col2+col3, 6, "Envio:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 6, "$"+factura.CostoEnvio.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(col1+col2+col3, 8, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 8, "$"+factura.Total.StringFixed(2), "", 1, "R", false, 0, "")

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(5)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(contentW, 5, "¡Gracias por su compra!", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
