package service

import (
	"github.com/shopspring/decimal"
	"github.com/ukydev/service-center/internal/models"
)

// InvoiceAmounts are the derived money fields of an invoice.
type InvoiceAmounts struct {
	LaborCost   float64
	PartsCost   float64
	Subtotal    float64
	Tax         float64
	TotalAmount float64
}

func money(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func cents(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }

// RecomputeJobCardTotals derives the three job card totals from its labor
// tasks and spare parts. It is idempotent and must run before every write.
func RecomputeJobCardTotals(jc *models.JobCard) {
	labor := decimal.Zero
	for _, task := range jc.LaborTasks {
		labor = labor.Add(money(task.Hours).Mul(money(task.HourlyRate)))
	}
	parts := decimal.Zero
	for _, part := range jc.SpareParts {
		parts = parts.Add(money(part.TotalPrice))
	}
	labor, parts = labor.Round(2), parts.Round(2)
	jc.TotalLaborCost = cents(labor)
	jc.TotalPartsCost = cents(parts)
	jc.TotalCost = cents(labor.Add(parts))
}

// PartTotal is quantity × unit price rounded to cents.
func PartTotal(quantity int, unitPrice float64) float64 {
	return cents(decimal.NewFromInt(int64(quantity)).Mul(money(unitPrice)))
}

// ComputeInvoiceAmounts bills a job card's totals at taxRate.
// Sums stay in decimal and are converted to float once per field.
func ComputeInvoiceAmounts(laborCost, partsCost, taxRate float64) InvoiceAmounts {
	labor, parts := money(laborCost).Round(2), money(partsCost).Round(2)
	subtotal := labor.Add(parts)
	tax := subtotal.Mul(money(taxRate)).Round(2)
	return InvoiceAmounts{
		LaborCost:   cents(labor),
		PartsCost:   cents(parts),
		Subtotal:    cents(subtotal),
		Tax:         cents(tax),
		TotalAmount: cents(subtotal.Add(tax)),
	}
}

// roundHours keeps clocked time at two decimals.
func roundHours(h float64) float64 {
	return cents(money(h))
}
