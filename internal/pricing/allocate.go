package pricing

import "github.com/shopspring/decimal"

// LineShare is a line's portion of the sale's net and total amounts.
type LineShare struct {
	Net   decimal.Decimal
	Total decimal.Decimal
}

// Allocate splits the sale's discount and tax across lines in proportion to
// each line subtotal. The rounding residue goes to the line with the largest
// subtotal, so the shares sum exactly to Sale.Net and Sale.Total and no share
// is negative.
func Allocate(sale Sale) []LineShare {
	shares := make([]LineShare, len(sale.Lines))
	if len(shares) == 0 {
		return shares
	}
	netLeft := sale.Net
	totalLeft := sale.Total
	largest := 0
	for i, line := range sale.Lines {
		if line.LineSubtotal.GreaterThan(sale.Lines[largest].LineSubtotal) {
			largest = i
		}
		net := line.LineSubtotal
		if sale.Gross.IsPositive() {
			net = Round(sale.Net.Mul(line.LineSubtotal).Div(sale.Gross))
		}
		total := net
		if sale.Net.IsPositive() {
			total = Round(sale.Total.Mul(net).Div(sale.Net))
		}
		shares[i] = LineShare{Net: net, Total: total}
		netLeft = netLeft.Sub(net)
		totalLeft = totalLeft.Sub(total)
	}
	shares[largest].Net = shares[largest].Net.Add(netLeft)
	shares[largest].Total = shares[largest].Total.Add(totalLeft)
	return shares
}
