package sales

import "github.com/odyssey-erp/odyssey-pos/internal/ledger"

func ledgerFilter(salesperson string, limit int) ledger.Filter {
	return ledger.Filter{SalespersonID: salesperson, Limit: limit}
}
