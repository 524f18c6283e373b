package features

import (
	"olistcli/internal/dataset"
	"olistcli/internal/stats"
	"olistcli/pkg/contracts/domain"
)

type orderPayment struct {
	types        []string
	installments int
	value        money
}

// paymentOperations joins each enhanced order with its payment summary
// (modal type, most installments, total value) and its first review score
func paymentOperations(ts dataset.TableSet, orders []domain.EnhancedOrder) []domain.PaymentOperation {
	payments := make(map[string]*orderPayment)
	for _, p := range ts.Payments {
		op, ok := payments[p.OrderID]
		if !ok {
			op = &orderPayment{}
			payments[p.OrderID] = op
		}
		if p.Type != "" {
			op.types = append(op.types, p.Type)
		}
		if p.Installments > op.installments {
			op.installments = p.Installments
		}
		op.value.addFloat(p.Value)
	}

	scores := make(map[string]int)
	for _, rv := range ts.Reviews {
		if _, seen := scores[rv.OrderID]; !seen {
			scores[rv.OrderID] = rv.Score
		}
	}

	out := make([]domain.PaymentOperation, len(orders))
	for i, o := range orders {
		row := domain.PaymentOperation{EnhancedOrder: o}
		if op, ok := payments[o.OrderID]; ok {
			row.PaymentType = "Unknown"
			if len(op.types) > 0 {
				row.PaymentType = stats.Mode(op.types)
			}
			inst := op.installments
			row.PaymentInstallments = &inst
			row.PaymentValue = dataset.Float(op.value.Sum())
		}
		if s, ok := scores[o.OrderID]; ok && s >= 1 && s <= 5 {
			score := s
			row.ReviewScore = &score
		}
		out[i] = row
	}
	return out
}
