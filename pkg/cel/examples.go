package cel

// PredicateExamples lists rule expressions accepted by the evaluator.
var PredicateExamples = map[string]string{
	"cash_on_delivery":   `payload.paymentMethod == "cod"`,
	"large_basket":       `payload.itemCount >= 5`,
	"amount_range":       `payload.totalAmount >= 500.0 && payload.totalAmount <= 5000.0`,
	"has_customer":       `has(payload.customerId) && payload.customerId != ""`,
	"pending_order":      `payload.status == "pending"`,
	"bank_transfer_high": `payload.paymentMethod == "bank_transfer" && payload.totalAmount > 2000.0`,
}
