package notify

import (
	"context"
	"fmt"
)

// formatAmount renders integer cents as a human amount, e.g. "42.50 USD".
func formatAmount(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, currency)
}

func (s *Service) PaymentReceipt(ctx context.Context, email, name string, amountCents int64, currency string) error {
	subject := "Payment Receipt"
	body := fmt.Sprintf(`Hi %s,

We received your payment of %s for your coaching session.

Thanks for training with us!

- CoachPay Team`, name, formatAmount(amountCents, currency))

	return s.Send(ctx, email, name, subject, body)
}

func (s *Service) RefundNotice(ctx context.Context, email, name string, amountCents int64, currency string) error {
	subject := "Refund Issued"
	body := fmt.Sprintf(`Hi %s,

A refund of %s has been issued to your original payment method.
It may take a few business days to appear on your statement.

- CoachPay Team`, name, formatAmount(amountCents, currency))

	return s.Send(ctx, email, name, subject, body)
}

func (s *Service) PayoutNotice(ctx context.Context, email, name, status string, amountCents int64, currency string) error {
	subject := "Payout Update: " + status
	var body string
	switch status {
	case "completed":
		body = fmt.Sprintf(`Hi %s,

Your payout of %s is on its way to your bank account.

- CoachPay Team`, name, formatAmount(amountCents, currency))
	default:
		body = fmt.Sprintf(`Hi %s,

Your payout of %s is now %s. Check your dashboard for details.

- CoachPay Team`, name, formatAmount(amountCents, currency), status)
	}

	return s.Send(ctx, email, name, subject, body)
}
