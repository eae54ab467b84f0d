package email

import (
	"fmt"
	"html"
	"time"
)

// ClearReceipt builds the payment receipt sent to a coach when an
// administrator clears their claims after processing payment.
func ClearReceipt(to, coachName string, sessions int, netTotal float64, clearedAt time.Time) SendRequest {
	name := html.EscapeString(coachName)
	if name == "" {
		name = "Coach"
	}

	body := fmt.Sprintf(`<div style="font-family:sans-serif;max-width:480px">
<h2>Payment processed</h2>
<p>Hi %s,</p>
<p>Your session claims have been processed and cleared on %s.</p>
<table style="border-collapse:collapse">
<tr><td style="padding:4px 12px 4px 0">Sessions claimed</td><td><strong>%d</strong></td></tr>
<tr><td style="padding:4px 12px 4px 0">Amount paid</td><td><strong>%.2f</strong></td></tr>
</table>
<p>New sessions you tag from now on will count toward your next claim.</p>
</div>`, name, clearedAt.Format("2 January 2006"), sessions, netTotal)

	return SendRequest{
		To:      []string{to},
		Subject: fmt.Sprintf("Claims payment processed (%d sessions)", sessions),
		HTML:    body,
	}
}
