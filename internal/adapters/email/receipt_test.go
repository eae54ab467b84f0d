package email

import (
	"strings"
	"testing"
	"time"
)

func TestClearReceipt(t *testing.T) {
	when := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	req := ClearReceipt("coach@example.com", "Thandi <Nkosi>", 4, 850, when)

	if len(req.To) != 1 || req.To[0] != "coach@example.com" {
		t.Errorf("To = %v", req.To)
	}
	if !strings.Contains(req.Subject, "4 sessions") {
		t.Errorf("Subject = %q", req.Subject)
	}
	if strings.Contains(req.HTML, "<Nkosi>") {
		t.Error("coach name not escaped")
	}
	if !strings.Contains(req.HTML, "850.00") {
		t.Errorf("amount missing from body: %s", req.HTML)
	}
	if !strings.Contains(req.HTML, "14 March 2026") {
		t.Errorf("date missing from body: %s", req.HTML)
	}
}

func TestClearReceiptEmptyName(t *testing.T) {
	req := ClearReceipt("coach@example.com", "", 1, 200, time.Now())
	if !strings.Contains(req.HTML, "Hi Coach,") {
		t.Errorf("fallback greeting missing: %s", req.HTML)
	}
}
