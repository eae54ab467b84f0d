package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"etag/internal/adapters/email"
	auditStore "etag/internal/adapters/storage/audit"
	"etag/internal/domain/audit"
	"etag/internal/domain/claim"
)

// ClaimsAPIForClearing defines the remote API surface needed by ClearClaims.
type ClaimsAPIForClearing interface {
	ListTags(ctx context.Context, token, email string) ([]claim.Tag, error)
	ClearClaims(ctx context.Context, token, email string) (string, error)
}

// ClearClaimsInput carries input for the clear-claims orchestrator.
type ClearClaimsInput struct {
	Token       string
	TargetEmail string
	TargetName  string
	ActorEmail  string
	ActorRole   string
	ClientIP    string
	UserAgent   string
}

// ClearClaimsResult reports the outcome of a clear.
type ClearClaimsResult struct {
	Message  string
	Sessions int
	NetTotal float64
}

// ClearClaimsDeps holds dependencies for ClearClaims.
type ClearClaimsDeps struct {
	API   ClaimsAPIForClearing
	Audit auditStore.Store
	Email email.Sender
	Now   func() time.Time
}

// ExecuteClearClaims removes all of one coach's claims after payment. The
// claim totals are captured first for the receipt, then the remote clear
// runs; the audit row and receipt email follow and never fail the clear.
// PRE: The actor holds an admin session; the handler asked for confirmation
// POST: The coach has zero claims at the remote API
func ExecuteClearClaims(ctx context.Context, input ClearClaimsInput, deps ClearClaimsDeps) (ClearClaimsResult, error) {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	// Snapshot totals before they disappear.
	var sessions int
	var netTotal float64
	tags, err := deps.API.ListTags(ctx, input.Token, input.TargetEmail)
	if err == nil {
		sessions = len(tags)
		netTotal = claim.NetTotal(tags)
	} else if isUnauthorized(err) {
		return ClearClaimsResult{}, err
	} else {
		slog.Warn("event", "event", "clear_snapshot_failed", "target", input.TargetEmail, "error", err)
	}

	msg, err := deps.API.ClearClaims(ctx, input.Token, input.TargetEmail)
	if err != nil {
		return ClearClaimsResult{}, err
	}

	slog.Info("event", "event", "claims_cleared",
		"target", input.TargetEmail,
		"actor", input.ActorEmail,
		"sessions", sessions,
	)

	ev := audit.NewEvent(input.ActorEmail, input.ActorRole, audit.CategoryClaim, audit.ActionClear).
		WithResource("coach", input.TargetEmail).
		WithDescription(fmt.Sprintf("cleared %d claims (net %.2f)", sessions, netTotal)).
		WithRequest(input.ClientIP, input.UserAgent)
	if deps.Audit != nil {
		if err := deps.Audit.Save(ctx, ev); err != nil {
			slog.Error("event", "event", "audit_save_failed", "error", err)
		}
	}

	if deps.Email != nil && input.TargetEmail != "" {
		receipt := email.ClearReceipt(input.TargetEmail, input.TargetName, sessions, netTotal, now())
		if _, err := deps.Email.Send(ctx, receipt); err != nil {
			slog.Error("event", "event", "receipt_send_failed", "target", input.TargetEmail, "error", err)
		}
	}

	return ClearClaimsResult{Message: msg, Sessions: sessions, NetTotal: netTotal}, nil
}
