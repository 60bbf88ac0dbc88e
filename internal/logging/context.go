package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one dispatch run; every line of a run carries it.
	FieldRunID = "run_id"
	// FieldCampaign names the campaign a line belongs to.
	FieldCampaign = "campaign"
	// FieldRecipient is the recipient key (team or university name).
	FieldRecipient = "recipient"
	// FieldMessageID is the provider-assigned message identifier.
	FieldMessageID = "message_id"
)

type contextKey int

const (
	runIDKey contextKey = iota
	campaignKey
)

// WithRunID attaches a run identifier to ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the run identifier stored by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithCampaign attaches a campaign name to ctx.
func WithCampaign(ctx context.Context, campaign string) context.Context {
	if campaign == "" {
		return ctx
	}
	return context.WithValue(ctx, campaignKey, campaign)
}

// CampaignFromContext returns the campaign name stored by WithCampaign.
func CampaignFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	name, ok := ctx.Value(campaignKey).(string)
	return name, ok && name != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if name, ok := CampaignFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCampaign, name))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
