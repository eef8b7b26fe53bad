// Package audit records who did what to which resource. Events are emitted
// from domain logic, queued on a channel, and fanned out to sinks by a
// background worker so request latency never pays for audit delivery.
package audit

import (
	"context"
	"time"

	"github.com/mssola/useragent"

	"tradepost/pkg/requestcontext"
)

// Action names a recorded operation.
type Action string

const (
	ActionUserRegistered Action = "user_registered"
	ActionLoginSucceeded Action = "login_succeeded"
	ActionLoginFailed    Action = "login_failed"
	ActionLogout         Action = "logout"
	ActionTokenRevoked   Action = "token_revoked"
	ActionUserUpdated    Action = "user_updated"
	ActionUserDeleted    Action = "user_deleted"
	ActionProductCreated Action = "product_created"
	ActionProductUpdated Action = "product_updated"
	ActionProductDeleted Action = "product_deleted"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	// Actor is the email of the principal performing the action. Empty for
	// anonymous actions such as failed logins with unknown accounts.
	Actor string `json:"actor,omitempty"`
	// ActorID is the principal's user ID when one was resolved.
	ActorID string `json:"actor_id,omitempty"`
	// Subject identifies the resource acted on (user ID, product ID, email).
	Subject string `json:"subject,omitempty"`
	Reason  string `json:"reason,omitempty"`
	// Client correlation, filled from the request context.
	RequestID string `json:"request_id,omitempty"`
	IP        string `json:"ip,omitempty"`
	Browser   string `json:"browser,omitempty"`
	OS        string `json:"os,omitempty"`
	Bot       bool   `json:"bot,omitempty"`
}

// Enrich fills client metadata from the request context populated by the
// metadata middleware. The user agent string is parsed down to browser and OS
// so forensics do not depend on raw UA storage. Emit sites chain this on the
// literal event.
func (e Event) Enrich(ctx context.Context) Event {
	e.RequestID = requestcontext.RequestID(ctx)
	e.IP = requestcontext.ClientIP(ctx)
	if raw := requestcontext.UserAgent(ctx); raw != "" {
		ua := useragent.New(raw)
		name, version := ua.Browser()
		e.Browser = name + " " + version
		e.OS = ua.OS()
		e.Bot = ua.Bot()
	}
	return e
}
