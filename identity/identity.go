// Package identity resolves who a connecting participant is: the subject
// themselves, a delegated family contact, or — when the telephony path
// cannot be resolved — a degraded unknown caller that still gets to talk.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/subthread/companion/core"
	"github.com/subthread/companion/directory"
	"github.com/subthread/companion/logging"
)

// outboundRoomPrefix marks rooms created for scheduled call-backs. The
// remainder of the label is the subject id: the phone number alone is not
// a reliable key for outbound calls.
const outboundRoomPrefix = "outbound-"

// Directory is the narrow slice of the directory client the resolver needs.
type Directory interface {
	UserByID(ctx context.Context, id string) (*directory.User, error)
	SearchByPhone(ctx context.Context, phone string) (*directory.LookupResult, error)
}

// Resolver maps connection-level identities to callers.
type Resolver struct {
	dir    Directory
	logger logging.Logger
}

// Options configures a Resolver.
type Options struct {
	Logger logging.Logger
}

// NewResolver builds a Resolver over the given directory.
func NewResolver(dir Directory, optFns ...func(o *Options)) *Resolver {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Resolver{dir: dir, logger: opts.Logger}
}

// Resolve determines the caller for a connection.
//
// Non-telephony identities are app-authenticated subjects; a failed lookup
// there is fatal to session start. Every telephony-path failure instead
// degrades to a synthetic unknown caller so the call still connects.
func (r *Resolver) Resolve(ctx context.Context, participantID, roomName string) (*core.Caller, error) {
	if !core.IsTelephonyIdentity(participantID) {
		user, err := r.dir.UserByID(ctx, participantID)
		if err != nil {
			return nil, fmt.Errorf("resolve app caller %q: %w", participantID, err)
		}
		return &core.Caller{RawIdentity: participantID, Subject: toSubject(user)}, nil
	}

	if subjectID, ok := outboundSubjectID(roomName); ok {
		user, err := r.dir.UserByID(ctx, subjectID)
		if err != nil {
			r.logger.Warn("outbound subject lookup failed, continuing degraded",
				"subject_id", subjectID, "error", err.Error())
			return r.degraded(participantID), nil
		}
		return &core.Caller{RawIdentity: participantID, Subject: toSubject(user)}, nil
	}

	return r.resolveInbound(ctx, participantID), nil
}

// resolveInbound looks up an inbound telephony caller by phone number. The
// directory returns either a subject or a family-member pointer; the
// latter makes the caller a delegate for the referenced subject.
func (r *Resolver) resolveInbound(ctx context.Context, participantID string) *core.Caller {
	phone := core.PhoneFromIdentity(participantID)

	hit, err := r.dir.SearchByPhone(ctx, phone)
	if err != nil {
		r.logger.Warn("phone search failed, continuing degraded", "error", err.Error())
		return r.degraded(participantID)
	}

	if hit.IsDelegate() {
		subject, err := r.dir.UserByID(ctx, hit.UserID)
		if err != nil {
			r.logger.Warn("delegate subject lookup failed, continuing degraded",
				"subject_id", hit.UserID, "error", err.Error())
			return r.degraded(participantID)
		}
		return &core.Caller{RawIdentity: participantID, Subject: toSubject(subject), IsDelegate: true}
	}

	return &core.Caller{RawIdentity: participantID, Subject: toSubject(&hit.User)}
}

// degraded builds the synthetic unknown-caller identity used when the
// telephony path cannot be resolved. Ingestion and context stay keyed to
// the raw identifier so the conversation is not lost entirely.
func (r *Resolver) degraded(participantID string) *core.Caller {
	return &core.Caller{
		RawIdentity: participantID,
		Subject: core.Subject{
			ID:   participantID,
			Name: core.UnknownCallerName,
		},
		Degraded: true,
	}
}

// outboundSubjectID extracts the subject id embedded in an outbound
// call-back room label.
func outboundSubjectID(roomName string) (string, bool) {
	if !strings.HasPrefix(roomName, outboundRoomPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(roomName, outboundRoomPrefix)
	return id, id != ""
}

func toSubject(u *directory.User) core.Subject {
	return core.Subject{
		ID:          u.ID,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Language:    u.Language,
	}
}
