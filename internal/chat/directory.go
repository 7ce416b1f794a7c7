package chat

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"eduline/internal/database"
	"eduline/internal/models"
	"eduline/internal/profile"
)

const (
	DirectParticipants   = 2
	MinGroupParticipants = 2
	MaxGroupParticipants = 64

	DefaultPageSize = 50
	MaxPageSize     = 100
)

type ConversationView struct {
	ID           uuid.UUID         `json:"id"`
	Type         string            `json:"type"`
	DisplayName  string            `json:"display_name"`
	Participants []profile.Profile `json:"participants"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Directory owns conversation creation and listing. The participant set is
// fixed at creation; direct conversations are deduplicated by fingerprint.
type Directory struct {
	db       *database.Database
	profiles profile.Lookup
}

func NewDirectory(db *database.Database, profiles profile.Lookup) *Directory {
	return &Directory{db: db, profiles: profiles}
}

// CreateConversation validates the participant set and persists a new
// conversation. Creating a direct conversation that already exists is
// idempotent: the existing conversation is returned, not an error. Direct
// dedup is enforced by a partial unique index on the fingerprint, so of two
// racing creates one inserts and the other re-reads the winner's row.
func (d *Directory) CreateConversation(ctx context.Context, typ ConversationType, creatorID uuid.UUID, participantIDs []uuid.UUID) (*ConversationView, error) {
	ids := dedupeIDs(participantIDs)

	switch typ {
	case TypeDirect:
		if len(ids) != DirectParticipants {
			return nil, ErrInvalidParticipantCount
		}
	case TypeGroup:
		if len(ids) < MinGroupParticipants || len(ids) > MaxGroupParticipants {
			return nil, ErrInvalidParticipantCount
		}
	default:
		return nil, ErrUnknownConversationType
	}

	conv := &models.Conversation{
		Type:        typ.String(),
		Fingerprint: Fingerprint(ids),
	}
	for _, id := range ids {
		conv.Participants = append(conv.Participants, models.Participant{UserID: id})
	}

	if err := d.db.CreateConversation(conv); err != nil {
		if typ == TypeDirect && errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, lookupErr := d.db.FindDirectByFingerprint(conv.Fingerprint)
			if lookupErr != nil {
				return nil, err
			}
			return d.viewFor(ctx, existing, creatorID), nil
		}
		return nil, err
	}

	return d.viewFor(ctx, conv, creatorID), nil
}

// ListConversations returns the user's conversations ordered by recency,
// with participant display info resolved in one batched lookup per page.
func (d *Directory) ListConversations(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]ConversationView, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * pageSize
	}

	convs, err := d.db.GetUserConversations(userID, offset, pageSize)
	if err != nil {
		return nil, err
	}

	profiles := d.resolveProfiles(ctx, collectParticipantIDs(convs))

	views := make([]ConversationView, len(convs))
	for i := range convs {
		views[i] = buildView(&convs[i], userID, profiles)
	}
	return views, nil
}

// GetConversation returns a single conversation the user participates in.
func (d *Directory) GetConversation(ctx context.Context, conversationID, userID uuid.UUID) (*ConversationView, error) {
	conv, err := d.db.GetConversation(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}

	v := d.viewFor(ctx, conv, userID)
	return v, nil
}

func (d *Directory) viewFor(ctx context.Context, conv *models.Conversation, viewerID uuid.UUID) *ConversationView {
	profiles := d.resolveProfiles(ctx, conv.ParticipantIDs())
	v := buildView(conv, viewerID, profiles)
	return &v
}

// resolveProfiles degrades to id-derived placeholders when the profile
// service is unavailable; a listing never fails on display info alone.
func (d *Directory) resolveProfiles(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]profile.Profile {
	resolved, err := d.profiles.Profiles(ctx, ids)
	if err != nil {
		log.Printf("profile lookup failed, using placeholders: %v", err)
		resolved = map[uuid.UUID]profile.Profile{}
	}

	for _, id := range ids {
		if _, ok := resolved[id]; !ok {
			resolved[id] = profile.Profile{ID: id, DisplayName: shortID(id)}
		}
	}
	return resolved
}

func buildView(conv *models.Conversation, viewerID uuid.UUID, profiles map[uuid.UUID]profile.Profile) ConversationView {
	participants := make([]profile.Profile, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		participants = append(participants, profiles[p.UserID])
	}

	return ConversationView{
		ID:           conv.ID,
		Type:         conv.Type,
		DisplayName:  displayName(conv, viewerID, participants),
		Participants: participants,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
}

// displayName derives a human-facing name: for direct conversations the
// other participant's name, for small groups all names, for large groups
// the first two names plus a remainder count.
func displayName(conv *models.Conversation, viewerID uuid.UUID, participants []profile.Profile) string {
	if conv.Type == TypeDirect.String() {
		for _, p := range participants {
			if p.ID != viewerID {
				return p.DisplayName
			}
		}
		if len(participants) > 0 {
			return participants[0].DisplayName
		}
		return ""
	}

	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.DisplayName
	}

	if len(names) <= 3 {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:2], ", ") + " and " + strconv.Itoa(len(names)-2) + " others"
}

func collectParticipantIDs(convs []models.Conversation) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for i := range convs {
		for _, p := range convs[i].Participants {
			if _, ok := seen[p.UserID]; !ok {
				seen[p.UserID] = struct{}{}
				ids = append(ids, p.UserID)
			}
		}
	}
	return ids
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func shortID(id uuid.UUID) string {
	s := id.String()
	return "user-" + s[:8]
}
