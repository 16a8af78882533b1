package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"dmchat/internal/app/chat"
	dbc "dmchat/internal/app/db/sqlc"
	"dmchat/internal/app/storage"
	"dmchat/internal/app/user"
	"dmchat/internal/configs"
)

// AppDeps bundles the shared collaborators handed to every handler.
type AppDeps struct {
	Hub     *chat.Hub
	Config  *configs.AppConfig
	Storage storage.StorageService
	DB      *dbc.Queries
}

// profileFromUser converts a database user row into the public profile shape.
func profileFromUser(u dbc.User) user.Profile {
	return user.Profile{
		ID:        u.ID.String(),
		Email:     u.Email,
		FullName:  u.FullName,
		Avatar:    u.AvatarUrl.String,
		CreatedAt: u.CreatedAt.Time,
	}
}

// messageFromRow converts a database message row into the wire Message record.
func messageFromRow(m dbc.Message) chat.Message {
	return chat.Message{
		ID:         m.ID.String(),
		SenderID:   m.SenderID.String(),
		ReceiverID: m.ReceiverID.String(),
		Text:       m.Text.String,
		Image:      m.ImageUrl.String,
		CreatedAt:  m.CreatedAt.Time,
	}
}

// uuidParam parses a user-supplied id into a pgtype.UUID, reporting validity.
func uuidParam(id string) (pgtype.UUID, bool) {
	var parsed pgtype.UUID
	if err := parsed.Scan(id); err != nil {
		return pgtype.UUID{}, false
	}
	return parsed, true
}

// formatTime renders a timestamp for JSON responses, empty when unset.
func formatTime(ts pgtype.Timestamptz) string {
	if !ts.Valid {
		return ""
	}
	return ts.Time.Format(time.RFC3339)
}

// pgText wraps a string as a valid pgtype.Text; empty strings stay NULL.
func pgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

// storageCleanupContext bounds background object-storage cleanup calls.
func storageCleanupContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// messageImageKey builds the object key for a message image attachment.
func messageImageKey(senderID, mimeType string) string {
	return fmt.Sprintf("messages/%s/%s%s", senderID, uuid.New().String(), chat.ExtForMIME(mimeType))
}

// bytesReader wraps raw bytes for storage uploads.
func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}
