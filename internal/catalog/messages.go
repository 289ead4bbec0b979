package catalog

import (
	"context"
	"sort"
	"strings"

	"skillhub/internal/apperrors"
	"skillhub/internal/models"
	"skillhub/internal/skillhub"
)

type MessageAPI interface {
	ListMessages(ctx context.Context, userID string) ([]models.Message, error)
	SendMessage(ctx context.Context, m skillhub.NewMessage) (models.Message, error)
}

// Conversation filters a user's inbox down to the messages exchanged with peerID.
func Conversation(all []models.Message, userID, peerID string) []models.Message {
	var out []models.Message
	for _, m := range all {
		from, to := models.IDToStr(m.SenderID), models.IDToStr(m.ReceiverID)
		if (from == userID && to == peerID) || (from == peerID && to == userID) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// SendMessage posts content from senderID to receiverID. Blank content is
// ignored and reports sent=false.
func SendMessage(ctx context.Context, api MessageAPI, senderID, receiverID, content string) (msg models.Message, sent bool, err error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Message{}, false, nil
	}
	if senderID == "" {
		return models.Message{}, false, apperrors.ErrNotConnected
	}
	if receiverID == "" {
		return models.Message{}, false, apperrors.NewValidationError("receiver is required")
	}
	msg, err = api.SendMessage(ctx, skillhub.NewMessage{SenderID: senderID, ReceiverID: receiverID, Content: content})
	if err != nil {
		return models.Message{}, false, err
	}
	return msg, true, nil
}
