package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"pamadmin/internal/core"
)

// StatusChangedMessage announces a committed day status change. EventID
// lets consumers drop redeliveries.
type StatusChangedMessage struct {
	EventID   string      `json:"event_id"`
	UserID    string      `json:"user_id"`
	Date      string      `json:"date"`
	OldStatus core.Status `json:"old_status,omitempty"`
	NewStatus core.Status `json:"new_status"`
	Reason    string      `json:"reason,omitempty"`
	Actor     string      `json:"actor"`
	ChangedAt time.Time   `json:"changed_at"`
}

func NewStatusChangedMessage(c core.StatusChange, oldStatus core.Status, actor string, at time.Time) *StatusChangedMessage {
	return &StatusChangedMessage{
		EventID:   uuid.NewString(),
		UserID:    c.UserID,
		Date:      string(c.Date),
		OldStatus: oldStatus,
		NewStatus: c.Status,
		Reason:    c.Reason,
		Actor:     actor,
		ChangedAt: at.UTC(),
	}
}

func (m *StatusChangedMessage) Validate() error {
	if m.EventID == "" || m.UserID == "" || m.Date == "" {
		return errors.New("status changed message: missing event id, user id or date")
	}
	if !m.NewStatus.Valid() {
		return errors.New("status changed message: invalid new status")
	}
	return nil
}

func (m *StatusChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func StatusChangedMessageFromJSON(data []byte) (*StatusChangedMessage, error) {
	var msg StatusChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
