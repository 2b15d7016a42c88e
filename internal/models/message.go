package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Message represents a community chat message. Reply fields are a snapshot
// taken when the message is created; they are not updated if the referenced
// message is later deleted.
type Message struct {
	ID              string    `db:"id" json:"id"`
	Username        string    `db:"username" json:"username"`
	Role            string    `db:"role" json:"role"`
	Content         string    `db:"content" json:"message"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	ReplyTo         string    `db:"reply_to" json:"replyTo,omitempty"`
	ReplyToUsername string    `db:"reply_to_username" json:"replyToUsername,omitempty"`
	ReplyToContent  string    `db:"reply_to_content" json:"replyToContent,omitempty"`
	Reactions       Reactions `db:"reactions" json:"reactions"`
}

// Reactions maps an emoji to the usernames that reacted with it. A username
// appears at most once per emoji; emptied emoji keys are removed.
type Reactions map[string][]string

// Toggle adds the username under emoji, or removes it if already present.
// It reports whether the reaction was added.
func (r Reactions) Toggle(emoji, username string) bool {
	users := r[emoji]
	for i, u := range users {
		if u == username {
			users = append(users[:i], users[i+1:]...)
			if len(users) == 0 {
				delete(r, emoji)
			} else {
				r[emoji] = users
			}
			return false
		}
	}
	r[emoji] = append(users, username)
	return true
}

// Value serializes reactions to JSON for storage.
func (r Reactions) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan deserializes reactions from a JSON column.
func (r *Reactions) Scan(src interface{}) error {
	*r = Reactions{}
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, r)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported reactions type %T", src)
	}
}
