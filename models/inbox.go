package models

import "time"

type MessageStatus string

const (
	MessageUnread  MessageStatus = "unread"
	MessageRead    MessageStatus = "read"
	MessageReplied MessageStatus = "replied"
)

// InboxMessage is an item in the admin communication inbox, submitted
// through the public contact endpoint.
type InboxMessage struct {
	ID          int           `json:"id" db:"id"`
	SenderName  string        `json:"sender_name" db:"sender_name"`
	SenderEmail string        `json:"sender_email" db:"sender_email"`
	Subject     string        `json:"subject" db:"subject"`
	Body        string        `json:"body" db:"body"`
	Status      MessageStatus `json:"status" db:"status"`
	ReplyBody   *string       `json:"reply_body,omitempty" db:"reply_body"`
	RepliedAt   *time.Time    `json:"replied_at,omitempty" db:"replied_at"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}
