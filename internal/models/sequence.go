package models

// Sequence backs the per-entity ID counters. Public identifiers for
// users, groups, chats and messages are allocated from these rows, not
// from database-internal serials, so they stay stable, small, and
// comparable for ordering.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:32"`
	Value uint   `gorm:"not null"`
}

const (
	SeqUsers    = "users"
	SeqGroups   = "groups"
	SeqChats    = "chats"
	SeqMessages = "messages"
)
