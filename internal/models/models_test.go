package models

import (
	"testing"
	"time"
)

func TestPairKey(t *testing.T) {
	tests := []struct {
		name     string
		a, b     uint
		expected string
	}{
		{"Ordered pair", 1, 2, "1:2"},
		{"Reversed pair", 2, 1, "1:2"},
		{"Large IDs", 1042, 7, "7:1042"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PairKey(tt.a, tt.b); got != tt.expected {
				t.Errorf("PairKey(%d, %d) = %q, want %q", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestChatParticipants(t *testing.T) {
	chat := &Chat{
		ID: 1,
		Participants: []ChatParticipant{
			{ChatID: 1, UserID: 10},
			{ChatID: 1, UserID: 20},
		},
	}

	ids := chat.ParticipantIDs()
	if len(ids) != 2 || ids[0] != 10 || ids[1] != 20 {
		t.Errorf("ParticipantIDs = %v", ids)
	}
	if !chat.HasParticipant(10) || chat.HasParticipant(30) {
		t.Errorf("HasParticipant gave wrong answers")
	}
}

func TestMessageSeenByOther(t *testing.T) {
	msg := &Message{
		ID:       1,
		SenderID: 10,
		SeenBy:   []MessageSeen{{MessageID: 1, UserID: 10}},
	}
	if msg.SeenByOther() {
		t.Errorf("sender's own entry should not count")
	}

	msg.SeenBy = append(msg.SeenBy, MessageSeen{MessageID: 1, UserID: 20})
	if !msg.SeenByOther() {
		t.Errorf("peer entry should count")
	}
}

func TestUserToResponse(t *testing.T) {
	now := time.Now()
	user := &User{
		ID:       1,
		Name:     "Alice",
		Email:    "alice@example.com",
		LastSeen: &now,
	}

	response := user.ToResponse()
	if response.ID != user.ID {
		t.Errorf("ToResponse ID = %d, want %d", response.ID, user.ID)
	}
	if response.Name != user.Name {
		t.Errorf("ToResponse Name = %q, want %q", response.Name, user.Name)
	}
	if response.Email != user.Email {
		t.Errorf("ToResponse Email = %q, want %q", response.Email, user.Email)
	}
	if response.LastSeen == nil {
		t.Errorf("ToResponse LastSeen is nil")
	}
}

func TestMessageToResponse(t *testing.T) {
	replyTo := &Message{
		ID:       1,
		SenderID: 2,
		Sender:   User{ID: 2, Name: "Bob"},
		Text:     "original",
	}
	msg := &Message{
		ID:        2,
		ChatID:    5,
		SenderID:  1,
		Sender:    User{ID: 1, Name: "Alice"},
		Text:      "a reply",
		ReplyToID: &replyTo.ID,
		ReplyTo:   replyTo,
		SeenBy:    []MessageSeen{{MessageID: 2, UserID: 1}},
	}

	response := msg.ToResponse()
	if response.ID != 2 || response.ChatID != 5 {
		t.Errorf("identifiers = %d/%d", response.ID, response.ChatID)
	}
	if response.Sender.Name != "Alice" {
		t.Errorf("sender = %q", response.Sender.Name)
	}
	if response.ReplyTo == nil {
		t.Fatalf("reply preview missing")
	}
	if response.ReplyTo.Text != "original" || response.ReplyTo.Sender.Name != "Bob" {
		t.Errorf("reply preview = %+v", response.ReplyTo)
	}
	if len(response.SeenBy) != 1 || response.SeenBy[0].UserID != 1 {
		t.Errorf("seen set = %v", response.SeenBy)
	}
}

func TestGroupToResponse(t *testing.T) {
	group := &Group{
		ID:   3,
		Name: "trio",
		Members: []GroupMember{
			{GroupID: 3, UserID: 1, Role: RoleAdmin, User: User{ID: 1, Name: "Alice"}},
			{GroupID: 3, UserID: 2, Role: RoleMember, User: User{ID: 2, Name: "Bob"}},
		},
	}

	response := group.ToResponse()
	if len(response.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(response.Members))
	}
	if response.Members[0].Role != RoleAdmin || response.Members[0].User.Name != "Alice" {
		t.Errorf("first member = %+v", response.Members[0])
	}

	preview := group.ToPreview()
	if preview.ID != 3 || preview.Name != "trio" {
		t.Errorf("preview = %+v", preview)
	}
}
