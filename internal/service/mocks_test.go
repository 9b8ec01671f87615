package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Abdou-Mdn/LinkUp-sub001/internal/models"
	"github.com/Abdou-Mdn/LinkUp-sub001/internal/repository"
	"gorm.io/gorm"
)

// In-memory backing store shared by the mock repositories so cross-entity
// reads (participants, senders, members) resolve the same way they do
// through the database.
type memDB struct {
	seq map[string]uint

	users       map[uint]*models.User
	friendships map[[2]uint]time.Time
	requests    map[[2]uint]time.Time

	groups       map[uint]*models.Group
	members      map[uint][]*models.GroupMember
	joinRequests map[[2]uint]time.Time

	chats        map[uint]*models.Chat
	participants map[uint][]uint

	messages map[uint]*models.Message
}

func newMemDB() *memDB {
	return &memDB{
		seq:          make(map[string]uint),
		users:        make(map[uint]*models.User),
		friendships:  make(map[[2]uint]time.Time),
		requests:     make(map[[2]uint]time.Time),
		groups:       make(map[uint]*models.Group),
		members:      make(map[uint][]*models.GroupMember),
		joinRequests: make(map[[2]uint]time.Time),
		chats:        make(map[uint]*models.Chat),
		participants: make(map[uint][]uint),
		messages:     make(map[uint]*models.Message),
	}
}

func (db *memDB) addUser(id uint, name string) *models.User {
	u := &models.User{ID: id, Name: name, Email: name + "@example.com"}
	db.users[id] = u
	return u
}

func (db *memDB) userOf(id uint) models.User {
	if u, ok := db.users[id]; ok {
		return *u
	}
	return models.User{ID: id}
}

// --- sequences ---

type mockSeqRepo struct{ db *memDB }

func (m *mockSeqRepo) WithTx(tx *gorm.DB) repository.SequenceRepositoryInterface { return m }

func (m *mockSeqRepo) Next(name string) (uint, error) {
	m.db.seq[name]++
	return m.db.seq[name], nil
}

// --- users ---

type mockUserRepo struct{ db *memDB }

func (m *mockUserRepo) WithTx(tx *gorm.DB) repository.UserRepositoryInterface { return m }

func (m *mockUserRepo) Create(user *models.User) error {
	m.db.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) FindByID(id uint) (*models.User, error) {
	if u, ok := m.db.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) FindByEmail(email string) (*models.User, error) {
	for _, u := range m.db.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) UpdateLastSeen(id uint, at time.Time) error {
	u, ok := m.db.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.LastSeen = &at
	return nil
}

func (m *mockUserRepo) SoftDelete(id uint) error {
	if _, ok := m.db.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.db.users, id)
	return nil
}

// --- friendships ---

type mockFriendRepo struct{ db *memDB }

func (m *mockFriendRepo) WithTx(tx *gorm.DB) repository.FriendshipRepositoryInterface { return m }

func (m *mockFriendRepo) CreateRequest(fromID, toID uint) error {
	m.db.requests[[2]uint{fromID, toID}] = time.Now()
	return nil
}

func (m *mockFriendRepo) FindRequest(fromID, toID uint) (*models.FriendRequest, error) {
	at, ok := m.db.requests[[2]uint{fromID, toID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.FriendRequest{FromID: fromID, ToID: toID, RequestedAt: at}, nil
}

func (m *mockFriendRepo) DeleteRequest(fromID, toID uint) error {
	delete(m.db.requests, [2]uint{fromID, toID})
	return nil
}

func (m *mockFriendRepo) CreateFriendship(userID, friendID uint) error {
	now := time.Now()
	m.db.friendships[[2]uint{userID, friendID}] = now
	m.db.friendships[[2]uint{friendID, userID}] = now
	return nil
}

func (m *mockFriendRepo) DeleteFriendship(userID, friendID uint) error {
	delete(m.db.friendships, [2]uint{userID, friendID})
	delete(m.db.friendships, [2]uint{friendID, userID})
	return nil
}

func (m *mockFriendRepo) ListFriends(userID uint) ([]models.Friendship, error) {
	var rows []models.Friendship
	for pair, since := range m.db.friendships {
		if pair[0] == userID {
			rows = append(rows, models.Friendship{
				UserID: pair[0], FriendID: pair[1], Since: since,
				Friend: m.db.userOf(pair[1]),
			})
		}
	}
	return rows, nil
}

func (m *mockFriendRepo) ListIncomingRequests(userID uint) ([]models.FriendRequest, error) {
	var rows []models.FriendRequest
	for pair, at := range m.db.requests {
		if pair[1] == userID {
			rows = append(rows, models.FriendRequest{
				FromID: pair[0], ToID: pair[1], RequestedAt: at,
				From: m.db.userOf(pair[0]),
			})
		}
	}
	return rows, nil
}

func (m *mockFriendRepo) ListOutgoingRequests(userID uint) ([]models.FriendRequest, error) {
	var rows []models.FriendRequest
	for pair, at := range m.db.requests {
		if pair[0] == userID {
			rows = append(rows, models.FriendRequest{
				FromID: pair[0], ToID: pair[1], RequestedAt: at,
				To: m.db.userOf(pair[1]),
			})
		}
	}
	return rows, nil
}

func (m *mockFriendRepo) AreFriends(userID, friendID uint) (bool, error) {
	_, ok := m.db.friendships[[2]uint{userID, friendID}]
	return ok, nil
}

// --- groups ---

type mockGroupRepo struct{ db *memDB }

func (m *mockGroupRepo) WithTx(tx *gorm.DB) repository.GroupRepositoryInterface { return m }

func (m *mockGroupRepo) Create(group *models.Group) error {
	m.db.groups[group.ID] = group
	return nil
}

func (m *mockGroupRepo) FindByID(id uint) (*models.Group, error) {
	g, ok := m.db.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *g
	out.Members = nil
	for _, member := range m.db.members[id] {
		mm := *member
		mm.User = m.db.userOf(member.UserID)
		out.Members = append(out.Members, mm)
	}
	return &out, nil
}

func (m *mockGroupRepo) UpdateProfile(id uint, fields map[string]interface{}) error {
	g, ok := m.db.groups[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["name"]; ok {
		g.Name = v.(string)
	}
	if v, ok := fields["description"]; ok {
		g.Description = v.(string)
	}
	if v, ok := fields["image"]; ok {
		g.Image = v.(string)
	}
	if v, ok := fields["banner"]; ok {
		g.Banner = v.(string)
	}
	return nil
}

func (m *mockGroupRepo) Delete(id uint) error {
	delete(m.db.groups, id)
	delete(m.db.members, id)
	for pair := range m.db.joinRequests {
		if pair[0] == id {
			delete(m.db.joinRequests, pair)
		}
	}
	return nil
}

func (m *mockGroupRepo) AddMember(groupID, userID uint, role models.GroupRole) error {
	m.db.members[groupID] = append(m.db.members[groupID], &models.GroupMember{
		GroupID: groupID, UserID: userID, Role: role, JoinedAt: time.Now(),
	})
	return nil
}

func (m *mockGroupRepo) RemoveMember(groupID, userID uint) error {
	members := m.db.members[groupID]
	for i, member := range members {
		if member.UserID == userID {
			m.db.members[groupID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) IsMember(groupID, userID uint) (bool, error) {
	for _, member := range m.db.members[groupID] {
		if member.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockGroupRepo) GetMemberRole(groupID, userID uint) (models.GroupRole, error) {
	for _, member := range m.db.members[groupID] {
		if member.UserID == userID {
			return member.Role, nil
		}
	}
	return "", gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) UpdateMemberRole(groupID, userID uint, role models.GroupRole) error {
	for _, member := range m.db.members[groupID] {
		if member.UserID == userID {
			member.Role = role
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) CountMembers(groupID uint) (int64, error) {
	return int64(len(m.db.members[groupID])), nil
}

func (m *mockGroupRepo) CountAdmins(groupID uint) (int64, error) {
	var count int64
	for _, member := range m.db.members[groupID] {
		if member.Role == models.RoleAdmin {
			count++
		}
	}
	return count, nil
}

func (m *mockGroupRepo) EarliestMember(groupID uint) (*models.GroupMember, error) {
	members := m.db.members[groupID]
	if len(members) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	// Insertion order stands in for joined_at ordering.
	return members[0], nil
}

func (m *mockGroupRepo) CreateJoinRequest(groupID, userID uint) error {
	m.db.joinRequests[[2]uint{groupID, userID}] = time.Now()
	return nil
}

func (m *mockGroupRepo) FindJoinRequest(groupID, userID uint) (*models.GroupJoinRequest, error) {
	at, ok := m.db.joinRequests[[2]uint{groupID, userID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.GroupJoinRequest{GroupID: groupID, UserID: userID, RequestedAt: at}, nil
}

func (m *mockGroupRepo) DeleteJoinRequest(groupID, userID uint) error {
	delete(m.db.joinRequests, [2]uint{groupID, userID})
	return nil
}

// --- chats ---

type mockChatRepo struct{ db *memDB }

func (m *mockChatRepo) WithTx(tx *gorm.DB) repository.ChatRepositoryInterface { return m }

func (m *mockChatRepo) Create(chat *models.Chat) error {
	if chat.PairKey != nil {
		for _, existing := range m.db.chats {
			if existing.PairKey != nil && *existing.PairKey == *chat.PairKey {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
		chat.UpdatedAt = chat.CreatedAt
	}
	m.db.chats[chat.ID] = chat
	return nil
}

// populate mirrors the preloads: participants with their users, the group,
// and the denormalized last message.
func (m *mockChatRepo) populate(chat *models.Chat) *models.Chat {
	out := *chat
	out.Participants = nil
	for _, uid := range m.db.participants[chat.ID] {
		out.Participants = append(out.Participants, models.ChatParticipant{
			ChatID: chat.ID, UserID: uid, User: m.db.userOf(uid),
		})
	}
	if chat.GroupID != nil {
		if g, ok := m.db.groups[*chat.GroupID]; ok {
			gg := *g
			out.Group = &gg
		}
	}
	if chat.LastMessageID != nil {
		if msg, ok := m.db.messages[*chat.LastMessageID]; ok {
			mm := *msg
			mm.Sender = m.db.userOf(msg.SenderID)
			out.LastMessage = &mm
		}
	}
	return &out
}

func (m *mockChatRepo) FindByID(id uint) (*models.Chat, error) {
	chat, ok := m.db.chats[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.populate(chat), nil
}

func (m *mockChatRepo) FindPrivateByPairKey(key string) (*models.Chat, error) {
	for _, chat := range m.db.chats {
		if chat.PairKey != nil && *chat.PairKey == key {
			return m.populate(chat), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockChatRepo) FindByGroupID(groupID uint) (*models.Chat, error) {
	for _, chat := range m.db.chats {
		if chat.GroupID != nil && *chat.GroupID == groupID {
			return m.populate(chat), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockChatRepo) SetLastMessage(chatID, messageID uint, at time.Time) error {
	chat, ok := m.db.chats[chatID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	chat.LastMessageID = &messageID
	chat.UpdatedAt = at
	return nil
}

func (m *mockChatRepo) Touch(chatID uint, at time.Time) error {
	chat, ok := m.db.chats[chatID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	chat.UpdatedAt = at
	return nil
}

func (m *mockChatRepo) AddParticipant(chatID, userID uint) error {
	m.db.participants[chatID] = append(m.db.participants[chatID], userID)
	return nil
}

func (m *mockChatRepo) RemoveParticipant(chatID, userID uint) error {
	ids := m.db.participants[chatID]
	for i, id := range ids {
		if id == userID {
			m.db.participants[chatID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockChatRepo) ListForUser(userID uint) ([]models.Chat, error) {
	var result []models.Chat
	for _, chat := range m.db.chats {
		for _, uid := range m.db.participants[chat.ID] {
			if uid == userID {
				result = append(result, *m.populate(chat))
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (m *mockChatRepo) ClearLastMessage(chatID uint) error {
	chat, ok := m.db.chats[chatID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	chat.LastMessageID = nil
	chat.LastMessage = nil
	return nil
}

func (m *mockChatRepo) Delete(chatID uint) error {
	delete(m.db.chats, chatID)
	delete(m.db.participants, chatID)
	return nil
}

// --- messages ---

type mockMessageRepo struct{ db *memDB }

func (m *mockMessageRepo) WithTx(tx *gorm.DB) repository.MessageRepositoryInterface { return m }

func (m *mockMessageRepo) Create(message *models.Message) error {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	m.db.messages[message.ID] = message
	return nil
}

func (m *mockMessageRepo) FindByID(id uint) (*models.Message, error) {
	msg, ok := m.db.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *msg
	out.Sender = m.db.userOf(msg.SenderID)
	if msg.ReplyToID != nil {
		if reply, ok := m.db.messages[*msg.ReplyToID]; ok {
			rr := *reply
			rr.Sender = m.db.userOf(reply.SenderID)
			out.ReplyTo = &rr
		}
	}
	if msg.GroupInviteID != nil {
		if g, ok := m.db.groups[*msg.GroupInviteID]; ok {
			gg := *g
			out.GroupInvite = &gg
		}
	}
	return &out, nil
}

func (m *mockMessageRepo) UpdateText(id uint, text string) error {
	msg, ok := m.db.messages[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	msg.Text = text
	msg.IsEdited = true
	return nil
}

func (m *mockMessageRepo) SoftDelete(id uint) error {
	msg, ok := m.db.messages[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	msg.Text = ""
	msg.ImageURL = ""
	msg.IsDeleted = true
	return nil
}

func (m *mockMessageRepo) MarkChatSeen(chatID, userID uint, at time.Time) (int64, error) {
	var appended int64
	for _, msg := range m.db.messages {
		if msg.ChatID != chatID {
			continue
		}
		already := false
		for _, s := range msg.SeenBy {
			if s.UserID == userID {
				already = true
				break
			}
		}
		if !already {
			msg.SeenBy = append(msg.SeenBy, models.MessageSeen{MessageID: msg.ID, UserID: userID, SeenAt: at})
			appended++
		}
	}
	return appended, nil
}

func (m *mockMessageRepo) ListByChatCursor(chatID, cursor uint, limit int) ([]models.Message, error) {
	var ids []uint
	for id, msg := range m.db.messages {
		if msg.ChatID != chatID {
			continue
		}
		if cursor > 0 && id >= cursor {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}
	var result []models.Message
	for _, id := range ids {
		msg, _ := m.FindByID(id)
		result = append(result, *msg)
	}
	return result, nil
}

func (m *mockMessageRepo) DeleteByChat(chatID uint) error {
	for id, msg := range m.db.messages {
		if msg.ChatID == chatID {
			delete(m.db.messages, id)
		}
	}
	return nil
}

// --- transactions, broadcast, uploads ---

type mockTxManager struct{}

func (mockTxManager) InTransaction(fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type sentEvent struct {
	Targets []uint
	Event   Event
}

// recordingBroadcaster captures fan-out calls for assertions.
type recordingBroadcaster struct {
	sent []sentEvent
}

func (b *recordingBroadcaster) BroadcastToUsers(userIDs []uint, event Event) {
	b.sent = append(b.sent, sentEvent{Targets: userIDs, Event: event})
}

func (b *recordingBroadcaster) Broadcast(event Event) {
	b.sent = append(b.sent, sentEvent{Event: event})
}

func (b *recordingBroadcaster) ofType(eventType string) []sentEvent {
	var out []sentEvent
	for _, e := range b.sent {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// recordingChatCache captures invalidations; lookups always miss so
// services take the repository path.
type recordingChatCache struct {
	invalidated []uint
}

func (c *recordingChatCache) GetChatList(userID uint) ([]models.ChatResponse, bool) {
	return nil, false
}

func (c *recordingChatCache) SetChatList(userID uint, chats []models.ChatResponse) error {
	return nil
}

func (c *recordingChatCache) Invalidate(userIDs ...uint) {
	c.invalidated = append(c.invalidated, userIDs...)
}

func (c *recordingChatCache) invalidatedUser(userID uint) bool {
	for _, id := range c.invalidated {
		if id == userID {
			return true
		}
	}
	return false
}

type stubUploader struct {
	url string
	err error
}

func (u *stubUploader) UploadImage(ctx context.Context, data []byte, folder string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	return u.url, nil
}

var errUploadDown = errors.New("storage unreachable")

func testCtx() context.Context { return context.Background() }

// testEnv wires every service over the shared store, mirroring the
// production wiring in cmd/server.
type testEnv struct {
	db          *memDB
	broadcaster *recordingBroadcaster
	uploader    *stubUploader
	chatCache   *recordingChatCache

	auth     *AuthService
	users    *UserService
	chats    *ChatService
	messages *MessageService
	groups   *GroupService
}

func newTestEnv() *testEnv {
	db := newMemDB()
	broadcaster := &recordingBroadcaster{}
	uploader := &stubUploader{url: "https://cdn.example.com/messages/test.jpg"}
	chatCache := &recordingChatCache{}

	seqRepo := &mockSeqRepo{db: db}
	userRepo := &mockUserRepo{db: db}
	friendRepo := &mockFriendRepo{db: db}
	groupRepo := &mockGroupRepo{db: db}
	chatRepo := &mockChatRepo{db: db}
	messageRepo := &mockMessageRepo{db: db}
	txManager := mockTxManager{}

	chats := NewChatService(chatRepo, userRepo, seqRepo, txManager, chatCache)
	messages := NewMessageService(messageRepo, chatRepo, groupRepo, seqRepo, txManager, chats, broadcaster, uploader, chatCache)
	groups := NewGroupService(groupRepo, chatRepo, userRepo, seqRepo, txManager, messages, chatCache)
	users := NewUserService(userRepo, friendRepo, chatRepo, messageRepo, txManager, chatCache)
	auth := NewAuthService(userRepo, seqRepo, txManager)

	return &testEnv{
		db:          db,
		broadcaster: broadcaster,
		uploader:    uploader,
		chatCache:   chatCache,
		auth:        auth,
		users:       users,
		chats:       chats,
		messages:    messages,
		groups:      groups,
	}
}
