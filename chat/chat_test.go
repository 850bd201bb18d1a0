package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"venue-manager/broker"
	"venue-manager/db"
	"venue-manager/models"
)

type recorder struct {
	mu     sync.Mutex
	frames []models.WSMessage
	fail   bool
	closed bool
}

func (r *recorder) Send(v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("write: broken pipe")
	}
	r.frames = append(r.frames, v.(models.WSMessage))
	return nil
}

func (r *recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.frames))
	for _, f := range r.frames {
		out = append(out, f.Type)
	}
	return out
}

func (r *recorder) last() models.WSMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames[len(r.frames)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}

type memStore struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	messages []*models.ChatMessage
	fail     bool
}

func (m *memStore) SaveChatMessage(_ context.Context, msg *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("database is locked")
	}
	msg.ID = int64(len(m.messages) + 1)
	msg.IsPrivate = msg.RecipientID != nil
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, db.ErrNotFound
}

var (
	owner  = &models.User{ID: 1, FullName: "Anna Owner", Role: models.RoleOwner}
	worker = &models.User{ID: 2, FullName: "Bartek Barman", Role: models.RoleWorker}
	guard  = &models.User{ID: 3, FullName: "Celina Ochrona", Role: models.RoleWorker}
)

func newService() (*Service, *memStore) {
	store := &memStore{users: map[int64]*models.User{1: owner, 2: worker, 3: guard}}
	return NewService(broker.New(), store, nil), store
}

func ptr[T any](v T) *T { return &v }

func TestConnectAnnouncesPresence(t *testing.T) {
	s, _ := newService()
	a, b := &recorder{}, &recorder{}

	s.Connect(owner, a)
	assert.Equal(t, []string{models.WSOnlineUsers}, a.types())

	s.Connect(worker, b)
	assert.Equal(t, []string{models.WSOnlineUsers}, b.types())
	roster := b.last().Payload.([]models.PresencePayload)
	assert.Equal(t, []models.PresencePayload{{UserID: 1, FullName: "Anna Owner"}, {UserID: 2, FullName: "Bartek Barman"}}, roster)

	assert.Equal(t, []string{models.WSOnlineUsers, models.WSUserOnline}, a.types())
	assert.Equal(t, models.PresencePayload{UserID: 2, FullName: "Bartek Barman"}, a.last().Payload)
}

func TestDisconnectAnnouncesOffline(t *testing.T) {
	s, _ := newService()
	a, b := &recorder{}, &recorder{}
	s.Connect(owner, a)
	s.Connect(worker, b)
	a.reset()

	s.Disconnect(worker.ID, b)
	assert.False(t, s.IsOnline(worker.ID))
	assert.Equal(t, []string{models.WSUserOffline}, a.types())

	// second release of the same channel is silent
	s.Disconnect(worker.ID, b)
	assert.Len(t, a.types(), 1)
}

func TestDisconnectOfReplacedChannelIsSilent(t *testing.T) {
	s, _ := newService()
	a, old, fresh := &recorder{}, &recorder{}, &recorder{}
	s.Connect(owner, a)
	s.Connect(worker, old)
	s.Connect(worker, fresh)
	a.reset()

	s.Disconnect(worker.ID, old)
	assert.True(t, s.IsOnline(worker.ID))
	assert.Empty(t, a.types())
}

func TestPublicMessageReachesEveryone(t *testing.T) {
	s, store := newService()
	a, b := &recorder{}, &recorder{}
	s.Connect(owner, a)
	s.Connect(worker, b)
	a.reset()
	b.reset()

	msg, err := s.Send(context.Background(), worker, models.ChatMessageCreate{Content: "  Brakuje lodu  "})
	require.NoError(t, err)
	assert.Equal(t, "Brakuje lodu", msg.Content)
	assert.Equal(t, models.KindText, msg.Kind)
	assert.Equal(t, "Bartek Barman", msg.SenderName)
	assert.False(t, msg.IsPrivate)
	assert.Len(t, store.messages, 1)

	for _, r := range []*recorder{a, b} {
		assert.Equal(t, []string{models.WSNewMessage}, r.types())
		assert.Equal(t, msg, r.last().Payload)
	}
}

func TestPrivateMessageReachesOnlyParticipants(t *testing.T) {
	s, _ := newService()
	a, b, c := &recorder{}, &recorder{}, &recorder{}
	s.Connect(owner, a)
	s.Connect(worker, b)
	s.Connect(guard, c)
	a.reset()
	b.reset()
	c.reset()

	msg, err := s.Send(context.Background(), owner, models.ChatMessageCreate{Content: "Zostań po zamknięciu", RecipientID: ptr(worker.ID)})
	require.NoError(t, err)
	assert.True(t, msg.IsPrivate)

	assert.Equal(t, []string{models.WSNewMessage}, a.types())
	assert.Equal(t, []string{models.WSNewMessage}, b.types())
	assert.Empty(t, c.types())
}

func TestSendValidation(t *testing.T) {
	s, store := newService()
	ctx := context.Background()

	tests := []struct {
		name string
		from *models.User
		in   models.ChatMessageCreate
		want error
	}{
		{"blank", worker, models.ChatMessageCreate{Content: " \n\t "}, ErrEmptyMessage},
		{"too long", worker, models.ChatMessageCreate{Content: strings.Repeat("ż", MaxContentLength+1)}, ErrMessageTooLong},
		{"unknown kind", owner, models.ChatMessageCreate{Content: "x", Kind: ptr(models.MessageKind("shout"))}, ErrInvalidKind},
		{"worker announcement", worker, models.ChatMessageCreate{Content: "x", Kind: ptr(models.KindAnnouncement)}, ErrKindNotAllowed},
		{"self", worker, models.ChatMessageCreate{Content: "x", RecipientID: ptr(worker.ID)}, ErrInvalidRecipient},
		{"unknown recipient", worker, models.ChatMessageCreate{Content: "x", RecipientID: ptr(int64(99))}, ErrInvalidRecipient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Send(ctx, tt.from, tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsClientError(err))
		})
	}
	assert.Empty(t, store.messages)

	_, err := s.Send(ctx, worker, models.ChatMessageCreate{Content: strings.Repeat("ż", MaxContentLength)})
	assert.NoError(t, err)

	msg, err := s.Send(ctx, owner, models.ChatMessageCreate{Content: "Jutro inwentaryzacja", Kind: ptr(models.KindAnnouncement)})
	require.NoError(t, err)
	assert.Equal(t, models.KindAnnouncement, msg.Kind)
}

func TestTyping(t *testing.T) {
	s, _ := newService()
	a, b, c := &recorder{}, &recorder{}, &recorder{}
	s.Connect(owner, a)
	s.Connect(worker, b)
	s.Connect(guard, c)
	a.reset()
	b.reset()
	c.reset()

	s.Typing(worker, nil)
	assert.Equal(t, []string{models.WSUserTyping}, a.types())
	assert.Empty(t, b.types())
	assert.Equal(t, []string{models.WSUserTyping}, c.types())

	s.Typing(worker, ptr(guard.ID))
	assert.Len(t, a.types(), 1)
	assert.Len(t, c.types(), 2)
}

func TestHandleInbound(t *testing.T) {
	s, store := newService()
	a, b := &recorder{}, &recorder{}
	s.Connect(owner, a)
	s.Connect(worker, b)
	a.reset()
	b.reset()
	ctx := context.Background()

	s.HandleInbound(ctx, worker, []byte(`{"type":"ping"}`))
	assert.Equal(t, []string{models.WSPong}, b.types())
	assert.Empty(t, a.types())

	s.HandleInbound(ctx, worker, []byte(`{"type":"message","content":"Cześć"}`))
	assert.Equal(t, models.WSNewMessage, a.last().Type)
	assert.Len(t, store.messages, 1)

	s.HandleInbound(ctx, worker, []byte(`{"type":"dance"}`))
	assert.Len(t, b.types(), 2)

	s.HandleInbound(ctx, worker, []byte(`{not json`))
	assert.Equal(t, models.WSError, b.last().Type)
	assert.Len(t, a.types(), 1)

	s.HandleInbound(ctx, worker, []byte(`{"type":"message","content":"   "}`))
	assert.Equal(t, models.ErrorPayload{Message: ErrEmptyMessage.Error()}, b.last().Payload)

	store.fail = true
	s.HandleInbound(ctx, worker, []byte(`{"type":"message","content":"hello"}`))
	assert.Equal(t, models.ErrorPayload{Message: "message could not be delivered"}, b.last().Payload)
}

func TestFailedDeliveryAnnouncesOffline(t *testing.T) {
	s, _ := newService()
	a, b := &recorder{}, &recorder{}
	s.Connect(owner, a)
	s.Connect(worker, b)
	a.reset()

	b.fail = true
	_, err := s.Send(context.Background(), owner, models.ChatMessageCreate{Content: "Ktoś tam?"})
	require.NoError(t, err)

	assert.False(t, s.IsOnline(worker.ID))
	assert.True(t, b.closed)
	assert.Equal(t, []string{models.WSNewMessage, models.WSUserOffline}, a.types())
	assert.Equal(t, models.PresencePayload{UserID: 2, FullName: "Bartek Barman"}, a.last().Payload)
}
