package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

type mockChat struct {
	mock.Mock
}

func (m *mockChat) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Conversation), args.Error(1)
}

func (m *mockChat) UnreadCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockChat) Messages(ctx context.Context, clientID int64, employeID *int64) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, clientID, employeID)
	return args.Get(0).([]domain.ChatMessage), args.Error(1)
}

func (m *mockChat) Send(ctx context.Context, in domain.SendMessageInput) (*domain.ChatMessage, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatMessage), args.Error(1)
}

func (m *mockChat) Reply(ctx context.Context, in domain.ReplyInput) (*domain.ChatMessage, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatMessage), args.Error(1)
}

func (m *mockChat) Delete(ctx context.Context, messageID int64) error {
	return m.Called(ctx, messageID).Error(0)
}

func (m *mockChat) MarkRead(ctx context.Context, messageID int64) error {
	return m.Called(ctx, messageID).Error(0)
}

func (m *mockChat) MarkConversationRead(ctx context.Context, clientID int64, employeID *int64) error {
	return m.Called(ctx, clientID, employeID).Error(0)
}

func (m *mockChat) Assign(ctx context.Context, in domain.AssignInput) error {
	return m.Called(ctx, in).Error(0)
}

var (
	adminUser   = &domain.User{ID: 1, NomComplet: "Admin Principal", Role: domain.RoleAdmin}
	employeUser = &domain.User{ID: 2, NomComplet: "Awa Diop", Role: domain.RoleEmploye}
)

func TestChat_SendFillsSenderFromIdentity(t *testing.T) {
	m := new(mockChat)
	c := NewChat(m, staticIdentity{clientUser}, newTestLogger())
	ctx := context.Background()
	emp := int64(2)

	want := domain.SendMessageInput{
		ClientID:    clientUser.ID,
		EmployeID:   &emp,
		Message:     "Bonjour",
		EmeteurType: domain.RoleClient,
		EmeteurID:   clientUser.ID,
	}
	m.On("Send", ctx, want).Return(&domain.ChatMessage{ID: 5}, nil)

	msg, err := c.Send(ctx, "Bonjour", &emp)

	require.NoError(t, err)
	assert.Equal(t, int64(5), msg.ID)
	m.AssertExpectations(t)
}

func TestChat_SendRequiresClient(t *testing.T) {
	m := new(mockChat)

	_, err := NewChat(m, staticIdentity{employeUser}, newTestLogger()).Send(context.Background(), "x", nil)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	_, err = NewChat(m, staticIdentity{}, newTestLogger()).Send(context.Background(), "x", nil)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestChat_ReplyRequiresStaff(t *testing.T) {
	m := new(mockChat)
	ctx := context.Background()
	m.On("Reply", ctx, domain.ReplyInput{ClientID: 7, Message: "Bonjour"}).Return(&domain.ChatMessage{ID: 6}, nil)

	_, err := NewChat(m, staticIdentity{employeUser}, newTestLogger()).Reply(ctx, 7, "Bonjour")
	require.NoError(t, err)

	_, err = NewChat(m, staticIdentity{clientUser}, newTestLogger()).Reply(ctx, 7, "Bonjour")
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	m.AssertNumberOfCalls(t, "Reply", 1)
}

func TestChat_CanDelete(t *testing.T) {
	own := domain.ChatMessage{ID: 1, EmeteurID: employeUser.ID}
	other := domain.ChatMessage{ID: 2, EmeteurID: clientUser.ID}

	emp := NewChat(new(mockChat), staticIdentity{employeUser}, newTestLogger())
	assert.True(t, emp.CanDelete(own))
	assert.False(t, emp.CanDelete(other))

	admin := NewChat(new(mockChat), staticIdentity{adminUser}, newTestLogger())
	assert.True(t, admin.CanDelete(other))

	anon := NewChat(new(mockChat), staticIdentity{}, newTestLogger())
	assert.False(t, anon.CanDelete(own))
}

func TestChat_DeleteCheckedLocally(t *testing.T) {
	m := new(mockChat)
	ctx := context.Background()
	c := NewChat(m, staticIdentity{employeUser}, newTestLogger())

	err := c.Delete(ctx, domain.ChatMessage{ID: 2, EmeteurID: clientUser.ID})
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	m.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	m.On("Delete", ctx, int64(1)).Return(nil)
	require.NoError(t, c.Delete(ctx, domain.ChatMessage{ID: 1, EmeteurID: employeUser.ID}))
}

func TestChat_AssignRequiresStaff(t *testing.T) {
	m := new(mockChat)
	ctx := context.Background()
	m.On("Assign", ctx, domain.AssignInput{ClientID: 7, EmployeID: 2}).Return(nil)

	require.NoError(t, NewChat(m, staticIdentity{adminUser}, newTestLogger()).Assign(ctx, 7, 2))
	err := NewChat(m, staticIdentity{clientUser}, newTestLogger()).Assign(ctx, 7, 2)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

// --- Poller ---

// countingCounter returns an increasing unread count, or a fixed error.
type countingCounter struct {
	calls atomic.Int32
	err   error
}

func (c *countingCounter) UnreadCount(context.Context) (int, error) {
	n := c.calls.Add(1)
	if c.err != nil {
		return 0, c.err
	}
	return int(n), nil
}

func TestChatPoller_PollOncePublishes(t *testing.T) {
	counter := &countingCounter{}
	p := NewChatPoller(counter, time.Second, newTestLogger())

	var mu sync.Mutex
	var seen []int
	p.SubscribeUnread(func(n int) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, n)
	})

	n, err := p.PollOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, p.Unread())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1}, seen)
}

func TestChatPoller_RunIsPaced(t *testing.T) {
	counter := &countingCounter{}
	p := NewChatPoller(counter, 50*time.Millisecond, newTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))

	calls := int(counter.calls.Load())
	assert.GreaterOrEqual(t, calls, 2)
	assert.LessOrEqual(t, calls, 5)
}

func TestChatPoller_StopsOnUnauthorized(t *testing.T) {
	counter := &countingCounter{err: apperrors.Unauthorized("expired")}
	p := NewChatPoller(counter, time.Millisecond, newTestLogger())

	err := p.Run(context.Background())

	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	assert.Equal(t, int32(1), counter.calls.Load())
}

func TestChatPoller_ContinuesOnTransientErrors(t *testing.T) {
	counter := &countingCounter{err: apperrors.ServiceUnavailable("down")}
	p := NewChatPoller(counter, 10*time.Millisecond, newTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Greater(t, counter.calls.Load(), int32(1))
}
