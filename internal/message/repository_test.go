package message

import (
	"context"
	"testing"
	"time"

	"farmlink_backend/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupMessageRepositoryTest(t *testing.T) (Repository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to open in-memory sqlite")

	require.NoError(t, db.AutoMigrate(&user.User{}, &Message{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	})
	return NewGORMRepository(db), db
}

func seedMessageUser(t *testing.T, db *gorm.DB, name string) *user.User {
	t.Helper()
	u := &user.User{
		Name:         name,
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         "buyer",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func sendAt(t *testing.T, db *gorm.DB, senderID, receiverID uuid.UUID, content string, at time.Time) *Message {
	t.Helper()
	m := &Message{SenderID: senderID, ReceiverID: receiverID, Content: content}
	require.NoError(t, db.Create(m).Error)
	// Backdate for deterministic ordering; CreatedAt is set by GORM on insert.
	require.NoError(t, db.Model(&Message{}).Where("id = ?", m.ID).Update("created_at", at).Error)
	m.CreatedAt = at
	return m
}

func TestRepository_ThreadBetween_MarksReceivedMessagesRead(t *testing.T) {
	repo, db := setupMessageRepositoryTest(t)
	ctx := context.Background()

	alice := seedMessageUser(t, db, "Alice")
	bob := seedMessageUser(t, db, "Bob")
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)

	sendAt(t, db, alice.ID, bob.ID, "hello", base)
	sendAt(t, db, bob.ID, alice.ID, "hi back", base.Add(time.Minute))
	sendAt(t, db, bob.ID, alice.ID, "still there?", base.Add(2*time.Minute))

	// Alice opens the thread: Bob's two messages flip to read, her own stays
	// untouched for Bob to consume later.
	thread, err := repo.ThreadBetween(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, "hello", thread[0].Content)
	assert.Equal(t, "still there?", thread[2].Content)
	for _, m := range thread {
		if m.ReceiverID == alice.ID {
			assert.True(t, m.IsRead, "messages addressed to the reader must come back read")
		}
	}

	var unreadForAlice int64
	require.NoError(t, db.Model(&Message{}).
		Where("receiver_id = ? AND is_read = ?", alice.ID, false).Count(&unreadForAlice).Error)
	assert.Equal(t, int64(0), unreadForAlice)

	var unreadForBob int64
	require.NoError(t, db.Model(&Message{}).
		Where("receiver_id = ? AND is_read = ?", bob.ID, false).Count(&unreadForBob).Error)
	assert.Equal(t, int64(1), unreadForBob, "reading a thread must not mark the other side's copy")
}

func TestRepository_ThreadBetween_ExcludesThirdParties(t *testing.T) {
	repo, db := setupMessageRepositoryTest(t)
	ctx := context.Background()

	alice := seedMessageUser(t, db, "Alice")
	bob := seedMessageUser(t, db, "Bob")
	carol := seedMessageUser(t, db, "Carol")
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)

	sendAt(t, db, alice.ID, bob.ID, "for bob", base)
	sendAt(t, db, carol.ID, alice.ID, "from carol", base.Add(time.Minute))

	thread, err := repo.ThreadBetween(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, "for bob", thread[0].Content)

	// Carol's message to Alice stays unread; only the opened thread is marked.
	var carolUnread int64
	require.NoError(t, db.Model(&Message{}).
		Where("sender_id = ? AND is_read = ?", carol.ID, false).Count(&carolUnread).Error)
	assert.Equal(t, int64(1), carolUnread)
}

func TestRepository_ConversationsFor_AggregatesPerCounterparty(t *testing.T) {
	repo, db := setupMessageRepositoryTest(t)
	ctx := context.Background()

	alice := seedMessageUser(t, db, "Alice")
	bob := seedMessageUser(t, db, "Bob")
	carol := seedMessageUser(t, db, "Carol")
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)

	sendAt(t, db, bob.ID, alice.ID, "bob 1", base)
	sendAt(t, db, bob.ID, alice.ID, "bob 2", base.Add(time.Minute))
	sendAt(t, db, alice.ID, bob.ID, "to bob", base.Add(2*time.Minute))
	sendAt(t, db, carol.ID, alice.ID, "carol 1", base.Add(10*time.Minute))

	conversations, err := repo.ConversationsFor(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, conversations, 2)

	// Carol's conversation is more recent and comes first.
	assert.Equal(t, carol.ID, conversations[0].CounterpartyID)
	assert.Equal(t, "Carol", conversations[0].CounterpartyName)
	assert.Equal(t, int64(1), conversations[0].UnreadCount)

	assert.Equal(t, bob.ID, conversations[1].CounterpartyID)
	assert.Equal(t, "Bob", conversations[1].CounterpartyName)
	assert.Equal(t, int64(2), conversations[1].UnreadCount, "Alice's own outgoing message must not count as unread")

	// The aggregated timestamp loses its column type on the way out of the
	// store; make sure it still comes back as the real message time.
	assert.WithinDuration(t, base.Add(10*time.Minute), conversations[0].LastMessageTime, time.Second)
	assert.WithinDuration(t, base.Add(2*time.Minute), conversations[1].LastMessageTime, time.Second)
}

func TestRepository_ConversationsFor_UnreadDropsAfterReadingThread(t *testing.T) {
	repo, db := setupMessageRepositoryTest(t)
	ctx := context.Background()

	alice := seedMessageUser(t, db, "Alice")
	bob := seedMessageUser(t, db, "Bob")
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)

	sendAt(t, db, bob.ID, alice.ID, "unread", base)

	_, err := repo.ThreadBetween(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	conversations, err := repo.ConversationsFor(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, int64(0), conversations[0].UnreadCount)
}

func TestRepository_UnreadCountFor(t *testing.T) {
	repo, db := setupMessageRepositoryTest(t)
	ctx := context.Background()

	alice := seedMessageUser(t, db, "Alice")
	bob := seedMessageUser(t, db, "Bob")
	carol := seedMessageUser(t, db, "Carol")
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)

	sendAt(t, db, bob.ID, alice.ID, "one", base)
	sendAt(t, db, carol.ID, alice.ID, "two", base.Add(time.Minute))
	sendAt(t, db, alice.ID, bob.ID, "outgoing", base.Add(2*time.Minute))

	count, err := repo.UnreadCountFor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
