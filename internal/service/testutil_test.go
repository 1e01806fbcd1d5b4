package service

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cropstech/crops-backend/internal/model"
	"github.com/cropstech/crops-backend/internal/repository"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

// fakeMailer records sends and can be flipped into failure mode to
// exercise retry paths.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *fakeMailer) sentMails() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type env struct {
	db         *gorm.DB
	follows    repository.FollowRepository
	prefs      repository.PreferenceRepository
	notifs     repository.NotificationRepository
	digests    repository.DigestRepository
	boards     repository.BoardRepository
	events     repository.EventRepository
	activity   repository.ActivityRepository
	members    repository.MembershipRepository
	mail       *fakeMailer
	engine     *AutoFollowEngine
	digest     *DigestService
	dispatcher *Dispatcher
	backfill   *BackfillService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Workspace{},
		&model.WorkspaceMember{},
		&model.Board{},
		&model.Asset{},
		&model.BoardAsset{},
		&model.Comment{},
		&model.Event{},
		&model.Follow{},
		&model.ExplicitUnfollow{},
		&model.NotificationPreference{},
		&model.Notification{},
		&model.DigestQueueEntry{},
		&model.DigestState{},
	))

	e := &env{
		db:       db,
		follows:  repository.NewFollowRepository(db),
		prefs:    repository.NewPreferenceRepository(db),
		notifs:   repository.NewNotificationRepository(db),
		digests:  repository.NewDigestRepository(db),
		boards:   repository.NewBoardRepository(db),
		events:   repository.NewEventRepository(db),
		activity: repository.NewActivityRepository(db),
		members:  repository.NewMembershipRepository(db),
		mail:     &fakeMailer{},
	}
	e.engine = NewAutoFollowEngine(e.follows, e.boards, nil)
	e.digest = NewDigestService(e.digests, e.notifs, e.prefs, e.activity, e.mail, time.Hour)
	e.dispatcher = NewDispatcher(
		e.events, e.follows, e.boards, e.prefs, e.notifs, e.digests, e.activity,
		e.engine, e.digest, nil, 1, 32, time.Second,
	)
	e.backfill = NewBackfillService(e.follows, e.boards, e.members, e.prefs, e.activity, e.engine)
	return e
}

func (e *env) seedUser(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.User{
		ID:       id,
		Username: id,
		Email:    id + "@example.com",
	}).Error)
}

func (e *env) seedBoard(t *testing.T, id, workspaceID string, parentID *string) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.Board{
		ID:          id,
		WorkspaceID: workspaceID,
		ParentID:    parentID,
		Name:        "board " + id,
	}).Error)
}

func (e *env) seedMember(t *testing.T, workspaceID, userID, role string) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.WorkspaceMember{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
	}).Error)
}

func (e *env) seedAssetOnBoard(t *testing.T, assetID, workspaceID, createdBy string, boardIDs ...string) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.Asset{
		ID:          assetID,
		WorkspaceID: workspaceID,
		CreatedBy:   createdBy,
		Filename:    assetID + ".png",
	}).Error)
	for _, boardID := range boardIDs {
		require.NoError(t, e.db.Create(&model.BoardAsset{
			ID:      uuid.New().String(),
			BoardID: boardID,
			AssetID: assetID,
		}).Error)
	}
}

func (e *env) seedComment(t *testing.T, authorID string, assetID, boardID *string) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.Comment{
		ID:       uuid.New().String(),
		AuthorID: authorID,
		AssetID:  assetID,
		BoardID:  boardID,
		Text:     "hi",
	}).Error)
}

func newEvent(t *testing.T, eventType model.EventType, boardID, actorID string, payload *model.EventPayload) *model.Event {
	t.Helper()
	ev := &model.Event{
		ID:         uuid.New().String(),
		Type:       string(eventType),
		BoardID:    boardID,
		ActorID:    actorID,
		OccurredAt: time.Now(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		ev.Payload = string(raw)
	}
	return ev
}

func str(s string) *string { return &s }

func (e *env) notificationsFor(t *testing.T, userID string) []*model.Notification {
	t.Helper()
	var res []*model.Notification
	require.NoError(t, e.db.Where("user_id = ?", userID).Find(&res).Error)
	return res
}

func (e *env) queuedEntries(t *testing.T, userID string) []*model.DigestQueueEntry {
	t.Helper()
	var res []*model.DigestQueueEntry
	require.NoError(t, e.db.Where("user_id = ?", userID).Find(&res).Error)
	return res
}
