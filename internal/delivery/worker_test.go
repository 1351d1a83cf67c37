package delivery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	authmodels "tamil_society/internal/api/auth/models"
	notifmodels "tamil_society/internal/api/notification/models"
	"tamil_society/internal/delivery/channels"
	"tamil_society/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeDirectory struct {
	users []authmodels.User
	err   error
}

func (d *fakeDirectory) ListAll(ctx context.Context) ([]authmodels.User, error) {
	return d.users, d.err
}

func (d *fakeDirectory) ListByRole(ctx context.Context, role string) ([]authmodels.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []authmodels.User
	for _, u := range d.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *fakeDirectory) ListMembers(ctx context.Context) ([]authmodels.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []authmodels.User
	for _, u := range d.users {
		if !u.IsAdmin() {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *fakeDirectory) ListByIds(ctx context.Context, ids []primitive.ObjectID) ([]authmodels.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	want := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []authmodels.User
	for _, u := range d.users {
		if want[u.ID] {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeTransport struct {
	mu       sync.Mutex
	sent     []channels.Envelope
	fail     map[string]error
	block    map[string]bool
	delay    time.Duration
	inFlight int32
	peak     int32
}

func (t *fakeTransport) Name() string { return "fake" }

func (t *fakeTransport) Send(ctx context.Context, env channels.Envelope) error {
	cur := atomic.AddInt32(&t.inFlight, 1)
	defer atomic.AddInt32(&t.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&t.peak)
		if cur <= peak || atomic.CompareAndSwapInt32(&t.peak, peak, cur) {
			break
		}
	}

	if t.block[env.To] {
		<-ctx.Done()
		return ctx.Err()
	}
	if t.delay > 0 {
		time.Sleep(t.delay)
	}
	if err := t.fail[env.To]; err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, env)
	return nil
}

func (t *fakeTransport) sentTo() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.sent))
	for _, e := range t.sent {
		out = append(out, e.To)
	}
	return out
}

type fakeStore struct {
	mu   sync.Mutex
	sent map[primitive.ObjectID]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{sent: map[primitive.ObjectID]int64{}}
}

func (s *fakeStore) MarkEmailSent(ctx context.Context, id primitive.ObjectID, at int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sent[id]; ok {
		return false, nil
	}
	s.sent[id] = at
	return true, nil
}

type fakeSink struct {
	mu      sync.Mutex
	reports []*BatchReport
}

func (s *fakeSink) SaveReport(ctx context.Context, report *BatchReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return nil
}

type fakeRenderer struct{}

func (fakeRenderer) Render(sel notification.Selection) (string, string, error) {
	return "<p>" + sel.Payload.Message + "</p>", sel.Payload.Message, nil
}

func user(name string, role string) authmodels.User {
	return authmodels.User{ID: primitive.NewObjectID(), Name: name, Email: name + "@example.org", Role: role}
}

func recordFor(u authmodels.User) *notifmodels.Notification {
	id := u.ID
	return &notifmodels.Notification{
		ID:             primitive.NewObjectID(),
		RecipientRef:   &id,
		Title:          notifmodels.LocalizedText{En: "Hi", Ta: "வணக்கம்"},
		Message:        notifmodels.LocalizedText{En: "Welcome", Ta: "வரவேற்பு"},
		Type:           notification.TypeSuccess,
		Priority:       notification.PriorityMedium,
		TargetAudience: notification.AudienceSpecific,
		SendEmail:      true,
	}
}

func newTestWorker(dir *fakeDirectory, tr *fakeTransport, store *fakeStore, sink *fakeSink, cfg Config) *Worker {
	var s ReportSink
	if sink != nil {
		s = sink
	}
	return NewWorker(cfg, dir, tr, fakeRenderer{}, store, s)
}

func TestDeliver_SkipsAndIsolatesFailures(t *testing.T) {
	ok := user("kavin", authmodels.RoleUser)
	optedOut := user("meena", authmodels.RoleUser)
	optedOut.EmailOptOut = true
	broken := user("arun", authmodels.RoleUser)
	noEmail := user("selvi", authmodels.RoleUser)
	noEmail.Email = ""
	unknown := user("ghost", authmodels.RoleUser)

	dir := &fakeDirectory{users: []authmodels.User{ok, optedOut, broken, noEmail}}
	tr := &fakeTransport{fail: map[string]error{broken.Email: errors.New("smtp 550")}}
	store := newFakeStore()
	sink := &fakeSink{}
	w := newTestWorker(dir, tr, store, sink, Config{Workers: 2})

	records := []*notifmodels.Notification{recordFor(ok), recordFor(optedOut), recordFor(broken), recordFor(noEmail), recordFor(unknown)}
	report := w.Deliver(context.Background(), records)

	assert.Equal(t, 5, report.Records)
	assert.Equal(t, 1, report.Count(OutcomeSent))
	assert.Equal(t, 3, report.Count(OutcomeSkipped))
	assert.Equal(t, 1, report.Count(OutcomeFailed))
	assert.Equal(t, 5, report.Marked)
	assert.Equal(t, []string{ok.Email}, tr.sentTo())

	reasons := map[primitive.ObjectID]string{}
	for _, res := range report.Results {
		reasons[res.RecipientID] = res.Reason
	}
	assert.Equal(t, ReasonOptedOut, reasons[optedOut.ID])
	assert.Equal(t, ReasonNoEmail, reasons[noEmail.ID])
	assert.Equal(t, ReasonUnknownRecipient, reasons[unknown.ID])

	for _, n := range records {
		assert.NotNil(t, n.EmailSentAt)
	}
	require.Len(t, sink.reports, 1)
}

func TestDeliver_SecondRunKeepsEmailSentAt(t *testing.T) {
	u := user("kavin", authmodels.RoleUser)
	dir := &fakeDirectory{users: []authmodels.User{u}}
	tr := &fakeTransport{}
	store := newFakeStore()
	w := newTestWorker(dir, tr, store, nil, Config{})

	clock := time.UnixMilli(1_700_000_000_000)
	w.now = func() time.Time { return clock }

	n := recordFor(u)
	first := w.Deliver(context.Background(), []*notifmodels.Notification{n})
	require.Equal(t, 1, first.Marked)
	markedAt := store.sent[n.ID]

	// Same record again: already marked, nothing is sent
	again := w.Deliver(context.Background(), []*notifmodels.Notification{n})
	assert.Equal(t, 0, again.Records)
	assert.Len(t, tr.sentTo(), 1)

	// A stale copy from before the mark: the store refuses the second mark
	clock = clock.Add(time.Hour)
	stale := *n
	stale.EmailSentAt = nil
	third := w.Deliver(context.Background(), []*notifmodels.Notification{&stale})
	assert.Equal(t, 0, third.Marked)
	assert.Equal(t, markedAt, store.sent[n.ID])
	assert.Nil(t, stale.EmailSentAt)
}

func TestDeliver_SendTimeoutDoesNotStallBatch(t *testing.T) {
	slow := user("slow", authmodels.RoleUser)
	fast := user("fast", authmodels.RoleUser)
	dir := &fakeDirectory{users: []authmodels.User{slow, fast}}
	tr := &fakeTransport{block: map[string]bool{slow.Email: true}}
	store := newFakeStore()
	w := newTestWorker(dir, tr, store, nil, Config{Workers: 2, SendTimeout: 20 * time.Millisecond})

	report := w.Deliver(context.Background(), []*notifmodels.Notification{recordFor(slow), recordFor(fast)})

	assert.Equal(t, 1, report.Count(OutcomeSent))
	require.Equal(t, 1, report.Count(OutcomeFailed))
	for _, res := range report.Results {
		if res.Outcome == OutcomeFailed {
			assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
			assert.Equal(t, slow.ID, res.RecipientID)
		}
	}
	assert.Equal(t, 2, report.Marked)
}

func TestDeliver_BoundedConcurrency(t *testing.T) {
	var users []authmodels.User
	var records []*notifmodels.Notification
	for i := 0; i < 20; i++ {
		u := user("member"+string(rune('a'+i)), authmodels.RoleUser)
		users = append(users, u)
		records = append(records, recordFor(u))
	}
	dir := &fakeDirectory{users: users}
	tr := &fakeTransport{delay: 10 * time.Millisecond}
	w := newTestWorker(dir, tr, newFakeStore(), nil, Config{Workers: 10, MaxInFlight: 3})

	report := w.Deliver(context.Background(), records)

	assert.Equal(t, 20, report.Count(OutcomeSent))
	assert.LessOrEqual(t, atomic.LoadInt32(&tr.peak), int32(3))
}

func TestDeliver_DirectoryFailureLeavesRecordsUnmarked(t *testing.T) {
	u := user("kavin", authmodels.RoleUser)
	dir := &fakeDirectory{users: []authmodels.User{u}, err: errors.New("mongo down")}
	tr := &fakeTransport{}
	store := newFakeStore()
	w := newTestWorker(dir, tr, store, nil, Config{})

	n := recordFor(u)
	report := w.Deliver(context.Background(), []*notifmodels.Notification{n})

	assert.Equal(t, 0, report.Marked)
	assert.Empty(t, report.Results)
	assert.Nil(t, n.EmailSentAt)
	assert.Empty(t, store.sent)
}

func TestDeliver_LegacyBroadcastResolvesAudience(t *testing.T) {
	admin := user("admin", authmodels.RoleAdmin)
	m1 := user("m1", authmodels.RoleUser)
	m2 := user("m2", authmodels.RoleUser)
	dir := &fakeDirectory{users: []authmodels.User{admin, m1, m2}}
	tr := &fakeTransport{}
	w := newTestWorker(dir, tr, newFakeStore(), nil, Config{})

	n := recordFor(m1)
	n.RecipientRef = nil
	n.TargetAudience = notification.AudienceMembers

	report := w.Deliver(context.Background(), []*notifmodels.Notification{n})

	assert.Equal(t, 2, report.Count(OutcomeSent))
	assert.ElementsMatch(t, []string{m1.Email, m2.Email}, tr.sentTo())
	assert.Equal(t, 1, report.Marked)
}

func TestDeliver_IgnoresRecordsWithoutEmail(t *testing.T) {
	u := user("kavin", authmodels.RoleUser)
	tr := &fakeTransport{}
	w := newTestWorker(&fakeDirectory{users: []authmodels.User{u}}, tr, newFakeStore(), nil, Config{})

	n := recordFor(u)
	n.SendEmail = false
	report := w.Deliver(context.Background(), []*notifmodels.Notification{n})

	assert.Equal(t, 0, report.Records)
	assert.Empty(t, tr.sentTo())
}

func TestDeliver_UsesRecipientLanguage(t *testing.T) {
	u := user("kavin", authmodels.RoleUser)
	u.LanguagePreference = notification.LangTamil
	tr := &fakeTransport{}
	w := newTestWorker(&fakeDirectory{users: []authmodels.User{u}}, tr, newFakeStore(), nil, Config{})

	w.Deliver(context.Background(), []*notifmodels.Notification{recordFor(u)})

	require.Len(t, tr.sent, 1)
	assert.Equal(t, "வணக்கம்", tr.sent[0].Subject)
	assert.Equal(t, "வரவேற்பு", tr.sent[0].Text)
	assert.Equal(t, notification.TemplateGeneric, tr.sent[0].Template)
}

func TestDispatch_DetachedAndClosed(t *testing.T) {
	u := user("kavin", authmodels.RoleUser)
	tr := &fakeTransport{delay: 30 * time.Millisecond}
	store := newFakeStore()
	w := newTestWorker(&fakeDirectory{users: []authmodels.User{u}}, tr, store, nil, Config{})

	n := recordFor(u)
	started := time.Now()
	w.Dispatch([]*notifmodels.Notification{n})
	assert.Less(t, time.Since(started), 30*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, w.Close(ctx))

	assert.Len(t, tr.sentTo(), 1)
	assert.Contains(t, store.sent, n.ID)
	// Dispatch works on copies
	assert.Nil(t, n.EmailSentAt)
}

func TestDeliver_CancelledSendLeavesRecordUnmarked(t *testing.T) {
	u := user("kavin", authmodels.RoleUser)
	tr := &fakeTransport{block: map[string]bool{u.Email: true}}
	store := newFakeStore()
	w := newTestWorker(&fakeDirectory{users: []authmodels.User{u}}, tr, store, nil, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	n := recordFor(u)
	report := w.Deliver(ctx, []*notifmodels.Notification{n})

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.True(t, res.Interrupted)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, ReasonInterrupted, res.Reason)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 0, report.Marked)
	assert.Nil(t, n.EmailSentAt)
	assert.Empty(t, store.sent)
}

func TestDispatch_CloseTimeoutMarksOnlySentRecords(t *testing.T) {
	var users []authmodels.User
	var records []*notifmodels.Notification
	for i := 0; i < 4; i++ {
		u := user("member"+string(rune('a'+i)), authmodels.RoleUser)
		users = append(users, u)
		records = append(records, recordFor(u))
	}
	tr := &fakeTransport{delay: 300 * time.Millisecond}
	store := newFakeStore()
	sink := &fakeSink{}
	w := newTestWorker(&fakeDirectory{users: users}, tr, store, sink, Config{Workers: 1})

	w.Dispatch(records)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Close(ctx), context.DeadlineExceeded)

	sent := map[string]bool{}
	for _, to := range tr.sentTo() {
		sent[to] = true
	}
	assert.Less(t, len(sent), len(records))
	for i, n := range records {
		_, marked := store.sent[n.ID]
		assert.Equal(t, sent[users[i].Email], marked, "record for %s", users[i].Email)
	}

	require.Len(t, sink.reports, 1)
	report := sink.reports[0]
	assert.Equal(t, len(sent), report.Marked)
	assert.Equal(t, len(records)-len(sent), report.countInterrupted())
}
