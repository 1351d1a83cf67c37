package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	authmodels "tamil_society/internal/api/auth/models"
	notifmodels "tamil_society/internal/api/notification/models"
	"tamil_society/internal/delivery/channels"
	"tamil_society/internal/logger"
	"tamil_society/internal/notification"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/semaphore"
)

// lookupChunk caps the size of one $in query against the user directory
const lookupChunk = 500

// markTimeout bounds the emailSentAt update issued after a batch
const markTimeout = 5 * time.Second

// RecordStore is the part of the notification store the worker writes to
type RecordStore interface {
	// MarkEmailSent sets emailSentAt only if it is absent and reports whether it did
	MarkEmailSent(ctx context.Context, id primitive.ObjectID, at int64) (bool, error)
}

// ReportSink persists batch reports (delivery log)
type ReportSink interface {
	SaveReport(ctx context.Context, report *BatchReport) error
}

// Renderer turns a template selection into HTML and text bodies
type Renderer interface {
	Render(sel notification.Selection) (html string, text string, err error)
}

// Config bounds the worker
type Config struct {
	Workers     int           // recipients processed in parallel per batch
	MaxInFlight int           // transport calls in flight across all batches
	SendTimeout time.Duration // per-recipient send cap
	Deadline    time.Duration // cap for one detached batch
}

func (c Config) withDefaults() Config {
	if c.Workers < 1 {
		c.Workers = 8
	}
	if c.MaxInFlight < 1 {
		c.MaxInFlight = 16
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 15 * time.Second
	}
	if c.Deadline <= 0 {
		c.Deadline = 10 * time.Minute
	}
	return c
}

// Worker sends notification emails in the background
type Worker struct {
	cfg       Config
	directory notification.Directory
	resolver  *notification.Resolver
	transport channels.Transport
	renderer  Renderer
	store     RecordStore
	sink      ReportSink
	inFlight  *semaphore.Weighted
	now       func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWorker creates a worker. sink may be nil.
func NewWorker(cfg Config, directory notification.Directory, transport channels.Transport, renderer Renderer, store RecordStore, sink ReportSink) *Worker {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		cfg:       cfg,
		directory: directory,
		resolver:  notification.NewResolver(directory),
		transport: transport,
		renderer:  renderer,
		store:     store,
		sink:      sink,
		inFlight:  semaphore.NewWeighted(int64(cfg.MaxInFlight)),
		now:       time.Now,
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

func deliveryLog() *logrus.Entry {
	return logger.WithModule("delivery")
}

// Dispatch delivers copies of records in a detached goroutine and returns immediately
func (w *Worker) Dispatch(records []*notifmodels.Notification) {
	pending := pendingRecords(records)
	if len(pending) == 0 {
		return
	}
	for i, n := range pending {
		cp := *n
		pending[i] = &cp
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				deliveryLog().WithField("panic", r).Error("📧 [DELIVERY] Panic in detached delivery")
			}
		}()

		ctx, cancel := context.WithTimeout(w.baseCtx, w.cfg.Deadline)
		defer cancel()
		w.Deliver(ctx, pending)
	}()
}

// Close waits for detached deliveries. When ctx ends first, in-flight sends are cancelled.
func (w *Worker) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.cancel()
		return nil
	case <-ctx.Done():
		w.cancel()
		<-done
		return ctx.Err()
	}
}

type task struct {
	record *notifmodels.Notification
	user   *authmodels.User
	// recipientID is set when the owner could not be found
	recipientID primitive.ObjectID
}

// Deliver emails every pending record to its recipients and marks each record
// whose recipients were resolved. Per-recipient failures are reported, never returned.
// Marked records get EmailSentAt set in place. Records with a send cut off by ctx
// are left unmarked.
func (w *Worker) Deliver(ctx context.Context, records []*notifmodels.Notification) *BatchReport {
	pending := pendingRecords(records)
	report := &BatchReport{StartedAt: w.now(), Records: len(pending)}
	if len(pending) == 0 {
		report.FinishedAt = w.now()
		return report
	}

	tasks, markable := w.plan(ctx, pending)

	p := pool.NewWithResults[RecipientResult]().WithMaxGoroutines(w.cfg.Workers)
	for _, t := range tasks {
		p.Go(func() RecipientResult {
			return w.deliverOne(ctx, t)
		})
	}
	report.Results = p.Wait()

	for _, n := range markable {
		if report.Interrupted(n.ID) {
			continue
		}
		if w.markSent(ctx, n) {
			report.Marked++
		}
	}
	report.FinishedAt = w.now()

	w.logReport(report)
	if w.sink != nil {
		sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markTimeout)
		defer cancel()
		if err := w.sink.SaveReport(sinkCtx, report); err != nil {
			deliveryLog().WithError(err).Warn("📧 [DELIVERY] Could not save delivery report")
		}
	}
	return report
}

// plan resolves recipients. Records whose recipients could not be looked up are left
// out of markable so a later sweep retries them.
func (w *Worker) plan(ctx context.Context, records []*notifmodels.Notification) ([]task, []*notifmodels.Notification) {
	var tasks []task
	var markable []*notifmodels.Notification

	var owned []*notifmodels.Notification
	for _, n := range records {
		if n.IsBroadcast() {
			users, err := w.resolver.Resolve(ctx, n.TargetAudience, nil)
			if err != nil {
				deliveryLog().WithError(err).WithField("notification_id", n.ID.Hex()).Warn("📧 [DELIVERY] Could not resolve broadcast audience")
				continue
			}
			for i := range users {
				tasks = append(tasks, task{record: n, user: &users[i]})
			}
			markable = append(markable, n)
			continue
		}
		owned = append(owned, n)
	}
	if len(owned) == 0 {
		return tasks, markable
	}

	users, err := w.lookupOwners(ctx, owned)
	if err != nil {
		deliveryLog().WithError(err).WithField("records", len(owned)).Warn("📧 [DELIVERY] Recipient lookup failed, records left for redelivery")
		return tasks, markable
	}

	for _, n := range owned {
		if u, ok := users[*n.RecipientRef]; ok {
			tasks = append(tasks, task{record: n, user: u})
		} else {
			tasks = append(tasks, task{record: n, recipientID: *n.RecipientRef})
		}
		markable = append(markable, n)
	}
	return tasks, markable
}

func (w *Worker) lookupOwners(ctx context.Context, owned []*notifmodels.Notification) (map[primitive.ObjectID]*authmodels.User, error) {
	seen := make(map[primitive.ObjectID]bool, len(owned))
	ids := make([]primitive.ObjectID, 0, len(owned))
	for _, n := range owned {
		if !seen[*n.RecipientRef] {
			seen[*n.RecipientRef] = true
			ids = append(ids, *n.RecipientRef)
		}
	}

	users := make(map[primitive.ObjectID]*authmodels.User, len(ids))
	for start := 0; start < len(ids); start += lookupChunk {
		end := start + lookupChunk
		if end > len(ids) {
			end = len(ids)
		}
		found, err := w.directory.ListByIds(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		for i := range found {
			users[found[i].ID] = &found[i]
		}
	}
	return users, nil
}

func (w *Worker) deliverOne(ctx context.Context, t task) (res RecipientResult) {
	started := w.now()
	res = RecipientResult{NotificationID: t.record.ID, RecipientID: t.recipientID}
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = OutcomeFailed
			res.Err = fmt.Errorf("panic: %v", r)
		}
		res.Duration = w.now().Sub(started)
	}()

	if t.user == nil {
		res.Outcome, res.Reason = OutcomeSkipped, ReasonUnknownRecipient
		return res
	}
	res.RecipientID = t.user.ID
	res.Email = t.user.Email

	if t.user.EmailOptOut {
		res.Outcome, res.Reason = OutcomeSkipped, ReasonOptedOut
		return res
	}
	if t.user.Email == "" {
		res.Outcome, res.Reason = OutcomeSkipped, ReasonNoEmail
		return res
	}

	if err := ctx.Err(); err != nil {
		return interrupted(res, err)
	}

	sel := notification.SelectTemplate(t.record, t.user.LanguagePreference, t.user.Name)
	res.Template = sel.Template
	res.Language = sel.Payload.Language

	html, text, err := w.renderer.Render(sel)
	if err != nil {
		res.Outcome, res.Err = OutcomeFailed, err
		return res
	}

	if err := w.inFlight.Acquire(ctx, 1); err != nil {
		return interrupted(res, err)
	}
	defer w.inFlight.Release(1)

	sendCtx, cancel := context.WithTimeout(ctx, w.cfg.SendTimeout)
	defer cancel()

	err = w.transport.Send(sendCtx, channels.Envelope{
		To:       t.user.Email,
		ToName:   t.user.Name,
		Subject:  sel.Subject,
		Template: sel.Template,
		Payload:  sel.Payload,
		HTML:     html,
		Text:     text,
	})
	if err != nil {
		if ctx.Err() != nil {
			return interrupted(res, err)
		}
		res.Outcome, res.Err = OutcomeFailed, err
		deliveryLog().WithError(err).WithFields(logrus.Fields{
			"notification_id": t.record.ID.Hex(),
			"recipient_id":    t.user.ID.Hex(),
			"transport":       w.transport.Name(),
			"timeout":         errors.Is(err, context.DeadlineExceeded),
		}).Warn("📧 [DELIVERY] Send failed")
		return res
	}

	res.Outcome = OutcomeSent
	return res
}

func interrupted(res RecipientResult, err error) RecipientResult {
	res.Outcome, res.Reason, res.Err = OutcomeFailed, ReasonInterrupted, err
	res.Interrupted = true
	return res
}

// markSent sets emailSentAt once. It survives cancellation of the batch context so a
// batch that finished sending is not re-sent by the sweeper.
func (w *Worker) markSent(ctx context.Context, n *notifmodels.Notification) bool {
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markTimeout)
	defer cancel()

	at := w.now().UnixMilli()
	updated, err := w.store.MarkEmailSent(markCtx, n.ID, at)
	if err != nil {
		deliveryLog().WithError(err).WithField("notification_id", n.ID.Hex()).Error("📧 [DELIVERY] Could not mark email sent")
		return false
	}
	if updated {
		n.EmailSentAt = &at
	}
	return updated
}

func (w *Worker) logReport(report *BatchReport) {
	deliveryLog().WithFields(logrus.Fields{
		"records":     report.Records,
		"marked":      report.Marked,
		"sent":        report.Count(OutcomeSent),
		"skipped":     report.Count(OutcomeSkipped),
		"failed":      report.Count(OutcomeFailed),
		"interrupted": report.countInterrupted(),
		"duration_ms": report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	}).Info("📧 [DELIVERY] Batch finished")
}

// pendingRecords keeps records that asked for email and have not been sent yet
func pendingRecords(records []*notifmodels.Notification) []*notifmodels.Notification {
	out := make([]*notifmodels.Notification, 0, len(records))
	for _, n := range records {
		if n != nil && n.SendEmail && n.EmailSentAt == nil {
			out = append(out, n)
		}
	}
	return out
}
