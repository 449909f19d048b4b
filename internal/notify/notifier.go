// Package notify maintains the set of recurring weekly triggers, one per
// active subscription, and fires airing notifications through the chat host.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/user/anime-notify-bot/internal/model"
	"github.com/user/anime-notify-bot/internal/server"
	"github.com/user/anime-notify-bot/internal/store"
	"golang.org/x/time/rate"
)

// Key uniquely identifies one scheduled job.
type Key struct {
	AnimeID int
	GroupID int64
	UserID  int64
}

// Job is one weekly notification trigger, derived from a subscription joined
// with its broadcast slot. The set is a rebuildable cache: it must always be
// reconstructable from the subscription and catalog stores.
type Job struct {
	AnimeID int
	GroupID int64
	UserID  int64
	Day     time.Weekday
	Hour    int
	Minute  int
}

// Key returns the composite identity of the job.
func (j Job) Key() Key {
	return Key{AnimeID: j.AnimeID, GroupID: j.GroupID, UserID: j.UserID}
}

// cronSpec renders the weekly trigger in standard 5-field cron syntax.
func (j Job) cronSpec() string {
	return fmt.Sprintf("%d %d * * %d", j.Minute, j.Hour, int(j.Day))
}

// Sender delivers a composed airing notification to a chat target.
type Sender interface {
	NotifyAiring(groupID, userID int64, detail *model.AnimeDetail) error
}

// Notifier owns the process-wide job set. Every structural change rebuilds
// the whole trigger table (clear-and-reinsert); the job count is bounded by
// total subscriptions and mutations are interactive-command frequency, so
// the simplicity wins over incremental patching.
type Notifier struct {
	catalog store.CatalogStore
	sender  Sender
	limiter *rate.Limiter

	mu      sync.Mutex
	cron    *cron.Cron
	jobs    map[Key]Job
	entries map[Key]cron.EntryID
	now     func() time.Time
}

// NewNotifier creates an idle notifier. The underlying cron runner starts on
// the first Rebuild and keeps running even with an empty job set.
func NewNotifier(catalog store.CatalogStore, sender Sender) *Notifier {
	return &Notifier{
		catalog: catalog,
		sender:  sender,
		// Telegram rate limit: 30 messages per second globally
		limiter: rate.NewLimiter(rate.Limit(30), 1),
		cron:    cron.New(),
		jobs:    make(map[Key]Job),
		entries: make(map[Key]cron.EntryID),
		now:     time.Now,
	}
}

// Rebuild atomically replaces the active trigger set: every scheduled entry
// is cleared, then one weekly trigger is registered per input job. Safe to
// call with an empty list.
func (n *Notifier) Rebuild(jobs []Job) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.jobs = make(map[Key]Job, len(jobs))
	for _, job := range jobs {
		n.jobs[job.Key()] = job
	}
	n.reschedule()
}

// Add registers one more job and rebuilds the trigger set.
func (n *Notifier) Add(job Job) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.jobs[job.Key()] = job
	n.reschedule()
}

// Remove drops the job matching the key and rebuilds the trigger set.
// No-op when the key is not tracked.
func (n *Notifier) Remove(key Key) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.jobs[key]; !ok {
		return
	}
	delete(n.jobs, key)
	n.reschedule()
}

// reschedule clears every cron entry and re-registers the tracked set.
// Callers must hold n.mu.
func (n *Notifier) reschedule() {
	for _, id := range n.entries {
		n.cron.Remove(id)
	}
	n.entries = make(map[Key]cron.EntryID, len(n.jobs))

	for key, job := range n.jobs {
		id, err := n.cron.AddFunc(job.cronSpec(), func() { n.fire(job) })
		if err != nil {
			log.Error().
				Err(err).
				Int("animeID", job.AnimeID).
				Str("spec", job.cronSpec()).
				Msg("Failed to register notification trigger")
			continue
		}
		n.entries[key] = id
	}

	n.cron.Start() // idempotent; keeps the scheduler running when empty
	server.SetActiveJobs(len(n.entries))

	log.Info().Int("jobs", len(n.entries)).Msg("Notification triggers rebuilt")
}

// fire runs one trigger: look up the current detail, gate on the airing
// window, and deliver. Triggers are never self-canceling; once the airing
// period ends the weekly fire keeps happening and is suppressed here until
// the subscription is removed.
func (n *Notifier) fire(job Job) {
	ctx := context.Background()

	detail, err := n.catalog.GetDetail(ctx, job.AnimeID)
	if err != nil {
		server.RecordError("notify")
		log.Error().Err(err).Int("animeID", job.AnimeID).Msg("Failed to load detail for notification")
		return
	}
	if detail == nil {
		log.Warn().Int("animeID", job.AnimeID).Msg("No detail for scheduled anime, skipping notification")
		return
	}

	now := n.now()
	if !airingWindowOpen(detail, now) {
		log.Debug().
			Int("animeID", job.AnimeID).
			Str("start", detail.StartDate).
			Str("end", detail.EndDate).
			Msg("Outside airing window, notification suppressed")
		return
	}

	if err := n.limiter.Wait(ctx); err != nil {
		log.Error().Err(err).Msg("Rate limiter error")
		return
	}

	if err := n.sender.NotifyAiring(job.GroupID, job.UserID, detail); err != nil {
		server.RecordNotification("failed")
		log.Error().
			Err(err).
			Int("animeID", job.AnimeID).
			Int64("groupID", job.GroupID).
			Msg("Failed to send airing notification")
		return
	}

	server.RecordNotification("success")
	log.Info().
		Int("animeID", job.AnimeID).
		Int64("groupID", job.GroupID).
		Int64("userID", job.UserID).
		Msg("Airing notification sent")
}

// Jobs returns a snapshot of the tracked job set.
func (n *Notifier) Jobs() []Job {
	n.mu.Lock()
	defer n.mu.Unlock()

	jobs := make([]Job, 0, len(n.jobs))
	for _, job := range n.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// ActiveTriggers returns the number of registered cron entries.
func (n *Notifier) ActiveTriggers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.cron.Entries())
}

// Stop halts the cron runner, waiting for an in-flight fire to complete.
func (n *Notifier) Stop() {
	<-n.cron.Stop().Done()
	log.Info().Msg("Notification scheduler stopped")
}
