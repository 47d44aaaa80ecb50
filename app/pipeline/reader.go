package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"forum-sentinel/app/forum"
	"forum-sentinel/app/store"
)

type pendingActivity struct {
	activity forum.Activity
	attempts int
}

// Stats is a point-in-time snapshot of the pipeline state for the ops API.
type Stats struct {
	Watermarks      map[string]int64 `json:"watermarks"`
	PendingRetries  int              `json:"pending_retries"`
	CachedQuestions int              `json:"cached_questions"`
}

// Reader polls the four forum collections, emits one notification per new
// activity and feeds all observed text through the secret scanner. Cycles
// never overlap: the poll interval is measured from the end of a cycle.
type Reader struct {
	api           ForumAPI
	notifier      Notifier
	scanner       Scanner
	watermarkRepo store.WatermarkRepository
	formatter     *forum.Formatter
	baseURL       string
	channel       string
	interval      time.Duration
	maxAttempts   int
	now           func() time.Time

	mu         sync.Mutex
	watermarks map[forum.ActivityType]int64
	cache      map[int64]forum.Activity
	pending    []pendingActivity
}

func NewReader(api ForumAPI, notifier Notifier, scanner Scanner,
	watermarkRepo store.WatermarkRepository, formatter *forum.Formatter,
	baseURL, channel string, interval time.Duration, maxAttempts int) *Reader {
	return &Reader{
		api:           api,
		notifier:      notifier,
		scanner:       scanner,
		watermarkRepo: watermarkRepo,
		formatter:     formatter,
		baseURL:       baseURL,
		channel:       channel,
		interval:      interval,
		maxAttempts:   maxAttempts,
		now:           time.Now,
		watermarks:    make(map[forum.ActivityType]int64),
		cache:         make(map[int64]forum.Activity),
	}
}

// LoadWatermarks restores the per-type cursors from storage. Called once at
// startup; a failure here is fatal.
func (r *Reader) LoadWatermarks(ctx context.Context) error {
	persisted, err := r.watermarkRepo.Load(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for activityType, value := range persisted {
		r.watermarks[forum.ActivityType(activityType)] = value
	}

	slog.Info("Watermarks loaded", "count", len(persisted))
	return nil
}

// Run polls until the context is canceled. The first cycle starts
// immediately; each subsequent cycle starts one interval after the previous
// one finished.
func (r *Reader) Run(ctx context.Context) {
	for {
		r.Cycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(r.interval):
		}
	}
}

// Cycle fetches all four collections, processes everything newer than the
// watermarks and then runs the retry pass. A failed collection fetch is
// logged and does not abort the other three.
func (r *Reader) Cycle(ctx context.Context) {
	collections := []struct {
		activityType forum.ActivityType
		fetch        func(context.Context, int, string) ([]forum.Activity, error)
	}{
		{forum.TypeQuestion, r.api.ListQuestions},
		{forum.TypeAnswer, r.api.ListAnswers},
		{forum.TypeComment, r.api.ListComments},
		{forum.TypeArticle, r.api.ListArticles},
	}

	for _, collection := range collections {
		list, err := collection.fetch(ctx, forum.DefaultPage, forum.DefaultSort)
		if err != nil {
			slog.Error("Collection fetch failed", "type", collection.activityType, "error", err)
			continue
		}
		r.processCollection(ctx, collection.activityType, list)
	}

	r.retryPending(ctx)
}

// Stats returns a snapshot of the pipeline state.
func (r *Reader) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	watermarks := make(map[string]int64, len(r.watermarks))
	for activityType, value := range r.watermarks {
		watermarks[string(activityType)] = value
	}

	return Stats{
		Watermarks:      watermarks,
		PendingRetries:  len(r.pending),
		CachedQuestions: len(r.cache),
	}
}

// processCollection walks one page oldest-first (the API returns newest-first)
// and processes every activity newer than the type's watermark. The watermark
// is advanced only after the whole page has been attempted, and advances past
// failed activities so one broken item cannot block newer ones.
func (r *Reader) processCollection(ctx context.Context, activityType forum.ActivityType, list []forum.Activity) {
	mark := r.watermark(ctx, activityType)
	advanced := mark

	for i := len(list) - 1; i >= 0; i-- {
		activity := list[i]
		if activity.CreationDate <= mark {
			continue
		}

		if err := r.process(ctx, activity); err != nil {
			var unknown *UnknownTypeError
			if errors.As(err, &unknown) {
				slog.Warn("Skipping activity of unknown type", "id", activity.ID, "activity_type", activity.Type)
			} else {
				slog.Error("Activity processing failed, queueing for retry", "type", activityType, "id", activity.ID, "error", err)
				r.enqueuePending(activity)
			}
		}

		if activity.CreationDate > advanced {
			advanced = activity.CreationDate
		}
	}

	if advanced > mark {
		r.setWatermark(ctx, activityType, advanced)
	}
}

// process builds and emits the notification for one activity and feeds its
// text through the scanner. Send failures are logged but the activity still
// counts as processed; only construction failures are retryable.
func (r *Reader) process(ctx context.Context, activity forum.Activity) error {
	note, err := r.buildNotification(ctx, activity)
	if err != nil {
		return err
	}

	if activity.Type == forum.TypeQuestion || activity.Type == forum.TypeArticle {
		r.cachePut(activity)
	}

	username, _ := forum.SplitDisplayName(activity.Author.Username)
	postedAt := time.UnixMilli(activity.CreationDate)

	if activity.Type == forum.TypeQuestion {
		r.scanner.FindKey(ctx, username, activity.Title, "the forum, in the title, at "+note.URL, postedAt)
	}
	r.scanner.FindKey(ctx, username, activity.Body, "the forum, at "+note.URL, postedAt)

	if err := r.notifier.SendActivity(ctx, r.channel, note); err != nil {
		slog.Error("Failed to send notification", "type", activity.Type, "id", activity.ID, "error", err)
	}

	return nil
}

// retryPending reattempts every queued activity once. It runs after the main
// pass so a parent question fetched during this cycle is already cached.
func (r *Reader) retryPending(ctx context.Context) {
	pending := r.takePending()
	if len(pending) == 0 {
		return
	}

	var remaining []pendingActivity
	for _, entry := range pending {
		err := r.process(ctx, entry.activity)
		if err == nil {
			continue
		}

		entry.attempts++
		if entry.attempts >= r.maxAttempts {
			slog.Error("Giving up on activity after repeated failures",
				"type", entry.activity.Type, "id", entry.activity.ID, "attempts", entry.attempts, "error", err)
			continue
		}
		remaining = append(remaining, entry)
	}

	r.restorePending(remaining)
}

func (r *Reader) watermark(ctx context.Context, activityType forum.ActivityType) int64 {
	r.mu.Lock()
	mark, ok := r.watermarks[activityType]
	r.mu.Unlock()

	if !ok {
		// First observation of this type: start at the current time so a
		// long-lived forum does not flood the channel on first run.
		mark = r.now().UnixMilli()
		r.setWatermark(ctx, activityType, mark)
	}

	return mark
}

func (r *Reader) setWatermark(ctx context.Context, activityType forum.ActivityType, value int64) {
	r.mu.Lock()
	r.watermarks[activityType] = value
	r.mu.Unlock()

	if err := r.watermarkRepo.Set(ctx, string(activityType), value); err != nil {
		slog.Error("Failed to persist watermark", "type", activityType, "error", err)
	}
}

func (r *Reader) cacheGet(id int64) (forum.Activity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	activity, ok := r.cache[id]
	return activity, ok
}

func (r *Reader) cachePut(activity forum.Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[activity.ID] = activity
}

func (r *Reader) enqueuePending(activity forum.Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, pendingActivity{activity: activity, attempts: 1})
}

func (r *Reader) takePending() []pendingActivity {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending := r.pending
	r.pending = nil
	return pending
}

func (r *Reader) restorePending(pending []pendingActivity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, pending...)
}
