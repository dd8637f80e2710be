package locations

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/i18n"
	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/richxcame/rider-client/pkg/models"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before a query is sent.
const DefaultDebounce = 500 * time.Millisecond

// Options configures an Autocomplete
type Options struct {
	Debounce time.Duration
	Lang     string
	Logger   *zap.Logger
}

// Autocomplete drives one field's location lookup and dropdown.
type Autocomplete struct {
	field    Field
	client   SearchClient
	form     *TripForm
	debounce time.Duration
	lang     string
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	view   View
	bounds Bounds
	closed bool
	subs   []func(View)
}

// NewAutocomplete creates the autocomplete for field. Lookups run under ctx
// until Close.
func NewAutocomplete(ctx context.Context, field Field, client SearchClient, form *TripForm, opts Options) *Autocomplete {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	cctx, cancel := context.WithCancel(ctx)
	return &Autocomplete{
		field:    field,
		client:   client,
		form:     form,
		debounce: opts.Debounce,
		lang:     opts.Lang,
		logger:   logger.OrNop(opts.Logger).With(zap.String("field", string(field))),
		ctx:      cctx,
		cancel:   cancel,
		view:     View{Field: field, State: StateIdle},
	}
}

// Subscribe registers fn to receive every published view
func (a *Autocomplete) Subscribe(fn func(View)) {
	a.mu.Lock()
	a.subs = append(a.subs, fn)
	a.mu.Unlock()
}

// View returns the current view
func (a *Autocomplete) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// SetBounds records where the dropdown is drawn
func (a *Autocomplete) SetBounds(b Bounds) {
	a.mu.Lock()
	a.bounds = b
	a.mu.Unlock()
}

// SetQuery updates the typed text. Short queries clear the dropdown without
// a lookup; longer ones re-arm the debounce timer.
func (a *Autocomplete) SetQuery(q string) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.seq++
	seq := a.seq
	a.stopTimerLocked()

	if utf8.RuneCountInString(strings.TrimSpace(q)) < MinQueryLength {
		a.view = View{Field: a.field, Query: q, State: StateIdle}
		a.publishLocked()
		return
	}

	a.view.Query = q
	a.timer = time.AfterFunc(a.debounce, func() { a.lookup(seq, strings.TrimSpace(q)) })
	a.mu.Unlock()
}

func (a *Autocomplete) lookup(seq uint64, q string) {
	a.mu.Lock()
	if a.closed || seq != a.seq {
		a.mu.Unlock()
		return
	}
	a.view.State = StateLoading
	a.view.Open = true
	a.view.Message = ""
	a.publishLocked()

	results, err := a.client.SearchLocations(a.ctx, q)

	a.mu.Lock()
	if a.closed || seq != a.seq {
		a.mu.Unlock()
		a.logger.Debug("discarding stale location results", zap.String("query", q))
		return
	}
	a.view.Open = true
	switch {
	case err != nil:
		a.logger.Warn("location search failed", zap.String("query", q), zap.Error(err))
		a.view.State = StateFailed
		a.view.Suggestions = nil
		a.view.Message = a.failureMessage(err)
	case len(results) == 0:
		a.view.State = StateEmpty
		a.view.Suggestions = nil
		a.view.Message = i18n.Translate("rider.search.empty", a.lang)
	default:
		a.view.State = StateResults
		a.view.Suggestions = results
		a.view.Message = ""
	}
	a.publishLocked()
}

func (a *Autocomplete) failureMessage(err error) string {
	if appErr, ok := common.AsAppError(err); ok && appErr.Code < 500 {
		return appErr.Message
	}
	return i18n.Translate("rider.search.failed", a.lang)
}

// Select commits the suggestion with id to the trip form and closes the dropdown.
func (a *Autocomplete) Select(id string) (models.Location, bool) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return models.Location{}, false
	}
	var picked *models.LocationSuggestion
	for i := range a.view.Suggestions {
		if a.view.Suggestions[i].ID == id {
			picked = &a.view.Suggestions[i]
			break
		}
	}
	if picked == nil {
		a.mu.Unlock()
		return models.Location{}, false
	}
	loc := models.Location{
		Address:   picked.FormattedAddress,
		Latitude:  picked.Latitude,
		Longitude: picked.Longitude,
	}
	if loc.Address == "" {
		loc.Address = picked.DisplayName
	}
	a.seq++
	a.stopTimerLocked()
	a.view.Query = loc.Address
	a.view.Open = false
	a.publishLocked()

	if a.form != nil {
		a.form.Set(a.field, loc)
	}
	return loc, true
}

// HandlePointerDown closes the dropdown when the point is outside its bounds.
func (a *Autocomplete) HandlePointerDown(x, y float64) {
	a.mu.Lock()
	if !a.view.Open || a.bounds.Contains(x, y) {
		a.mu.Unlock()
		return
	}
	a.view.Open = false
	a.publishLocked()
}

// Close stops the timer and ignores any response still in flight.
func (a *Autocomplete) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.stopTimerLocked()
	a.mu.Unlock()
	a.cancel()
}

func (a *Autocomplete) stopTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// publishLocked snapshots the view and releases the lock before calling subscribers.
func (a *Autocomplete) publishLocked() {
	v := a.view
	v.Suggestions = append([]models.LocationSuggestion(nil), a.view.Suggestions...)
	subs := append([]func(View){}, a.subs...)
	a.mu.Unlock()
	for _, fn := range subs {
		fn(v)
	}
}
