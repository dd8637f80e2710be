package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/richxcame/rider-client/internal/bids"
	"github.com/richxcame/rider-client/internal/chat"
	"github.com/richxcame/rider-client/internal/locations"
	"github.com/richxcame/rider-client/internal/notify"
	"github.com/richxcame/rider-client/internal/payments"
	"github.com/richxcame/rider-client/internal/rides"
	"github.com/richxcame/rider-client/internal/ridetypes"
	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/i18n"
	"github.com/richxcame/rider-client/pkg/models"
	"github.com/richxcame/rider-client/pkg/money"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func (a *app) searchOptions() locations.Options {
	return locations.Options{Debounce: a.cfg.Polling.SearchDebounce, Lang: a.cfg.App.Language, Logger: a.log}
}

func (a *app) tripSearch(ctx context.Context) *locations.TripSearch {
	var routes locations.RouteClient
	if a.cfg.Routing.OSRMURL != "" {
		routes = locations.NewOSRMClient(a.cfg.Routing.OSRMURL, a.cfg.Routing.Timeout)
	}
	return locations.NewTripSearch(ctx, a.api, routes, a.searchOptions())
}

type endpoint struct {
	field locations.Field
	query string
}

// settle types query into ac and waits for the lookup to finish.
func settle(ctx context.Context, ac *locations.Autocomplete, query string) (locations.View, error) {
	updates := make(chan locations.View, 16)
	ac.Subscribe(func(v locations.View) {
		select {
		case updates <- v:
		default:
		}
	})
	ac.SetQuery(query)
	if utf8.RuneCountInString(strings.TrimSpace(query)) < locations.MinQueryLength {
		return ac.View(), nil
	}
	for {
		select {
		case <-ctx.Done():
			return ac.View(), ctx.Err()
		case v := <-updates:
			switch v.State {
			case locations.StateResults, locations.StateEmpty, locations.StateFailed:
				return v, nil
			}
		}
	}
}

func printSuggestions(w io.Writer, v locations.View) {
	fmt.Fprintf(w, "%s %q: %s\n", v.Field, v.Query, v.State)
	if v.Message != "" {
		fmt.Fprintf(w, "  %s\n", v.Message)
	}
	for i, s := range v.Suggestions {
		fmt.Fprintf(w, "  %d. %s (%s) [%s]\n", i+1, s.DisplayName, s.FormattedAddress, s.ID)
	}
}

func runSearch(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("search")
	pickup := fs.String("pickup", "", "pickup query")
	dropoff := fs.String("dropoff", "", "dropoff query")
	if err := fs.Parse(args); err != nil {
		return err
	}

	trip := a.tripSearch(ctx)
	defer trip.Close()
	for _, e := range []endpoint{{locations.FieldPickup, *pickup}, {locations.FieldDropoff, *dropoff}} {
		field, q := e.field, e.query
		if q == "" {
			continue
		}
		v, err := settle(ctx, trip.Field(field), q)
		if err != nil {
			return err
		}
		printSuggestions(a.out, v)
	}
	return nil
}

func runTypes(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("types")
	area := fs.String("area", string(models.TripAreaInCity), "trip area: in_city or out_of_city")
	category := fs.String("category", "", "category id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sel := ridetypes.NewSelector(a.api, a.cfg.App.Language, nil, a.log)
	if err := sel.Load(ctx, models.TripArea(*area), *category); err != nil {
		return err
	}
	v := sel.View()
	if v.State != ridetypes.StateReady {
		fmt.Fprintln(a.out, v.Message)
		return nil
	}
	for _, sec := range v.Sections {
		fmt.Fprintf(a.out, "%s\n", sec.Category)
		for _, rt := range sec.RideTypes {
			fmt.Fprintf(a.out, "  %-24s %s\n", rt.Title, rt.ID)
		}
	}
	return nil
}

func runBook(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("book")
	from := fs.String("from", "", "pickup query; the first suggestion is used")
	to := fs.String("to", "", "dropoff query; the first suggestion is used")
	rideType := fs.String("type", "", "ride type id")
	riders := fs.Int("riders", 1, "number of riders")
	pets := fs.Int("pets", 0, "number of pets")
	area := fs.String("area", string(models.TripAreaInCity), "trip area")
	if err := fs.Parse(args); err != nil {
		return err
	}

	trip := a.tripSearch(ctx)
	defer trip.Close()
	for _, e := range []endpoint{{locations.FieldPickup, *from}, {locations.FieldDropoff, *to}} {
		field, q := e.field, e.query
		v, err := settle(ctx, trip.Field(field), q)
		if err != nil {
			return err
		}
		if len(v.Suggestions) == 0 {
			printSuggestions(a.out, v)
			return common.NewBadRequestError(fmt.Sprintf("no %s found for %q", field, q), nil)
		}
		trip.Field(field).Select(v.Suggestions[0].ID)
	}

	if r := trip.RoutePreview(ctx); r != nil {
		fmt.Fprintf(a.out, "route: %.1f km, about %s\n", r.DistanceMeters/1000, r.Duration().Round(time.Minute))
	}
	req, ok := trip.Request(*rideType, *riders, *pets, models.TripArea(*area))
	if !ok {
		return common.NewBadRequestError("pickup and dropoff are required", nil)
	}
	ride, err := a.api.CreateRide(ctx, req)
	if err != nil {
		a.notifier.Error(ctx, err)
		return err
	}
	fmt.Fprintf(a.out, "ride %s created (%s)\n", ride.ID, i18n.Translate(i18n.StatusKey(string(ride.Status)), a.cfg.App.Language))
	return nil
}

func runBids(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("bids")
	rideID := fs.String("ride", "", "ride id")
	pay := fs.String("pay", "", "bid id to select and pay; \"first\" takes the first bid")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ride, err := a.api.GetRide(ctx, *rideID)
	if err != nil {
		return err
	}
	if a.cfg.Payments.Flow == "link" && *pay != "" {
		if _, err := a.startCallback(); err != nil {
			return err
		}
	}

	feed := bids.NewFeed(ride.ID, ride.Status, a.api, a.payments, bids.Config{
		Interval: a.cfg.Polling.BidInterval,
		Currency: a.cfg.Payments.Currency,
		Lang:     a.cfg.App.Language,
	}, a.log)
	tracker := rides.NewTracker(ride.ID, a.api, a.notifier, a.cfg.Polling.RideInterval, a.log)

	offers := make(chan []bids.BidView, 1)
	feed.Subscribe(func(v bids.View) {
		if !v.Visible || len(v.Bids) == 0 {
			return
		}
		select {
		case offers <- v.Bids:
		default:
		}
	})
	done := make(chan struct{})
	var once sync.Once
	tracker.Subscribe(func(v rides.View) {
		feed.UpdateStatus(v.Ride.Status)
		if !v.Ride.Status.IsBidding() {
			once.Do(func() { close(done) })
		}
	})

	feed.Start(ctx)
	defer feed.Stop()
	tracker.Start(ctx)
	defer tracker.Stop()

	want := *pay
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			v, _ := tracker.View()
			fmt.Fprintf(a.out, "ride is now %s\n", v.Ride.Status)
			return nil
		case list := <-offers:
			for _, b := range list {
				fmt.Fprintf(a.out, "%s  %s %-8s %s  %s  %s\n", b.ID, b.DisplayID, b.Rating, b.VehicleType, b.FareText, b.DriverName)
			}
			if want == "" {
				continue
			}
			id := want
			if id == "first" {
				id = list[0].ID
			}
			want = ""
			res, err := feed.SelectAndPay(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "payment %s\n", res.Outcome)
			if res.Outcome != payments.OutcomePending {
				return nil
			}
		}
	}
}

func printRide(w io.Writer, v rides.View, lang string) {
	fmt.Fprintf(w, "%s  %s", v.Ride.ID, i18n.Translate(i18n.StatusKey(string(v.Ride.Status)), lang))
	var actions []string
	if v.Actions.CanCancel {
		actions = append(actions, "cancel")
	}
	if v.Actions.CanReport {
		actions = append(actions, "report")
	}
	if v.Actions.CanFinish {
		actions = append(actions, "finish")
	}
	if len(actions) > 0 {
		fmt.Fprintf(w, "  [%s]", strings.Join(actions, ", "))
	}
	fmt.Fprintln(w)
}

func runTrack(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("track")
	rideID := fs.String("ride", "", "ride id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tracker := rides.NewTracker(*rideID, a.api, a.notifier, a.cfg.Polling.RideInterval, a.log)
	ended := make(chan struct{}, 1)
	tracker.Subscribe(func(v rides.View) {
		printRide(a.out, v, a.cfg.App.Language)
		if v.Ride.Status.IsTerminal() {
			select {
			case ended <- struct{}{}:
			default:
			}
		}
	})
	tracker.Start(ctx)
	defer tracker.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ended:
		return nil
	}
}

func runCancel(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("cancel")
	rideID := fs.String("ride", "", "ride id")
	reason := fs.String("reason", "", "optional reason")
	quoteOnly := fs.Bool("quote", false, "only show the refund estimate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ride, err := a.api.GetRide(ctx, *rideID)
	if err != nil {
		return err
	}
	redirected := make(chan struct{})
	flow := rides.NewCancelFlow(*ride, a.api, a.notifier, func() { close(redirected) }, a.cfg.Polling.RedirectDelay, a.log)
	defer flow.Close()

	q, err := flow.Quote(ctx)
	if err != nil {
		return err
	}
	currency := q.Currency
	if currency == "" {
		currency = a.cfg.Payments.Currency
	}
	fmt.Fprintf(a.out, "refund %s, fee %s\n",
		i18n.FormatAmount(money.FromMajor(q.RefundAmount), currency),
		i18n.FormatAmount(money.FromMajor(q.CancellationFee), currency))
	if *quoteOnly {
		return nil
	}

	if err := flow.Confirm(ctx, *reason); err != nil {
		return err
	}
	select {
	case <-redirected:
	case <-ctx.Done():
	}
	return nil
}

func parseRating(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "good", "2", "👍":
		return models.RatingPositive, nil
	case "down", "bad", "1", "👎":
		return models.RatingNegative, nil
	}
	return 0, common.NewBadRequestError(fmt.Sprintf("rating must be up or down, got %q", s), nil)
}

func runFinish(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("finish")
	rideID := fs.String("ride", "", "ride id")
	rating := fs.String("rating", "up", "up or down")
	emoji := fs.String("emoji", "", "optional emoji")
	tip := fs.String("tip", "", "tip in major units, e.g. 2.50; empty skips the tip")
	if err := fs.Parse(args); err != nil {
		return err
	}
	score, err := parseRating(*rating)
	if err != nil {
		return err
	}
	var amount money.Amount
	if *tip != "" {
		if amount, err = money.ParseMajor(*tip); err != nil {
			return common.NewBadRequestError("invalid tip amount", err)
		}
	}

	ride, err := a.api.GetRide(ctx, *rideID)
	if err != nil {
		return err
	}
	flow := rides.NewFinishFlow(*ride, a.api, a.payments, a.notifier, a.cfg.Payments.Currency, a.cfg.App.Language, a.log)
	if err := flow.Begin(); err != nil {
		return err
	}
	if err := flow.SubmitRating(ctx, score, *emoji); err != nil {
		return err
	}
	if b := flow.Bounds(); b != nil {
		currency := ride.Currency
		if currency == "" {
			currency = a.cfg.Payments.Currency
		}
		fmt.Fprintf(a.out, "tips from %s to %s\n",
			i18n.FormatAmount(money.FromMajor(b.Min), currency),
			i18n.FormatAmount(money.FromMajor(b.Max), currency))
	}
	if amount > 0 {
		return flow.PayTip(ctx, amount)
	}
	return flow.SkipTip(ctx)
}

func runReport(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("report")
	rideID := fs.String("ride", "", "ride id")
	violation := fs.String("type", "", "violation type id; empty lists the types")
	text := fs.String("text", "", "what happened")
	attach := fs.String("attach", "", "comma separated files to attach")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ride, err := a.api.GetRide(ctx, *rideID)
	if err != nil {
		return err
	}
	store, err := a.reportStorage(ctx)
	if err != nil {
		return err
	}
	flow := rides.NewReportFlow(*ride, a.api, store, a.notifier, a.cfg.Storage.MaxSizeMB, a.log)

	if *violation == "" {
		types, err := flow.ViolationTypes(ctx)
		if err != nil {
			return err
		}
		for _, t := range types {
			fmt.Fprintf(a.out, "  %-12s %s\n", t.ID, t.Label)
		}
		return nil
	}

	in := rides.ReportInput{ViolationTypeID: *violation, Description: *text}
	for _, path := range strings.Split(*attach, ",") {
		if path = strings.TrimSpace(path); path == "" {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return common.NewBadRequestError(fmt.Sprintf("cannot open %s", path), err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}
		in.Attachments = append(in.Attachments, rides.Attachment{
			Filename: filepath.Base(path),
			Size:     info.Size(),
			Body:     f,
		})
	}
	return flow.Submit(ctx, in)
}

func runChat(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("chat")
	rideID := fs.String("ride", "", "ride id")
	desktop := fs.Bool("desktop", true, "raise desktop notifications for driver messages")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *desktop {
		a.notifier.SetPermission(notify.PermissionGranted)
	} else {
		a.notifier.SetPermission(notify.PermissionDenied)
	}

	ride, err := a.api.GetRide(ctx, *rideID)
	if err != nil {
		return err
	}
	channel, err := a.chatChannel(ctx, *ride)
	if err != nil {
		return err
	}

	return channel.Run(ctx, func(sub *chat.Subscription) error {
		show := messagePrinter(a.out)
		sub.Subscribe(show)
		show(sub.View())

		lines := make(chan string)
		go func() {
			defer close(lines)
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				select {
				case lines <- scanner.Text():
				case <-ctx.Done():
					return
				}
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				if strings.TrimSpace(line) == "" {
					continue
				}
				// failures already reach the rider through the notifier
				if _, err := sub.Send(ctx, line); errors.Is(err, chat.ErrClosed) {
					return nil
				}
			}
		}
	})
}

func runServe(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("serve")
	if err := fs.Parse(args); err != nil {
		return err
	}
	srv, err := a.startCallback()
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-srv.Results():
			fmt.Fprintf(a.out, "payment return for ride %s: %s\n", res.RideID, res.Outcome)
		}
	}
}

// messagePrinter returns a chat subscriber that prints each message once,
// including ones inserted before already printed messages.
func messagePrinter(w io.Writer) func(chat.View) {
	var mu sync.Mutex
	printed := make(map[string]struct{})
	return func(v chat.View) {
		mu.Lock()
		defer mu.Unlock()
		for _, m := range v.Messages {
			if _, ok := printed[m.ID]; ok {
				continue
			}
			printed[m.ID] = struct{}{}
			fmt.Fprintf(w, "%s %-8s %s\n", m.CreatedAt.Local().Format("15:04"), m.SenderRole, m.Message)
		}
	}
}
