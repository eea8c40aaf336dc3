package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"telegram-fragment-bot/internal/fragment"
	"telegram-fragment-bot/internal/journal"
	"telegram-fragment-bot/internal/logging"
	"telegram-fragment-bot/internal/metrics"
	"telegram-fragment-bot/internal/render"
)

const (
	greeting      = "I'm a bot, please talk to me!"
	locationUsage = "/location requires two arguments or \"none\", e.g., \n" +
		"/location 53.377452 -1.465185\n" +
		"/location none"
	helpText = "commands:\n" +
		"/location <lat> <lon> | none - set or clear your location (alias /loc)\n" +
		"/status [text] - set or clear your status\n" +
		"/name [text] - set or clear your display name\n" +
		"/clear - remove all your updates\n" +
		"/fragments - list your published files\n" +
		"anything else is added to your updates"
)

// Event is one inbound chat event, already stripped of transport details.
// Exactly one of Command, Location or Text is expected to be set.
type Event struct {
	UserID   int64
	ChatID   int64
	Command  string
	Args     []string
	Text     string
	Location *render.Point
}

// Journal records fragment changes. It is optional.
type Journal interface {
	Record(userID string, e journal.Entry) error
	Trim(userID string, limit int) error
	Latest(userID string) (map[string]journal.Entry, error)
}

// Options configure a Dispatcher.
type Options struct {
	BaseURL        string
	StylesheetURL  string
	FeedMaxEntries int
	JournalLimit   int
	Journal        Journal
	Now            func() time.Time
}

type command func(ctx context.Context, id string, args []string) (string, error)

// Dispatcher maps events to fragment changes and returns the reply text.
type Dispatcher struct {
	store    *fragment.Store
	opts     Options
	commands map[string]command
}

// NewDispatcher wires the command table.
func NewDispatcher(store *fragment.Store, opts Options) *Dispatcher {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	d := &Dispatcher{store: store, opts: opts}
	d.commands = map[string]command{
		"start":     d.start,
		"help":      d.help,
		"location":  d.location,
		"loc":       d.location,
		"status":    d.status,
		"name":      d.name,
		"clear":     d.clearUpdates,
		"fragments": d.fragments,
	}
	return d
}

// Handle processes ev. A returned error means the fragment could not be
// stored; validation problems are reported in the reply instead.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) (string, error) {
	id := strconv.FormatInt(ev.UserID, 10)
	switch {
	case ev.Location != nil:
		metrics.Command("location_share")
		return d.setLocation(ctx, id, *ev.Location)
	case ev.Command != "":
		name := strings.ToLower(ev.Command)
		cmd, ok := d.commands[name]
		if !ok {
			metrics.Command("unknown")
			return "unknown command /" + ev.Command + "\n" + helpText, nil
		}
		metrics.Command(name)
		return cmd(ctx, id, ev.Args)
	case strings.TrimSpace(ev.Text) != "":
		metrics.Command("text")
		return d.appendUpdate(ctx, id, ev.Text)
	}
	return "", nil
}

func (d *Dispatcher) url(kind fragment.Kind, id string) string {
	return d.opts.BaseURL + d.store.Path(kind, id)
}

func (d *Dispatcher) start(context.Context, string, []string) (string, error) {
	return greeting, nil
}

func (d *Dispatcher) help(context.Context, string, []string) (string, error) {
	return helpText, nil
}

func (d *Dispatcher) location(ctx context.Context, id string, args []string) (string, error) {
	switch {
	case len(args) == 2:
		p, err := render.ParsePoint(args[0], args[1])
		if err != nil {
			logging.Ctx(ctx).Debug().Err(err).Msg("bad location arguments")
			return locationUsage, nil
		}
		return d.setLocation(ctx, id, p)
	case len(args) == 1 && (strings.EqualFold(args[0], "none") || strings.EqualFold(args[0], "clear")):
		return d.clearReply(ctx, fragment.Location, id)
	default:
		return locationUsage, nil
	}
}

func (d *Dispatcher) setLocation(ctx context.Context, id string, p render.Point) (string, error) {
	logging.Ctx(ctx).Info().Str("bbox", render.BBox(p)).Msg("writing location")
	if err := d.write(ctx, fragment.Location, id, render.Location(p, d.opts.Now())); err != nil {
		return "", err
	}
	return fmt.Sprintf("updated your live location:\nlatitude: %s\nlongitude: %s\n%s\nto the file: %s",
		render.Coord(p.Lat), render.Coord(p.Lon), render.MapLink(p), d.url(fragment.Location, id)), nil
}

func (d *Dispatcher) status(ctx context.Context, id string, args []string) (string, error) {
	text := strings.Join(args, " ")
	if text == "" {
		return d.clearReply(ctx, fragment.Status, id)
	}
	if err := d.write(ctx, fragment.Status, id, render.Status(text, d.opts.Now())); err != nil {
		return "", err
	}
	return fmt.Sprintf("updated your status: %s\nto the file: %s", text, d.url(fragment.Status, id)), nil
}

func (d *Dispatcher) name(ctx context.Context, id string, args []string) (string, error) {
	text := render.Name(strings.Join(args, " "))
	if text == "" {
		return d.clearReply(ctx, fragment.Name, id)
	}
	if err := d.write(ctx, fragment.Name, id, text); err != nil {
		return "", err
	}
	return fmt.Sprintf("updated your name: %s\nto the file: %s", text, d.url(fragment.Name, id)), nil
}

func (d *Dispatcher) clearUpdates(ctx context.Context, id string, _ []string) (string, error) {
	return d.clearReply(ctx, fragment.Updates, id)
}

func (d *Dispatcher) appendUpdate(ctx context.Context, id, text string) (string, error) {
	entry := render.FeedEntry(text, d.opts.Now())
	err := d.store.Update(ctx, fragment.Updates, id, func(old string, exists bool) (string, error) {
		return render.PrependFeed(old, exists, entry, d.opts.StylesheetURL, d.opts.FeedMaxEntries), nil
	})
	if err != nil {
		return "", fmt.Errorf("append update: %w", err)
	}
	d.recorded(ctx, fragment.Updates, id, journal.OpWrite)
	return "added update to " + d.url(fragment.Updates, id), nil
}

func (d *Dispatcher) fragments(ctx context.Context, id string, _ []string) (string, error) {
	var latest map[string]journal.Entry
	if d.opts.Journal != nil {
		var err error
		if latest, err = d.opts.Journal.Latest(id); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("journal lookup failed")
		}
	}

	var lines []string
	for _, k := range fragment.Kinds() {
		_, err := d.store.Read(ctx, k, id)
		if errors.Is(err, fragment.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", err
		}
		line := fmt.Sprintf("%s: %s", k, d.url(k, id))
		if e, ok := latest[k.String()]; ok && e.Op == journal.OpWrite {
			line += " (updated " + e.Time().Format(render.TimeLayout) + ")"
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "you have no fragments yet", nil
	}
	return strings.Join(lines, "\n"), nil
}

func (d *Dispatcher) clearReply(ctx context.Context, kind fragment.Kind, id string) (string, error) {
	removed, err := d.clear(ctx, kind, id)
	if err != nil {
		return "", err
	}
	if !removed {
		return fmt.Sprintf("no %s to clear in %s", kind, d.url(kind, id)), nil
	}
	return fmt.Sprintf("cleared %s in %s", kind, d.url(kind, id)), nil
}

func (d *Dispatcher) write(ctx context.Context, kind fragment.Kind, id, content string) error {
	if err := d.store.Write(ctx, kind, id, content); err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}
	d.recorded(ctx, kind, id, journal.OpWrite)
	return nil
}

func (d *Dispatcher) clear(ctx context.Context, kind fragment.Kind, id string) (bool, error) {
	removed, err := d.store.Clear(ctx, kind, id)
	if err != nil {
		return false, fmt.Errorf("clear %s: %w", kind, err)
	}
	if removed {
		d.recorded(ctx, kind, id, journal.OpClear)
	}
	return removed, nil
}

// recorded logs, counts and journals a successful mutation. Journal failures
// do not fail the request; the fragment is already on disk.
func (d *Dispatcher) recorded(ctx context.Context, kind fragment.Kind, id string, op journal.Op) {
	log := logging.Ctx(ctx)
	log.Info().Str("event", "fragment_"+string(op)).Str("kind", kind.String()).Str("path", d.store.Path(kind, id)).Msg("fragment changed")
	metrics.FragmentMutation(kind.String(), string(op))

	if d.opts.Journal == nil {
		return
	}
	e := journal.Entry{Kind: kind.String(), Op: op, When: d.opts.Now().Unix()}
	if err := d.opts.Journal.Record(id, e); err != nil {
		log.Warn().Err(err).Msg("journal record failed")
		return
	}
	if err := d.opts.Journal.Trim(id, d.opts.JournalLimit); err != nil {
		log.Warn().Err(err).Msg("journal trim failed")
	}
}
