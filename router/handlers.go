package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/onnwee/al/content"
	"github.com/onnwee/al/ledger"
	"github.com/onnwee/al/mention"
	"github.com/onnwee/al/telemetry"
)

func isNotFound(err error) bool { return errors.Is(err, content.ErrNotFound) }

func handlePoint(ctx context.Context, _ *Router, req *Request, books Books) Result {
	handle := req.Args[0]
	n, err := books.Users.AwardPoint(ctx, handle)
	telemetry.Inc(telemetry.PointsAwarded)
	text := fmt.Sprintf("%s has %d points", handle, n)
	if n == 1 {
		text = fmt.Sprintf("%s has 1 point", handle)
	}
	return ok(say(req, text)).withSaveErr(err)
}

func handleHi(_ context.Context, _ *Router, req *Request, _ Books) Result {
	return ok(say(req, fmt.Sprintf("%s: I am %s", req.Sender, req.Nick)))
}

func helpLines(nick string) []string {
	return []string{
		fmt.Sprintf("Talk to me by starting a line with %s: and one of", nick),
		"  hi | help | cafe | show users",
		"  weather [zip | city [state]]",
		"  tell <user> <message>",
		"  remember <user> [email] [phone] | update email <user> <email>",
		"  movie <title> | define <term> | song [user]",
		"Anything else after my name is a question. Give someone a point with <user>++",
	}
}

func handleHelp(_ context.Context, _ *Router, req *Request, _ Books) Result {
	lines := helpLines(req.Nick)
	replies := make([]Reply, 0, len(lines))
	for _, l := range lines {
		replies = append(replies, whisper(req, l))
	}
	return ok(replies...)
}

func handleTell(ctx context.Context, _ *Router, req *Request, books Books) Result {
	if len(req.Args) < 2 {
		return invalid("Give me a message to tell someone!: %s: tell <user> <message>", req.Nick)
	}
	target := req.Args[0]
	err := books.Mentions.Enqueue(ctx, target, req.Sender, strings.Join(req.Args[1:], " "))
	telemetry.Inc(telemetry.MentionsQueued)
	return ok(say(req, fmt.Sprintf("I will pass that along when %s joins", target))).withSaveErr(err)
}

func handleRemember(ctx context.Context, _ *Router, req *Request, books Books) Result {
	if len(req.Args) == 0 {
		return invalid("Tell me who to remember!: %s: remember <user> [email] [phone]", req.Nick)
	}
	handle := req.Args[0]
	outcome, err := books.Users.Remember(ctx, handle, req.Args[1:]...)
	if outcome == ledger.AlreadyKnown {
		return ok(say(req, fmt.Sprintf("I already know %s", handle)))
	}
	return ok(say(req, fmt.Sprintf("I will remember %s", handle))).withSaveErr(err)
}

func handleUpdateEmail(ctx context.Context, _ *Router, req *Request, books Books) Result {
	var handle, email string
	if len(req.Args) > 0 {
		handle = req.Args[0]
	}
	if len(req.Args) > 1 {
		email = req.Args[1]
	}
	outcome, err := books.Users.UpdateEmail(ctx, handle, email)
	switch outcome {
	case ledger.MissingArgument:
		return invalid("Give me something to update!: %s: update email <user> <email>", req.Nick)
	case ledger.UnknownUser:
		return invalid("I don't know %s yet, try: %s: remember %s", handle, req.Nick, handle)
	}
	return ok(say(req, fmt.Sprintf("Updated the email for %s", handle))).withSaveErr(err)
}

func handleShowUsers(_ context.Context, _ *Router, req *Request, books Books) Result {
	users := books.Users.List()
	if len(users) == 0 {
		return ok(say(req, "I don't know anyone yet."))
	}
	return ok(say(req, "I know: "+strings.Join(users, ", ")))
}

func handleCafe(ctx context.Context, r *Router, req *Request, _ Books) Result {
	if r.adapters.Menu == nil {
		return adapterFailed(nil, "Sorry, the cafe menu is not set up.")
	}
	var menu content.Menu
	err := r.call(ctx, "menu", func(ctx context.Context) (err error) {
		menu, err = r.adapters.Menu.Today(ctx)
		return err
	})
	if err != nil {
		return adapterFailed(err, "Sorry, I could not get the cafe menu right now.")
	}
	return ok(
		say(req, fmt.Sprintf("Steam 'n Turren: %s.", menu.Soup)),
		say(req, fmt.Sprintf("Field of Greens: %s.", menu.Greens)),
		say(req, fmt.Sprintf("Flavor & Fire: %s.", menu.Flavor)),
		say(req, fmt.Sprintf("The Grillery: %s.", menu.Grill)),
		say(req, fmt.Sprintf("Main Event: %s", menu.Main)),
	)
}

func handleWeather(ctx context.Context, r *Router, req *Request, _ Books) Result {
	if r.adapters.Weather == nil {
		return adapterFailed(nil, "Sorry, the weather is not set up.")
	}
	loc := content.ParseLocation(req.Args)
	var fc content.Forecast
	err := r.call(ctx, "weather", func(ctx context.Context) (err error) {
		fc, err = r.adapters.Weather.Current(ctx, loc)
		return err
	})
	switch {
	case isNotFound(err):
		return invalid("I could not find the weather there.")
	case err != nil:
		return adapterFailed(err, "Sorry, I could not get the weather right now.")
	}
	return ok(say(req, fmt.Sprintf("%s: %s, %.0f degrees, %d%% humidity", fc.Place, fc.Status, fc.Temperature, fc.Humidity)))
}

func handleMovie(ctx context.Context, r *Router, req *Request, _ Books) Result {
	if len(req.Args) == 0 {
		return invalid("Give me a movie to look up!: %s: movie <title>", req.Nick)
	}
	if r.adapters.Movies == nil || r.cfg.MovieKey == "" {
		return adapterFailed(nil, "Sorry, movie ratings are not set up.")
	}
	title := strings.Join(req.Args, " ")
	var rating content.Rating
	err := r.call(ctx, "movie", func(ctx context.Context) (err error) {
		rating, err = r.adapters.Movies.Rate(ctx, title, r.cfg.MovieKey)
		return err
	})
	switch {
	case isNotFound(err):
		return ok(say(req, fmt.Sprintf("I could not find a movie called %s.", title)))
	case err != nil:
		return adapterFailed(err, "Sorry, I could not get movie ratings right now.")
	}
	text := fmt.Sprintf("%s: critics %d%%, audience %d%%", rating.Title, rating.CriticsScore, rating.AudienceScore)
	if rating.Link != "" {
		text += " " + rating.Link
	}
	return ok(say(req, text))
}

func handleDefine(ctx context.Context, r *Router, req *Request, _ Books) Result {
	if len(req.Args) == 0 {
		return invalid("Give me something to define!: %s: define <term>", req.Nick)
	}
	if r.adapters.Slang == nil {
		return adapterFailed(nil, "Sorry, definitions are not set up.")
	}
	term := strings.Join(req.Args, " ")
	var def content.Definition
	err := r.call(ctx, "slang", func(ctx context.Context) (err error) {
		def, err = r.adapters.Slang.Define(ctx, term)
		return err
	})
	switch {
	case isNotFound(err):
		return ok(say(req, fmt.Sprintf("I could not find a definition for %s.", term)))
	case err != nil:
		return adapterFailed(err, "Sorry, I could not look that up right now.")
	}
	replies := []Reply{say(req, def.Definition)}
	if def.Example != "" {
		replies = append(replies, say(req, "Example: "+def.Example))
	}
	if def.Permalink != "" {
		replies = append(replies, say(req, def.Permalink))
	}
	return ok(replies...)
}

func handleSong(ctx context.Context, r *Router, req *Request, _ Books) Result {
	user := r.cfg.DefaultListener
	if len(req.Args) > 0 {
		user = req.Args[0]
	}
	if user == "" {
		return invalid("Tell me whose music to check!: %s: song <user>", req.Nick)
	}
	if r.adapters.Music == nil {
		return adapterFailed(nil, "Sorry, now playing is not set up.")
	}
	var (
		track   string
		playing bool
	)
	err := r.call(ctx, "nowplaying", func(ctx context.Context) (err error) {
		track, playing, err = r.adapters.Music.NowPlaying(ctx, user)
		return err
	})
	if err != nil {
		return adapterFailed(err, "Sorry, I could not check what is playing right now.")
	}
	if !playing {
		return ok(say(req, fmt.Sprintf("%s is not playing anything right now.", user)))
	}
	return ok(say(req, fmt.Sprintf("%s is listening to %s", user, track)))
}

func handleAsk(ctx context.Context, r *Router, req *Request, _ Books) Result {
	if req.Query == "" {
		return invalid("Ask me something: %s: <question>", req.Nick)
	}
	if r.adapters.Oracle == nil || r.cfg.KnowledgeKey == "" {
		return adapterFailed(nil, "Sorry, I can't answer questions right now.")
	}
	var answers []string
	err := r.call(ctx, "knowledge", func(ctx context.Context) (err error) {
		answers, err = r.adapters.Oracle.Ask(ctx, req.Query, r.cfg.KnowledgeKey)
		return err
	})
	if err != nil && !isNotFound(err) {
		return adapterFailed(err, "Sorry, I could not find an answer right now.")
	}
	if len(answers) == 0 {
		return ok(say(req, "I don't know the answer to that."))
	}
	replies := make([]Reply, 0, len(answers))
	for i, a := range answers {
		if i < r.cfg.ChannelAnswers {
			replies = append(replies, say(req, a))
		} else {
			replies = append(replies, whisper(req, a))
		}
	}
	return ok(replies...)
}

// Deliver drains target's pending mentions and renders each as a channel
// reply. A save error is returned alongside the replies.
func Deliver(ctx context.Context, queue *mention.Queue, channel, target string) ([]Reply, error) {
	pending, err := queue.Drain(ctx, target)
	replies := make([]Reply, 0, len(pending))
	for _, m := range pending {
		replies = append(replies, Reply{To: channel, Text: mention.Render(target, m)})
	}
	telemetry.Add(telemetry.MentionsDelivered, len(pending))
	return replies, err
}
