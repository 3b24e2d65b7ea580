package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/edgard/chanbot/internal/bot"
	"github.com/edgard/chanbot/internal/command"
	"github.com/edgard/chanbot/internal/request"
	"github.com/edgard/chanbot/internal/response"
	"github.com/edgard/chanbot/internal/user"
)

// newCommandSet returns the bot's commands in dispatch order. The
// one-word song lookup comes last so that every other command wins.
func newCommandSet(log *slog.Logger) *command.Set {
	set := command.NewSet(log,
		command.MustNew("!song add <command> <url> <cooldown..>", songAdd,
			command.WithSyntax(),
			command.WithParser("url", command.URL),
			command.WithParser("cooldown", command.Duration),
			command.WithMiddleware(command.ModeratorOnly()),
		),
		command.MustNew("!song rm <command>", songRemove,
			command.WithSyntax(),
			command.WithMiddleware(command.ModeratorOnly()),
		),
		command.MustNew("!song list", songList, command.WithSyntax()),
		command.MustNew("!chatters [window]", chattersList,
			command.WithParser("window", command.Optional(command.Duration)),
		),
		command.MustNew("!quote", quote),
		command.MustNew("!whois <user>", whois,
			command.WithSyntax(),
			command.WithParser("user", command.UserArg),
		),
		command.MustNew("!count", count),
		command.MustNew("!block <word>", block,
			command.WithSyntax(),
			command.WithMiddleware(command.ModeratorOnly()),
		),
		command.MustNew("!unblock <word>", unblock,
			command.WithSyntax(),
			command.WithMiddleware(command.ModeratorOnly()),
		),
	)
	set.Add(command.MustNew("!commands", commandList(set)))
	set.Add(command.MustNew("<command>", playSong, command.WithName("song")))
	return set
}

// commandList answers with the distinct command words of set, in
// dispatch order.
func commandList(set *command.Set) command.Handler {
	return func(context.Context, *request.CommandRequest, command.Args) (response.Response, error) {
		var names []string
		for _, cmd := range set.Commands() {
			word, _, _ := strings.Cut(cmd.Template(), " ")
			if strings.HasPrefix(word, request.CommandPrefix) && !slices.Contains(names, word) {
				names = append(names, word)
			}
		}
		return response.New("Commands: " + strings.Join(names, ", ")), nil
	}
}

func songAdd(ctx context.Context, req *request.CommandRequest, args command.Args) (response.Response, error) {
	name := args.Raw("command")
	link, err := command.Get[*url.URL](args, "url")
	if err != nil {
		return response.None(), err
	}
	cooldown, err := command.Get[time.Duration](args, "cooldown")
	if err != nil {
		return response.None(), err
	}

	songs, err := request.Persisted[SongList](req)
	if err != nil {
		return response.None(), err
	}
	old, _, err := songs.Update(ctx, func(l SongList) SongList {
		next := maps.Clone(l.Songs)
		if next == nil {
			next = make(map[string]Song)
		}
		next[name] = Song{URL: link.String(), Cooldown: cooldown, AddedBy: req.Sender.Username}
		return SongList{Songs: next}
	})
	if err != nil {
		return response.None(), err
	}

	if _, existed := old.Songs[name]; existed {
		return response.Reply("Updated " + name), nil
	}
	return response.Reply("Added " + name), nil
}

func songRemove(ctx context.Context, req *request.CommandRequest, args command.Args) (response.Response, error) {
	name := args.Raw("command")
	songs, err := request.Persisted[SongList](req)
	if err != nil {
		return response.None(), err
	}

	old, updated, err := songs.MaybeUpdate(ctx, func(l SongList) (SongList, bool) {
		if _, ok := l.Songs[name]; !ok {
			return l, false
		}
		next := maps.Clone(l.Songs)
		delete(next, name)
		return SongList{Songs: next}, true
	})
	if err != nil {
		return response.None(), err
	}
	if old == updated {
		return response.Reply("No song " + name), nil
	}
	return response.Reply("Removed " + name), nil
}

func songList(ctx context.Context, req *request.CommandRequest, _ command.Args) (response.Response, error) {
	songs, err := request.Persisted[SongList](req)
	if err != nil {
		return response.None(), err
	}
	l, err := songs.Read(ctx)
	if err != nil {
		return response.None(), err
	}
	return response.Of(*l), nil
}

// playSong answers "!walk" with the song's link, at most once per
// cooldown. Anything that is not a known song is ignored.
func playSong(ctx context.Context, req *request.CommandRequest, args command.Args) (response.Response, error) {
	songs, err := request.Persisted[SongList](req)
	if err != nil {
		return response.None(), err
	}
	l, err := songs.Read(ctx)
	if err != nil {
		return response.None(), err
	}
	song, ok := l.Songs[args.Raw("command")]
	if !ok {
		return response.None(), nil
	}

	cooldowns, err := request.ChannelState[*cooldownTracker](req)
	if err != nil {
		return response.None(), err
	}
	if !cooldowns.Allow(args.Raw("command"), song.Cooldown) {
		return response.None(), nil
	}
	return response.New(song.URL), nil
}

func chattersList(_ context.Context, req *request.CommandRequest, args command.Args) (response.Response, error) {
	window, ok := command.Lookup[time.Duration](args, "window")
	if !ok {
		settings, err := request.State[Settings](req)
		if err != nil {
			return response.None(), err
		}
		window = settings.ChattersWindow
	}

	names := request.Chatters(req).List(req.Channel.ID, window, true)
	if len(names) == 0 {
		return response.New("Nobody chatted recently"), nil
	}
	return response.Newf("%d chatters: %s", len(names), strings.Join(names, ", ")), nil
}

func quote(_ context.Context, req *request.CommandRequest, _ command.Args) (response.Response, error) {
	settings, err := request.State[Settings](req)
	if err != nil {
		return response.None(), err
	}
	text, ok := request.Chatters(req).RandomMessage(req.Channel.ID, settings.ChattersWindow)
	if !ok {
		return response.None(), nil
	}
	return response.Newf("%q", text), nil
}

func whois(_ context.Context, req *request.CommandRequest, args command.Args) (response.Response, error) {
	arg, err := command.Get[user.Argument](args, "user")
	if err != nil {
		return response.None(), err
	}
	u, ok := request.Chatters(req).Lookup(arg.Name())
	if !ok {
		return response.Reply("I don't know " + arg.String()), nil
	}
	return response.Reply(fmt.Sprintf("%s is %s (id %d)", user.ArgumentFor(u), u.Username, u.ID)), nil
}

func count(ctx context.Context, req *request.CommandRequest, _ command.Args) (response.Response, error) {
	counter, err := request.Persisted[Counter](req)
	if err != nil {
		return response.None(), err
	}
	_, updated, err := counter.Update(ctx, func(c Counter) Counter {
		c.N++
		return c
	})
	if err != nil {
		return response.None(), err
	}
	return response.Newf("Counted %d times", updated.N), nil
}

func block(ctx context.Context, req *request.CommandRequest, args command.Args) (response.Response, error) {
	word := strings.ToLower(args.Raw("word"))
	list, err := request.Persisted[Blocklist](req)
	if err != nil {
		return response.None(), err
	}
	_, _, err = list.MaybeUpdate(ctx, func(b Blocklist) (Blocklist, bool) {
		if slices.Contains(b.Words, word) {
			return b, false
		}
		words := append(slices.Clone(b.Words), word)
		slices.Sort(words)
		return Blocklist{Words: words}, true
	})
	if err != nil {
		return response.None(), err
	}
	return response.Reply("Blocked " + word), nil
}

func unblock(ctx context.Context, req *request.CommandRequest, args command.Args) (response.Response, error) {
	word := strings.ToLower(args.Raw("word"))
	list, err := request.Persisted[Blocklist](req)
	if err != nil {
		return response.None(), err
	}
	_, _, err = list.MaybeUpdate(ctx, func(b Blocklist) (Blocklist, bool) {
		i := slices.Index(b.Words, word)
		if i < 0 {
			return b, false
		}
		return Blocklist{Words: slices.Delete(slices.Clone(b.Words), i, i+1)}, true
	})
	if err != nil {
		return response.None(), err
	}
	return response.Reply("Unblocked " + word), nil
}

// blocklistFilter deletes messages containing a blocked word. Moderators
// and the broadcaster are exempt.
func blocklistFilter(log *slog.Logger) bot.Filter {
	return func(ctx context.Context, req *request.FilterRequest) bool {
		if req.Sender.Privileged() {
			return true
		}
		list, err := request.Persisted[Blocklist](req)
		if err != nil {
			log.WarnContext(ctx, "Blocklist unavailable", "channel", req.Channel.Name, "error", err)
			return true
		}
		b, err := list.Read(ctx)
		if err != nil {
			return true
		}
		return !b.Blocks(req.Text)
	}
}
