package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/edgard/chanbot/internal/bot"
	"github.com/edgard/chanbot/internal/bus"
	"github.com/edgard/chanbot/internal/chatters"
	"github.com/edgard/chanbot/internal/event"
	"github.com/edgard/chanbot/internal/logger"
	"github.com/edgard/chanbot/internal/request"
	"github.com/edgard/chanbot/internal/response"
	"github.com/edgard/chanbot/internal/state"
	"github.com/edgard/chanbot/internal/user"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	room      = request.Channel{Name: "room", ID: 1}
	moderator = request.Sender{User: user.New("mod", "Mod", 2), Moderator: true}
	viewer    = request.Sender{User: user.New("viewer", "Viewer", 5)}
	amy       = request.Sender{User: user.New("amy", "Amy", 7)}
)

type harness struct {
	t       *testing.T
	bus     *bus.MessageBus
	clock   *clockwork.FakeClock
	dataDir string
	errc    chan error
	cancel  context.CancelFunc
	seq     int
}

func start(t *testing.T) *harness {
	t.Helper()
	log := logger.Discard()
	h := &harness{
		t:       t,
		bus:     bus.New(user.New("chanbot", "ChanBot", 99), 16),
		clock:   clockwork.NewFakeClock(),
		dataDir: t.TempDir(),
		errc:    make(chan error, 1),
	}

	registry := chatters.NewRegistry(chatters.WithClock(h.clock), chatters.WithLogger(log))
	channels := state.NewChannelContainer(h.dataDir, channelTemplate(log, h.clock), log)
	app := bot.New(log, h.bus, newCommandSet(log),
		bot.WithChannelContainer(channels),
		bot.WithChatters(registry),
		bot.WithFilter(blocklistFilter(log)),
	)
	require.NoError(t, bot.RegisterState(app, Settings{ChattersWindow: 10 * time.Minute}))

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.errc <- app.Run(ctx)
	}()

	t.Cleanup(func() {
		h.bus.Close()
		defer h.cancel()
		select {
		case err := <-h.errc:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("bot did not stop")
		}
	})
	return h
}

func (h *harness) say(sender request.Sender, text string) string {
	h.t.Helper()
	h.seq++
	id := "m" + strconv.Itoa(h.seq)
	require.NoError(h.t, h.bus.Publish(context.Background(), event.Message{
		Channel: room,
		Sender:  sender,
		Text:    text,
		ID:      id,
	}))
	return id
}

func (h *harness) next() event.Outgoing {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msg, ok := h.bus.Consume(ctx)
	require.True(h.t, ok, "expected an outgoing message")
	return msg
}

func (h *harness) ask(sender request.Sender, text string) string {
	h.t.Helper()
	h.say(sender, text)
	return h.next().Text
}

// silent asserts that text produces no output, using the read-only song
// list as a sentinel.
func (h *harness) silent(sender request.Sender, text string) {
	h.t.Helper()
	h.say(sender, text)
	h.say(viewer, "!song list")
	assert.Contains(h.t, h.next().Text, "ong", "%q should not answer", text)
}

func TestSongCommands(t *testing.T) {
	t.Parallel()
	h := start(t)

	assert.Equal(t, "No songs yet", h.ask(viewer, "!song list"))
	h.silent(viewer, "!song add !walk https://example.com/walk 20m")

	assert.Equal(t, "Added !walk", h.ask(moderator, "!song add !walk https://example.com/walk 20m"))
	assert.Equal(t, "Updated !walk", h.ask(moderator, "!song add !walk https://example.com/walk 1m"))
	assert.Equal(t, "Songs: !walk", h.ask(viewer, "!song list"))

	assert.Equal(t, "https://example.com/walk", h.ask(viewer, "!walk"))
	h.silent(viewer, "!walk")
	h.clock.Advance(2 * time.Minute)
	assert.Equal(t, "https://example.com/walk", h.ask(viewer, "!walk"))

	data, err := os.ReadFile(filepath.Join(h.dataDir, "room", "songs.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://example.com/walk")

	assert.Equal(t, "No song !nope", h.ask(moderator, "!song rm !nope"))
	assert.Equal(t, "Removed !walk", h.ask(moderator, "!song rm !walk"))
	assert.Equal(t, "No songs yet", h.ask(viewer, "!song list"))
}

func TestSongSyntax(t *testing.T) {
	t.Parallel()
	h := start(t)

	assert.Equal(t, "@Viewer !song add|rm|list", h.ask(viewer, "!song shuffle"))
	assert.Equal(t, "@Mod !song add <command> <url> <cooldown..>", h.ask(moderator, "!song add !walk not-a-url 20m"))
	assert.Equal(t, "@Mod !song rm <command>", h.ask(moderator, "!song rm !walk extra"))
}

func TestArgumentSyntaxBeatsSongLookup(t *testing.T) {
	t.Parallel()
	h := start(t)

	assert.Equal(t, "@Viewer !whois <user>", h.ask(viewer, "!whois"))
	assert.Equal(t, "@Viewer !block <word>", h.ask(viewer, "!block"))
}

func TestCommandList(t *testing.T) {
	t.Parallel()
	h := start(t)

	assert.Equal(t,
		"Commands: !song, !chatters, !quote, !whois, !count, !block, !unblock, !commands",
		h.ask(viewer, "!commands"))
}

func TestChattersQuoteAndWhois(t *testing.T) {
	t.Parallel()
	h := start(t)

	h.silent(amy, "hello there")
	assert.Equal(t, "2 chatters: Amy, Viewer", h.ask(viewer, "!chatters"))

	h.clock.Advance(5 * time.Minute)
	assert.Equal(t, "1 chatters: Viewer", h.ask(viewer, "!chatters 1m"))
	assert.Equal(t, "2 chatters: Amy, Viewer", h.ask(viewer, "!chatters bogus"))

	assert.Equal(t, "@Amy is amy (id 7)", h.ask(viewer, "!whois @AMY"))
	assert.Equal(t, "I don't know @ghost", h.ask(viewer, "!whois ghost"))

	quoted := h.ask(amy, "!quote")
	assert.Contains(t, []string{`"!chatters bogus"`, `"!quote"`, `"!whois ghost"`}, quoted)
}

func TestCount(t *testing.T) {
	t.Parallel()
	h := start(t)

	assert.Equal(t, "Counted 1 times", h.ask(viewer, "!count"))
	assert.Equal(t, "Counted 2 times", h.ask(viewer, "!count"))
}

func TestBlocklistFilter(t *testing.T) {
	t.Parallel()
	h := start(t)

	assert.Equal(t, "Blocked spam", h.ask(moderator, "!block SPAM"))

	id := h.say(viewer, "buy spam now")
	out := h.next()
	assert.Equal(t, ".delete "+id, out.Text)
	assert.True(t, out.Command)

	h.silent(moderator, "spam is fine for mods")

	assert.Equal(t, "Unblocked spam", h.ask(moderator, "!unblock spam"))
	h.silent(viewer, "buy spam now")
}

func TestSongListResponse(t *testing.T) {
	t.Parallel()

	assert.Equal(t, response.New("No songs yet"), SongList{}.Response())
	l := SongList{Songs: map[string]Song{"!b": {}, "!a": {}}}
	assert.Equal(t, []string{"!a", "!b"}, l.Names())
	assert.Equal(t, response.New("Songs: !a, !b"), response.Of(l))
}

func TestBlocklistBlocks(t *testing.T) {
	t.Parallel()

	b := Blocklist{Words: []string{"spam"}}
	assert.True(t, b.Blocks("Buy SPAM now"))
	assert.False(t, b.Blocks("spammer"))
	assert.False(t, Blocklist{}.Blocks("spam"))
}

func TestCooldownTracker(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	c := newCooldownTracker(clock)
	assert.True(t, c.Allow("!walk", time.Minute))
	assert.False(t, c.Allow("!walk", time.Minute))
	assert.True(t, c.Allow("!run", time.Minute))
	clock.Advance(time.Minute)
	assert.True(t, c.Allow("!walk", time.Minute))
	assert.True(t, c.Allow("!free", 0))
	assert.True(t, c.Allow("!free", 0))
}
