// Package slack implements the gateway Adapter for Slack using Socket Mode.
package slack

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/hupe1980/agentteam/gateway"
	"github.com/hupe1980/agentteam/logging"
)

const (
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
	// baseBackoff is the initial backoff duration for reconnection.
	baseBackoff = 2 * time.Second
	// maxBackoff caps the exponential backoff for reconnection.
	maxBackoff = 2 * time.Minute
	// maxReconnectAttempts limits reconnection retries before giving up.
	maxReconnectAttempts = 10
	// platform is reported on every inbound message.
	platform = "slack"
)

// mentionPattern matches user mentions such as <@U123> or <@U123|name>.
var mentionPattern = regexp.MustCompile(`<@([^>|]+)(\|[^>]*)?>`)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	AuthTest() (*slackapi.AuthTestResponse, error)
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
	GetUserInfo(userID string) (*slackapi.User, error)
}

// socketClient abstracts the Socket Mode client methods we use.
type socketClient interface {
	Run() error
	EventsChan() chan socketmode.Event
	Ack(req socketmode.Request, payload ...interface{})
}

// realSocketClient wraps *socketmode.Client to implement socketClient.
type realSocketClient struct {
	client *socketmode.Client
}

func (r *realSocketClient) Run() error                        { return r.client.Run() }
func (r *realSocketClient) EventsChan() chan socketmode.Event { return r.client.Events }
func (r *realSocketClient) Ack(req socketmode.Request, payload ...interface{}) {
	r.client.Ack(req, payload...)
}

// Adapter implements gateway.Adapter for Slack Socket Mode.
type Adapter struct {
	client       slackClient
	socket       socketClient
	logger       logging.Logger
	botUserID    string
	appToken     string
	botToken     string
	mentionsOnly bool
	mu           sync.Mutex
	sendMu       sync.RWMutex // held for reading while delivering to inbound
	connected    bool
	closed       bool
	inbound      chan gateway.InboundMessage
	cancelFunc   context.CancelFunc
	names        map[string]string // user id -> display name
	baseBackoff  time.Duration     // reconnection base backoff (default: baseBackoff const)
	maxBackoff   time.Duration     // reconnection max backoff (default: maxBackoff const)
	maxReconnect int               // max reconnection attempts (default: maxReconnectAttempts)
}

// AdapterOpts holds parameters for creating a Slack Adapter.
type AdapterOpts struct {
	AppToken string // xapp-... Slack app-level token for Socket Mode
	BotToken string // xoxb-... Slack bot token
	// MentionsOnly listens to app_mention events instead of plain channel
	// messages, for workspaces where the bot should only react when addressed.
	MentionsOnly bool
	Logger       logging.Logger
	// For testing: inject mock clients instead of real Slack API.
	Client slackClient
	Socket socketClient
}

// New creates a Slack Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	if opts.Socket == nil && opts.AppToken == "" {
		return nil, fmt.Errorf("slack: app token is required for socket mode")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	a := &Adapter{
		appToken:     opts.AppToken,
		botToken:     opts.BotToken,
		mentionsOnly: opts.MentionsOnly,
		logger:       logging.WithComponent(logger, "slack"),
		inbound:      make(chan gateway.InboundMessage, 100),
		names:        make(map[string]string),
		baseBackoff:  baseBackoff,
		maxBackoff:   maxBackoff,
		maxReconnect: maxReconnectAttempts,
	}

	if opts.Client != nil {
		a.client = opts.Client
	}
	if opts.Socket != nil {
		a.socket = opts.Socket
	}

	return a, nil
}

// Connect establishes the Socket Mode WebSocket connection.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("slack: adapter already closed")
	}
	if a.connected {
		return nil
	}

	// Create real clients if not injected (production path).
	if a.client == nil {
		api := slackapi.New(a.botToken, slackapi.OptionAppLevelToken(a.appToken))
		a.client = api
		a.socket = &realSocketClient{client: socketmode.New(api)}
	}

	// Get bot user ID for self-message filtering.
	auth, err := a.client.AuthTest()
	if err != nil {
		return fmt.Errorf("slack: auth test: %w", err)
	}
	a.botUserID = auth.UserID

	a.connected = true
	a.logger.Info("authenticated", "bot_user_id", auth.UserID, "team", auth.Team)
	return nil
}

// Listen returns a channel of inbound messages. Starts the Socket Mode
// event pump in a background goroutine. Must be called after Connect.
func (a *Adapter) Listen(ctx context.Context) (<-chan gateway.InboundMessage, error) {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return nil, fmt.Errorf("slack: not connected")
	}
	listenCtx, cancel := context.WithCancel(ctx)
	a.cancelFunc = cancel
	a.mu.Unlock()

	go a.runWithReconnect(listenCtx)
	go a.pumpEvents(listenCtx)

	return a.inbound, nil
}

// Send delivers a message to Slack, replying in the thread when one is set.
func (a *Adapter) Send(ctx context.Context, msg gateway.OutboundMessage) error {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return fmt.Errorf("slack: not connected")
	}
	a.mu.Unlock()

	if msg.ChannelID == "" {
		return fmt.Errorf("slack: no channel specified")
	}

	options := buildMessageOptions(msg)

	err := retryOnRateLimit(ctx, func() error {
		_, _, postErr := a.client.PostMessage(msg.ChannelID, options...)
		return postErr
	})
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// Close shuts down the adapter and closes the inbound channel.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.connected = false
	cancel := a.cancelFunc
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	a.sendMu.Lock()
	close(a.inbound)
	a.sendMu.Unlock()
	return nil
}

// BotUserID returns the bot's Slack user ID (available after Connect).
func (a *Adapter) BotUserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.botUserID
}

// runWithReconnect runs the Socket Mode client and retries with exponential
// backoff when Run() returns an error.
func (a *Adapter) runWithReconnect(ctx context.Context) {
	for attempt := 0; attempt < a.maxReconnect; attempt++ {
		err := a.socket.Run()
		if err == nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		wait := backoff(attempt, a.baseBackoff, a.maxBackoff)

		a.logger.Warn("socket mode disconnected", "attempt", attempt+1, "max_attempts", a.maxReconnect, "retry_in", wait, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
	a.logger.Error("socket mode reconnection attempts exhausted", "attempts", a.maxReconnect)
}

// pumpEvents reads Socket Mode events and converts them to InboundMessages.
func (a *Adapter) pumpEvents(ctx context.Context) {
	events := a.socket.EventsChan()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			a.handleSocketEvent(ctx, evt)
		}
	}
}

// handleSocketEvent processes a single Socket Mode event.
func (a *Adapter) handleSocketEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeEventsAPI:
		eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		if evt.Request != nil {
			a.socket.Ack(*evt.Request)
		}
		a.handleEventsAPI(ctx, eventsAPIEvent)

	case socketmode.EventTypeConnecting:
		a.logger.Debug("connecting to socket mode")

	case socketmode.EventTypeConnected:
		a.logger.Info("connected to socket mode")

	case socketmode.EventTypeConnectionError:
		a.logger.Warn("connection error", "data", evt.Data)

	case socketmode.EventTypeDisconnect:
		a.logger.Info("server requested disconnect, will reconnect")
	}
}

// handleEventsAPI processes Events API callbacks.
func (a *Adapter) handleEventsAPI(ctx context.Context, event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}

	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		if a.mentionsOnly {
			return
		}
		// Filter bot messages and message subtypes (edits, deletes, etc.).
		if ev.BotID != "" || ev.SubType != "" {
			return
		}
		a.deliver(ctx, ev.User, ev.Channel, ev.ThreadTimeStamp, ev.Text, ev.TimeStamp)
	case *slackevents.AppMentionEvent:
		if !a.mentionsOnly {
			return
		}
		a.deliver(ctx, ev.User, ev.Channel, ev.ThreadTimeStamp, ev.Text, ev.TimeStamp)
	}
}

func (a *Adapter) deliver(ctx context.Context, user, channel, thread, text, ts string) {
	a.sendMu.RLock()
	defer a.sendMu.RUnlock()

	a.mu.Lock()
	botID := a.botUserID
	closed := a.closed
	a.mu.Unlock()

	if closed || user == "" || user == botID {
		return
	}

	msg := gateway.InboundMessage{
		Platform:  platform,
		ChannelID: channel,
		ThreadID:  thread,
		UserID:    user,
		UserName:  a.resolveUserName(user),
		Text:      stripMention(text, botID),
		Timestamp: parseSlackTimestamp(ts),
	}

	select {
	case a.inbound <- msg:
	case <-ctx.Done():
	}
}

// resolveUserName looks up a user's display name once and caches it. Falls
// back to the user ID.
func (a *Adapter) resolveUserName(userID string) string {
	a.mu.Lock()
	name, ok := a.names[userID]
	a.mu.Unlock()
	if ok {
		return name
	}

	name = userID
	if user, err := a.client.GetUserInfo(userID); err == nil {
		switch {
		case user.Profile.DisplayName != "":
			name = user.Profile.DisplayName
		case user.RealName != "":
			name = user.RealName
		}
	}

	a.mu.Lock()
	a.names[userID] = name
	a.mu.Unlock()

	return name
}

// stripMention removes mentions of the bot so commands can be addressed to
// it ("@bot discuss caching").
func stripMention(text, botID string) string {
	if botID == "" {
		return strings.TrimSpace(text)
	}
	text = mentionPattern.ReplaceAllStringFunc(text, func(m string) string {
		if sub := mentionPattern.FindStringSubmatch(m); len(sub) > 1 && sub[1] == botID {
			return ""
		}
		return m
	})
	return strings.TrimSpace(text)
}

// buildMessageOptions translates an OutboundMessage into Slack MsgOptions.
func buildMessageOptions(msg gateway.OutboundMessage) []slackapi.MsgOption {
	options := []slackapi.MsgOption{slackapi.MsgOptionText(msg.Text, false)}
	if msg.ThreadID != "" {
		options = append(options, slackapi.MsgOptionTS(msg.ThreadID))
	}
	return options
}

func backoff(attempt int, base, limit time.Duration) time.Duration {
	wait := time.Duration(math.Pow(2, float64(attempt))) * base
	if wait > limit {
		wait = limit
	}
	return wait
}

// retryOnRateLimit calls fn and retries with backoff on Slack rate limit errors.
// It respects context cancellation and the RetryAfter duration from Slack.
func retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) {
			return err
		}

		if attempt == maxRetries {
			return err
		}

		wait := rle.RetryAfter
		if wait <= 0 {
			wait = backoff(attempt, time.Second, maxBackoff)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil
}

// parseSlackTimestamp converts a Slack timestamp (e.g., "1234567890.123456")
// to a time.Time.
func parseSlackTimestamp(ts string) time.Time {
	sec, frac, _ := strings.Cut(ts, ".")
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}
	}
	var usec int64
	if frac != "" {
		if v, err := strconv.ParseInt(frac, 10, 64); err == nil {
			usec = v
		}
	}
	return time.Unix(s, usec*int64(time.Microsecond))
}
