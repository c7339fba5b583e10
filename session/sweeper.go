package session

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hupe1980/agentteam/logging"
)

// DefaultSweepSchedule checks for idle sessions once a minute.
const DefaultSweepSchedule = "@every 1m"

// cronParser accepts 5-field expressions and descriptors such as "@every 5m".
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Expirer removes idle sessions.
type Expirer interface {
	ExpireIdle(ttl time.Duration) []string
}

// SweeperOptions configures a Sweeper.
type SweeperOptions struct {
	Schedule string
	Logger   logging.Logger
}

// Sweeper periodically expires idle sessions.
type Sweeper struct {
	cron    *cron.Cron
	target  Expirer
	ttl     time.Duration
	logger  logging.Logger
	entryID cron.EntryID
}

// NewSweeper creates a sweeper that expires sessions idle for longer than ttl.
func NewSweeper(target Expirer, ttl time.Duration, optFns ...func(o *SweeperOptions)) (*Sweeper, error) {
	opts := SweeperOptions{
		Schedule: DefaultSweepSchedule,
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if ttl <= 0 {
		return nil, fmt.Errorf("session: sweeper ttl must be positive, got %s", ttl)
	}

	sched, err := cronParser.Parse(opts.Schedule)
	if err != nil {
		return nil, fmt.Errorf("session: invalid sweep schedule %q: %w", opts.Schedule, err)
	}

	s := &Sweeper{
		cron:   cron.New(cron.WithParser(cronParser)),
		target: target,
		ttl:    ttl,
		logger: logging.WithComponent(opts.Logger, "sweeper"),
	}

	s.entryID = s.cron.Schedule(sched, cron.FuncJob(s.Sweep))

	return s, nil
}

// Start runs the schedule in the background.
func (s *Sweeper) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() { <-s.cron.Stop().Done() }

// Next returns the time of the next scheduled sweep, or the zero time when
// the sweeper is not running.
func (s *Sweeper) Next() time.Time { return s.cron.Entry(s.entryID).Next }

// Sweep expires idle sessions once.
func (s *Sweeper) Sweep() {
	expired := s.target.ExpireIdle(s.ttl)
	if len(expired) > 0 {
		s.logger.Info("idle sessions expired", "count", len(expired), "ttl", s.ttl)
	}
}
