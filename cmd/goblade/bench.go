package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/goBlade/mock"
	sessionstore "github.com/MrEthical07/goBlade/session"
)

type benchCmd struct {
	sessions    int
	concurrency int
	ops         int
	prefix      string

	cobra.Command
}

func init() {
	rootCmd.AddCommand(benchCommand())
}

// benchCommand measures the session store the mock server keeps in Redis:
// lookups as done by the strict guard, then refresh rotations.
func benchCommand() *cobra.Command {
	cmd := &benchCmd{
		Command: cobra.Command{
			Use:   "bench",
			Short: "load test the mock's Redis session store",
			Args:  cobra.NoArgs,
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&cmd.sessions, "sessions", 10000, "number of sessions to seed")
	flags.IntVar(&cmd.concurrency, "concurrency", 64, "number of concurrent workers")
	flags.IntVar(&cmd.ops, "ops", 50000, "operations per phase")
	flags.StringVar(&cmd.prefix, "prefix", "goblade-bench:", "key prefix")
	cmd.RunE = cmd.exec
	return &cmd.Command
}

type benchSession struct {
	mu        sync.Mutex
	id        string
	refreshID string
}

func (cmd *benchCmd) exec(c *cobra.Command, _ []string) error {
	if cmd.sessions <= 0 || cmd.concurrency <= 0 || cmd.ops <= 0 {
		return errors.New("sessions, concurrency and ops must be > 0")
	}
	ctx := c.Context()
	out := c.OutOrStdout()

	var rdb redis.UniversalClient
	if cfg.RedisAddr != "" {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.RedisAddr}})
		fmt.Fprintf(out, "using redis at %s\n", cfg.RedisAddr)
	} else {
		mr, client, err := mock.EmbeddedRedis()
		if err != nil {
			return err
		}
		defer mr.Close()
		rdb = client
		fmt.Fprintf(out, "using embedded redis at %s\n", mr.Addr())
	}
	defer rdb.Close()

	store := sessionstore.NewStore(rdb, cmd.prefix)
	states := make([]benchSession, cmd.sessions)

	fmt.Fprintf(out, "seeding %d sessions...\n", cmd.sessions)
	start := time.Now()
	for i := range states {
		states[i].id = uuid.NewString()
		states[i].refreshID = uuid.NewString()
		now := time.Now()
		err := store.Save(ctx, &sessionstore.Session{
			SessionID: states[i].id,
			UserID:    strconv.Itoa(i%100 + 1),
			Username:  "bench",
			Roles:     []string{"user"},
			TenantID:  "000000",
			RefreshID: states[i].refreshID,
			CreatedAt: now.Unix(),
			ExpiresAt: now.Add(time.Hour).Unix(),
		}, time.Hour)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	fmt.Fprintf(out, "seeded in %s\n", time.Since(start).Round(time.Millisecond))

	lookup := runPhase(cmd.ops, cmd.concurrency, func(int) error {
		s := &states[rand.IntN(len(states))]
		_, err := store.Get(ctx, s.id)
		return err
	})
	rotate := runPhase(cmd.ops, cmd.concurrency, func(int) error {
		s := &states[rand.IntN(len(states))]
		s.mu.Lock()
		defer s.mu.Unlock()
		next := uuid.NewString()
		if _, err := store.RotateRefresh(ctx, s.id, s.refreshID, next, time.Hour); err != nil {
			return err
		}
		s.refreshID = next
		return nil
	})

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "lookup", lookup)
	printStats(out, "rotate", rotate)
	return nil
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func runPhase(ops, concurrency int, op func(i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    atomic.Int64
		failures  atomic.Int64
		mu        sync.Mutex
		latencies = make([]time.Duration, 0, ops)
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(cursor.Add(1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i)
				d := time.Since(t0)
				if err != nil {
					failures.Add(1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures.Load())
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	slices.Sort(samples)
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

// percentile expects sorted samples.
func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(w io.Writer, name string, s phaseStats) {
	fmt.Fprintf(w, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
