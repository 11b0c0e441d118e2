// Command sse_load opens many concurrent connections against the order book
// SSE stream, decodes every book event and reports throughput together with
// top-of-book quality: average spread, crossed-book events and level depth.
// Useful for sizing how many live book viewers one instance can serve and
// for spotting malformed book payloads under load.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okulov/paperbook/internal/domain"
)

// bookStats aggregates decoded order book events across all connections.
type bookStats struct {
	mu          sync.Mutex
	events      int64
	decodeErrs  int64
	emptyBooks  int64
	crossed     int64
	spreadSum   decimal.Decimal
	spreadCount int64
	levelSum    int64
}

func (s *bookStats) observe(book domain.OrderBook) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events++
	s.levelSum += int64(len(book.Bids) + len(book.Asks))

	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		s.emptyBooks++
		return
	}

	bestBid := book.Bids[0].Price
	bestAsk := book.Asks[0].Price
	if bestAsk.LessThan(bestBid) {
		s.crossed++
		return
	}
	s.spreadSum = s.spreadSum.Add(bestAsk.Sub(bestBid))
	s.spreadCount++
}

func (s *bookStats) decodeError() {
	s.mu.Lock()
	s.decodeErrs++
	s.mu.Unlock()
}

func (s *bookStats) snapshot() (events, decodeErrs, emptyBooks, crossed int64, avgSpread decimal.Decimal, avgLevels float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, decodeErrs, emptyBooks, crossed = s.events, s.decodeErrs, s.emptyBooks, s.crossed
	if s.spreadCount > 0 {
		avgSpread = s.spreadSum.Div(decimal.NewFromInt(s.spreadCount))
	}
	if s.events > 0 {
		avgLevels = float64(s.levelSum) / float64(s.events)
	}
	return
}

func main() {
	var (
		targetURL    string
		connections  int
		testDuration time.Duration
		rampUp       time.Duration
	)

	flag.StringVar(&targetURL, "url", "http://localhost:8787/api/orderbook/stream?exchange=binance&symbol=BTC/USDT", "SSE order book stream URL")
	flag.IntVar(&connections, "conns", 1000, "number of concurrent connections to open")
	flag.DurationVar(&testDuration, "dur", 60*time.Second, "test duration (0 for until interrupted)")
	flag.DurationVar(&rampUp, "ramp", 0, "ramp-up duration (spread connection starts across this window)")
	flag.Parse()

	if connections <= 0 {
		log.Fatalf("invalid conns: %d", connections)
	}

	if rampUp == 0 && connections > 100 {
		// default ramp-up: 1 second per 500 connections
		rampUp = time.Duration(connections/500) * time.Second
		if rampUp < 1*time.Second {
			rampUp = 1 * time.Second
		}
		log.Printf("no ramp-up specified for high connection count, using default: %s", rampUp)
	}

	log.Printf("starting book stream load: url=%s conns=%d duration=%s ramp=%s", targetURL, connections, testDuration, rampUp)

	transport := &http.Transport{
		MaxConnsPerHost:     connections + 100,
		MaxIdleConns:        connections + 100,
		MaxIdleConnsPerHost: connections + 100,
		DisableCompression:  true,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   0, // streaming
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("caught signal: %s, shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if testDuration > 0 {
		go func() {
			timer := time.NewTimer(testDuration)
			defer timer.Stop()
			select {
			case <-timer.C:
				log.Printf("duration reached, stopping...")
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	var (
		connected   int64
		connectErrs int64
		streamErrs  int64
	)
	stats := &bookStats{}

	var wg sync.WaitGroup
	start := time.Now()

	var interval time.Duration
	if rampUp > 0 {
		interval = rampUp / time.Duration(connections)
	}

	for i := 0; i < connections; i++ {
		if ctx.Err() != nil {
			break
		}
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(interval):
			}
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
			if err != nil {
				atomic.AddInt64(&connectErrs, 1)
				return
			}
			req.Header.Set("Accept", "text/event-stream")

			resp, err := client.Do(req)
			if err != nil {
				atomic.AddInt64(&connectErrs, 1)
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				atomic.AddInt64(&connectErrs, 1)
				return
			}

			atomic.AddInt64(&connected, 1)
			reader := bufio.NewReader(resp.Body)

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				line, err := reader.ReadString('\n')
				if err != nil {
					if ctx.Err() == nil {
						atomic.AddInt64(&streamErrs, 1)
					}
					return
				}

				// heartbeats (": ...") and frame separators carry no book
				payload, ok := strings.CutPrefix(strings.TrimRight(line, "\r\n"), "data: ")
				if !ok {
					continue
				}

				var book domain.OrderBook
				if err := json.Unmarshal([]byte(payload), &book); err != nil {
					stats.decodeError()
					continue
				}
				stats.observe(book)
			}
		}()
	}

	ticker := time.NewTicker(5 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				events, decodeErrs, emptyBooks, crossed, avgSpread, avgLevels := stats.snapshot()
				log.Printf("status: connected=%d connect_errs=%d stream_errs=%d events=%d decode_errs=%d empty=%d crossed=%d avg_spread=%s avg_levels=%.1f elapsed=%s",
					atomic.LoadInt64(&connected),
					atomic.LoadInt64(&connectErrs),
					atomic.LoadInt64(&streamErrs),
					events, decodeErrs, emptyBooks, crossed,
					avgSpread.StringFixed(4), avgLevels,
					time.Since(start).Truncate(time.Second),
				)
			}
		}
	}()

	wg.Wait()
	cancel()

	elapsed := time.Since(start)
	if elapsed == 0 {
		elapsed = time.Millisecond
	}
	events, decodeErrs, emptyBooks, crossed, avgSpread, avgLevels := stats.snapshot()
	perSec := float64(events) / elapsed.Seconds()

	fmt.Printf("done: connected=%d connect_errs=%d stream_errs=%d events=%d decode_errs=%d empty=%d crossed=%d avg_spread=%s avg_levels=%.1f elapsed=%s events/s=%.2f\n",
		atomic.LoadInt64(&connected),
		atomic.LoadInt64(&connectErrs),
		atomic.LoadInt64(&streamErrs),
		events, decodeErrs, emptyBooks, crossed,
		avgSpread.StringFixed(4), avgLevels,
		elapsed.Truncate(time.Millisecond),
		perSec,
	)
}
