package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/d60-Lab/travelfeed/config"
	"github.com/d60-Lab/travelfeed/internal/feed"
	"github.com/d60-Lab/travelfeed/internal/model"
	"github.com/d60-Lab/travelfeed/internal/repository"
	"github.com/d60-Lab/travelfeed/internal/service"
	"github.com/d60-Lab/travelfeed/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range vs {
		sum += d
	}
	return sum / time.Duration(len(vs))
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			return v
		}
	}
	return def
}

// 需要先运行 cmd/seeder
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	defer database.Close(db)

	viewers := envInt("VIEWERS", 50)
	pages := envInt("PAGES", 5)
	pageSize := envInt("PAGE_SIZE", cfg.Feed.DefaultPageSize)

	var ids []string
	if err := db.Model(&model.User{}).Limit(viewers).Pluck("id", &ids).Error; err != nil {
		panic(err)
	}
	if len(ids) == 0 {
		fmt.Println("no users, run cmd/seeder first")
		return
	}

	st := repository.NewStore(db)
	sessions := service.NewSessionManager(st, feed.NewAudienceResolver(st, cfg.Feed.PromotedTTL), service.SessionOptions{
		IdleTTL:       cfg.Session.IdleTTL,
		StoreTimeout:  cfg.Feed.StoreTimeout,
		BlockCacheTTL: cfg.BlockCache.TTL,
	})
	ctx := context.Background()
	rnd := rand.New(rand.NewSource(1))

	for _, aud := range []feed.Audience{feed.AudienceFollowing, feed.AudiencePromoted} {
		var first, more []time.Duration
		items := 0
		for _, uid := range ids {
			sess := must(sessions.Get(uid))
			t := time.Now()
			view, err := sess.LoadFeed(ctx, aud, pageSize)
			if err != nil {
				panic(err)
			}
			first = append(first, time.Since(t))
			items += len(view.Items)

			for p := 1; p < pages && view.HasMore; p++ {
				t = time.Now()
				view, err = sess.LoadMore(ctx, aud)
				if err != nil {
					panic(err)
				}
				more = append(more, time.Since(t))
				items += len(view.Items)
			}
			if n := len(view.Items); n > 0 {
				_, _ = sess.Vote(ctx, view.Items[rnd.Intn(n)].ID, "up")
			}
		}
		fmt.Printf("audience=%s viewers=%d page_size=%d items=%d\n", aud, len(ids), pageSize, items)
		fmt.Printf("  first page: avg=%v p95=%v p99=%v\n", avg(first), pct(first, 0.95), pct(first, 0.99))
		fmt.Printf("  load more:  samples=%d avg=%v p95=%v p99=%v\n", len(more), avg(more), pct(more, 0.95), pct(more, 0.99))
	}
}
