package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chatsync/internal/logger"
	"github.com/chatsync/internal/model"
)

// Generator is a stand-in inbound event source for environments without a
// live push feed: on a fixed interval, with low probability, it synthesizes
// a notification of a random gated type and feeds it through the same Add
// entry point as transport-delivered events, so the gating path is exercised
// identically for both origins.
type Generator struct {
	engine   *NotificationEngine
	interval time.Duration
	chance   float64
	rng      *rand.Rand
}

func NewGenerator(engine *NotificationEngine, interval time.Duration, chance float64) *Generator {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if chance <= 0 || chance > 1 {
		chance = 0.3
	}
	return &Generator{
		engine:   engine,
		interval: interval,
		chance:   chance,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run ticks until ctx is cancelled.
func (g *Generator) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if g.rng.Float64() >= g.chance {
				continue
			}
			created, err := g.engine.Add(ctx, g.Synthesize())
			if err != nil {
				logger.Errorf("generator add: %v", err)
				continue
			}
			if !created {
				logger.Infof("generator: candidate gated off")
			}
		}
	}
}

var generatorTemplates = []struct {
	typ     model.NotificationType
	title   string
	message string
}{
	{model.NotificationTypeLike, "New like", "Someone liked your post"},
	{model.NotificationTypeComment, "New comment", "Someone commented on your post"},
	{model.NotificationTypeOrder, "Order update", "Your order status changed"},
}

// Synthesize builds a candidate of a random gated type.
func (g *Generator) Synthesize() model.Notification {
	t := generatorTemplates[g.rng.Intn(len(generatorTemplates))]
	return model.Notification{
		Type:      t.typ,
		Title:     t.title,
		Message:   fmt.Sprintf("%s #%04d", t.message, g.rng.Intn(10000)),
		Timestamp: time.Now().UTC(),
	}
}
