// boardgen fills a database with a synthetic board: clustered cards,
// a sprinkling of pins, code, and links, plus connectors inside each
// cluster. Useful for exercising streaming and culling at scale.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/milk9111/pinboard/ecs/component"
	"github.com/milk9111/pinboard/geom"
	"github.com/milk9111/pinboard/store"
)

const batchSize = 500

var palette = []uint32{
	0xfff4b8ff, // straw
	0xffd9c4ff, // peach
	0xd4e8d0ff, // sage
	0xdbe7f4ff, // sky
	0xe8d7edff, // lilac
	0xf4dadaff, // rose
}

var words = []string{
	"harbor", "lantern", "meadow", "quarry", "drift", "ember", "spruce",
	"tidal", "hollow", "garnet", "plume", "cinder", "vale", "marrow",
	"sable", "reef", "crag", "fjord", "heath", "bramble",
}

func main() {
	dbPath := flag.String("db", "pinboard.db", "database path")
	count := flag.Int("count", 5000, "cards to generate")
	clusters := flag.Int("clusters", 12, "cluster centers the cards gather around")
	span := flag.Float64("span", 40000, "half-extent of the square region holding the clusters")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	if *count <= 0 || *clusters <= 0 || *span <= 0 {
		log.Fatal().Msg("count, clusters, and span must be positive")
	}

	db, err := store.Open(*dbPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer db.Close()

	rng := rand.New(rand.NewSource(*seed))
	start := time.Now()
	cards, edges := generate(rng, *count, *clusters, *span)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for i := 0; i < len(cards); i += batchSize {
		end := i + batchSize
		if end > len(cards) {
			end = len(cards)
		}
		if err := db.UpsertCards(ctx, cards[i:end]); err != nil {
			log.Fatal().Err(err).Int("batch", i/batchSize).Msg("write cards")
		}
	}
	for _, edge := range edges {
		if err := db.UpsertConnector(ctx, edge); err != nil {
			log.Fatal().Err(err).Msg("write connector")
		}
	}

	log.Info().
		Int("cards", len(cards)).
		Int("connectors", len(edges)).
		Str("db", *dbPath).
		Dur("took", time.Since(start)).
		Msg("generated board")
}

func generate(rng *rand.Rand, count, clusters int, span float64) ([]store.Card, []store.Connector) {
	centers := make([]geom.Vec, clusters)
	for i := range centers {
		centers[i] = geom.Vec{
			X: (rng.Float64()*2 - 1) * span,
			Y: (rng.Float64()*2 - 1) * span,
		}
	}

	cards := make([]store.Card, 0, count)
	perCluster := make([][]uuid.UUID, clusters)
	for i := 0; i < count; i++ {
		ci := rng.Intn(clusters)
		center := centers[ci]
		// Gaussian scatter keeps clusters dense in the middle with
		// stragglers reaching toward their neighbors.
		spread := span / float64(clusters)
		pos := geom.Vec{
			X: center.X + rng.NormFloat64()*spread,
			Y: center.Y + rng.NormFloat64()*spread,
		}
		w := 160 + rng.Float64()*180
		h := 100 + rng.Float64()*160

		c := store.Card{
			ID:       uuid.New(),
			Title:    fmt.Sprintf("%s %s", pick(rng), pick(rng)),
			Color:    palette[rng.Intn(len(palette))],
			Revision: 1,
			Bounds:   geom.NewRect(pos.X, pos.Y, pos.X+w, pos.Y+h),
			Z:        i + 1,
			Priority: rng.Float64() * 10,
		}
		switch roll := rng.Float64(); {
		case roll < 0.08:
			c.Kind = component.CardCode
			a, b := rng.Intn(90)+10, rng.Intn(90)+10
			c.Body = fmt.Sprintf("a := %d\nb := %d\nout := a * b", a, b)
		case roll < 0.16:
			c.Kind = component.CardLink
			c.Body = fmt.Sprintf("https://example.com/%s/%s", pick(rng), pick(rng))
		default:
			c.Kind = component.CardNote
			c.Body = sentence(rng)
		}
		if rng.Float64() < 0.04 {
			c.Pinned = true
		}

		cards = append(cards, c)
		perCluster[ci] = append(perCluster[ci], c.ID)
	}

	var edges []store.Connector
	for _, ids := range perCluster {
		for j := 1; j < len(ids); j++ {
			if rng.Float64() < 0.25 {
				edges = append(edges, store.Connector{ID: uuid.New(), From: ids[j-1], To: ids[j]})
			}
		}
	}
	return cards, edges
}

func pick(rng *rand.Rand) string {
	return words[rng.Intn(len(words))]
}

func sentence(rng *rand.Rand) string {
	n := 6 + rng.Intn(14)
	out := make([]byte, 0, n*8)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, pick(rng)...)
	}
	return string(out)
}
