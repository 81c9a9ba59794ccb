package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/marketplace-inbox/internal/config"
	"github.com/shinyyama/marketplace-inbox/internal/db"
	"github.com/shinyyama/marketplace-inbox/internal/model"
	"github.com/shinyyama/marketplace-inbox/internal/obs"
	"github.com/shinyyama/marketplace-inbox/internal/repository"
	"gorm.io/gorm"
)

type seedListing struct {
	SellerUID string
	Title     string
	Price     uint
}

type seedMessage struct {
	From, To string
	Body     string
	Listing  int // index into listings, -1 for none
	Read     bool
	Deleted  bool
}

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)
	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	canSeed, err := shouldSeed(ctx, gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		logger.Info("messages already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	demo := os.Getenv("SEED_DEMO_UID")
	if demo == "" {
		demo = "demo-user"
	}
	listings := buildListings(demo)
	messages := buildConversation(demo)

	err = gdb.Transaction(func(tx *gorm.DB) error {
		listingRepo := repository.NewListingRepository(tx)
		messageRepo := repository.NewMessageRepository(tx)

		ids := make([]uint64, len(listings))
		for i, l := range listings {
			img := fmt.Sprintf("https://picsum.photos/seed/listing-%d/600/600", i+1)
			row := &model.Listing{SellerUID: l.SellerUID, Title: l.Title, Price: l.Price, ImageURL: &img}
			if err := listingRepo.Create(ctx, row); err != nil {
				return fmt.Errorf("insert listing %q: %w", l.Title, err)
			}
			ids[i] = row.ID
		}

		start := time.Now().UTC().Add(-time.Duration(len(messages)) * time.Minute).Truncate(time.Second)
		for i, m := range messages {
			row := &model.Message{
				SenderUID:         m.From,
				RecipientUID:      m.To,
				Body:              m.Body,
				IsReadByRecipient: m.Read,
				CreatedAt:         start.Add(time.Duration(i) * time.Minute),
			}
			if m.Listing >= 0 {
				id := ids[m.Listing]
				row.ListingID = &id
			}
			if err := messageRepo.Create(ctx, row); err != nil {
				return fmt.Errorf("insert message %d: %w", i, err)
			}
			if m.Deleted {
				if err := messageRepo.SoftDelete(ctx, row.ID); err != nil {
					return fmt.Errorf("delete message %d: %w", i, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("seeded demo inbox", "uid", demo, "listings", len(listings), "messages", len(messages))
	return nil
}

func buildListings(demo string) []seedListing {
	return []seedListing{
		{SellerUID: demo, Title: "Road bike, 54cm frame", Price: 42000},
		{SellerUID: "seller-aoi", Title: "Mirrorless prime lens 35mm", Price: 28000},
		{SellerUID: "seller-ren", Title: "Solid wood side table", Price: 7800},
		{SellerUID: demo, Title: "Wireless mechanical keyboard", Price: 9800},
	}
}

// buildConversation covers both directions, read and unread, a partner whose only message is
// deleted, and messages without a listing.
func buildConversation(demo string) []seedMessage {
	return []seedMessage{
		{From: "buyer-kai", To: demo, Body: "Is the bike still available?", Listing: 0, Read: true},
		{From: demo, To: "buyer-kai", Body: "Yes, it is.", Listing: 0, Read: true},
		{From: demo, To: "seller-aoi", Body: "Would you take 25000 for the lens?", Listing: 1},
		{From: "seller-aoi", To: demo, Body: "26000 and it's yours.", Listing: 1},
		{From: "seller-aoi", To: demo, Body: "I can ship tomorrow.", Listing: 1},
		{From: "buyer-kai", To: demo, Body: "Can you hold it until Friday?", Listing: 0},
		{From: "buyer-mio", To: demo, Body: "Does the keyboard have Japanese layout?", Listing: 3},
		{From: "spam-bot", To: demo, Body: "Win a prize!", Listing: -1, Deleted: true},
		{From: demo, To: "seller-ren", Body: "Hi, what are the table dimensions?", Listing: 2},
		{From: "buyer-mio", To: demo, Body: "Also, any dead switches?", Listing: 3},
	}
}

func shouldSeed(ctx context.Context, gdb *gorm.DB) (bool, error) {
	var cnt int64
	if err := gdb.WithContext(ctx).Model(&model.Message{}).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count messages: %w", err)
	}
	if cnt == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}
