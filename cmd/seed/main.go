// Command seed fills a development database with a few users, services
// and orders. Running it twice reuses the users it already created.
package main

import (
	"context"
	"errors"
	"log"

	"github.com/kendall-kelly/freelance-market-api/config"
	"github.com/kendall-kelly/freelance-market-api/models"
	"github.com/kendall-kelly/freelance-market-api/services"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	if err := config.ConnectDatabase(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := config.Migrate(config.GetDB()); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	svc := services.New(config.GetDB(), services.Options{
		Processor: services.NewMockPaymentProcessor(),
		Hub:       services.NewHub(),
		Currency:  cfg.PaymentCurrency,
	})

	if err := seed(context.Background(), svc); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seed data written")
}

func seed(ctx context.Context, svc *services.Services) error {
	users := map[string]*models.User{}
	for _, in := range []services.RegisterInput{
		{AuthID: "seed|alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Designer", Role: models.RoleFreelancer},
		{AuthID: "seed|omar", Email: "omar@example.com", FirstName: "Omar", LastName: "Developer", Role: models.RoleFreelancer},
		{AuthID: "seed|chen", Email: "chen@example.com", FirstName: "Chen", LastName: "Buyer", Role: models.RoleClient},
		{AuthID: "seed|admin", Email: "admin@example.com", FirstName: "Site", LastName: "Admin", Role: models.RoleAdmin},
	} {
		user, err := svc.Users.RegisterUser(ctx, in)
		if errors.Is(err, services.ErrUserExists) {
			log.Printf("User %s already exists, skipping", in.Email)
			if user, err = svc.Users.GetByAuthID(ctx, in.AuthID); err != nil {
				return err
			}
			users[in.FirstName] = user
			continue
		}
		if err != nil {
			return err
		}
		users[in.FirstName] = user
	}

	logo, err := svc.Catalog.CreateService(ctx, services.ServiceInput{
		FreelancerID: users["Alice"].ID,
		Title:        "Logo and brand kit",
		Description:  "A logo in three variants with colour palette and typography",
		Category:     "design",
		Price:        decimal.NewFromInt(150),
		DeliveryTime: 5,
		Tags:         []string{"logo", "branding"},
		Plans: []models.Plan{
			{Name: "basic", Price: decimal.NewFromInt(150), Delivery: 5, Features: []string{"1 concept"}},
			{Name: "premium", Price: decimal.NewFromInt(320), Delivery: 8, Features: []string{"3 concepts", "source files"}},
		},
		FAQs: []models.FAQ{{Question: "Do I own the files?", Answer: "Yes, full rights transfer on completion."}},
	})
	if err != nil {
		return err
	}

	api, err := svc.Catalog.CreateService(ctx, services.ServiceInput{
		FreelancerID: users["Omar"].ID,
		Title:        "REST API in Go",
		Description:  "A small HTTP API with tests and a Dockerfile",
		Category:     "development",
		Price:        decimal.RequireFromString("480.00"),
		DeliveryTime: 10,
		Tags:         []string{"go", "api"},
	})
	if err != nil {
		return err
	}

	client := users["Chen"]
	if _, err := svc.Orders.Checkout(ctx, client.ID, logo.ID, "Minimal, blue tones", "premium"); err != nil {
		return err
	}
	order, err := svc.Orders.Checkout(ctx, client.ID, api.ID, "Endpoints for an inventory app", "")
	if err != nil {
		return err
	}
	if _, err := svc.Orders.TransitionOrder(ctx, order.ID, api.FreelancerID, models.OrderStatusInProgress, nil); err != nil {
		return err
	}

	log.Printf("Seeded %d users, 2 services and 2 orders", len(users))
	return nil
}
