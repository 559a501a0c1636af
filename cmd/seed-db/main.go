// Command seed-db creates the schema and loads a starting data set: the
// watch catalog from a JSON file plus shipping cities, seller accounts, and
// discount codes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/diezydiez/watchstore/internal/domain/discount"
	"github.com/diezydiez/watchstore/internal/domain/product"
	"github.com/diezydiez/watchstore/internal/storage/postgres"
)

type productJSON struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Category   string           `json:"category"`
	CostPrice  decimal.Decimal  `json:"costPrice"`
	SalePrice  decimal.Decimal  `json:"salePrice"`
	PromoPrice *decimal.Decimal `json:"promoPrice"`
	Quantity   int              `json:"quantity"`
	IsPublic   bool             `json:"isPublic"`
	ISV        bool             `json:"isv"`
}

type locationJSON struct {
	ID   string          `json:"id"`
	City string          `json:"city"`
	Cost decimal.Decimal `json:"cost"`
}

type sellerJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type discountJSON struct {
	Code       string          `json:"code"`
	Percentage decimal.Decimal `json:"percentage"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    time.Time       `json:"endDate"`
}

type seedFile struct {
	Products  []productJSON  `json:"products"`
	Locations []locationJSON `json:"shippingLocations"`
	Sellers   []sellerJSON   `json:"sellers"`
	Discounts []discountJSON `json:"discountCodes"`
}

func main() {
	var (
		databaseURL string
		dataFile    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&dataFile, "data-file", "db/seed/store.json", "path to seed data JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, dataFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, dataFile string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("reading seed file", slog.String("path", dataFile))

	data, err := os.ReadFile(dataFile)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "parse seed JSON")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), seed.Products); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedLocations(ctx, pool, seed.Locations); err != nil {
		return errors.Wrap(err, "seed shipping locations")
	}
	if err := seedSellers(ctx, pool, seed.Sellers); err != nil {
		return errors.Wrap(err, "seed sellers")
	}
	if err := seedDiscounts(ctx, postgres.NewDiscountRepository(pool), seed.Discounts); err != nil {
		return errors.Wrap(err, "seed discount codes")
	}
	return nil
}

func seedProducts(ctx context.Context, repo product.Repository, products []productJSON) error {
	for _, p := range products {
		err := repo.Upsert(ctx, &product.Product{
			ID:         p.ID,
			Name:       p.Name,
			Category:   p.Category,
			CostPrice:  p.CostPrice,
			SalePrice:  p.SalePrice,
			PromoPrice: p.PromoPrice,
			Quantity:   p.Quantity,
			IsPublic:   p.IsPublic,
			ISV:        p.ISV,
		})
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
	}
	slog.Info("seeded products", slog.Int("count", len(products)))
	return nil
}

const upsertLocationSQL = `INSERT INTO shipping_locations (id, city, cost)
	VALUES ($1, $2, $3)
	ON CONFLICT (id) DO UPDATE SET city = EXCLUDED.city, cost = EXCLUDED.cost`

func seedLocations(ctx context.Context, pool *pgxpool.Pool, locations []locationJSON) error {
	for _, l := range locations {
		if _, err := pool.Exec(ctx, upsertLocationSQL, l.ID, l.City, l.Cost); err != nil {
			return errors.Wrapf(err, "upsert location %s", l.City)
		}
	}
	slog.Info("seeded shipping locations", slog.Int("count", len(locations)))
	return nil
}

const upsertSellerSQL = `INSERT INTO sellers (id, name, role)
	VALUES ($1, $2, $3)
	ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role`

func seedSellers(ctx context.Context, pool *pgxpool.Pool, sellers []sellerJSON) error {
	for _, s := range sellers {
		role := s.Role
		if role == "" {
			role = "seller"
		}
		if _, err := pool.Exec(ctx, upsertSellerSQL, s.ID, s.Name, role); err != nil {
			return errors.Wrapf(err, "upsert seller %s", s.ID)
		}
	}
	slog.Info("seeded sellers", slog.Int("count", len(sellers)))
	return nil
}

func seedDiscounts(ctx context.Context, repo discount.Repository, discounts []discountJSON) error {
	for _, d := range discounts {
		err := repo.Upsert(ctx, &discount.Code{
			ID:         d.Code,
			Percentage: d.Percentage,
			StartDate:  d.StartDate,
			EndDate:    d.EndDate,
		})
		if err != nil {
			return errors.Wrapf(err, "upsert discount code %s", d.Code)
		}
	}
	slog.Info("seeded discount codes", slog.Int("count", len(discounts)))
	return nil
}
