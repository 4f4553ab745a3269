package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-storefront-orders/internal/catalog"
	"github.com/ariefcatur/go-storefront-orders/internal/config"
	"github.com/ariefcatur/go-storefront-orders/internal/logging"
	"github.com/ariefcatur/go-storefront-orders/internal/postgres"
)

type seedFile struct {
	Products []seedProduct `toml:"products"`
}

type seedProduct struct {
	Name          string          `toml:"name"`
	Description   string          `toml:"description"`
	Price         decimal.Decimal `toml:"price"`
	OriginalPrice string          `toml:"original_price"`
	Category      string          `toml:"category"`
	Images        []string        `toml:"images"`
	Colors        []catalog.Color `toml:"colors"`
	StockBySize   map[string]int  `toml:"stock_by_size"`
	Stock         int             `toml:"stock"`
	Featured      bool            `toml:"featured"`
	IsNew         bool            `toml:"is_new"`
	Rating        float64         `toml:"rating"`
	NumReviews    int             `toml:"num_reviews"`
	Tags          []string        `toml:"tags"`
}

// sizeOrder keeps generated size lists in shop order rather than map order.
var sizeOrder = []string{"XS", "S", "M", "L", "XL", "XXL", "3XL"}

func main() {
	file := flag.String("file", "seed/catalog.toml", "catalog file")
	reset := flag.Bool("reset", false, "delete existing products first")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logging.Init(cfg.ServiceName+"-seed", cfg.LogLevel)

	var sf seedFile
	if _, err := toml.DecodeFile(*file, &sf); err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("read catalog")
	}
	products, err := buildProducts(sf)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid catalog")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, postgres.PoolOptions{MaxConns: 4, PingAttempts: 5})
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()
	if err := postgres.Migrate(cfg.PostgresDSN, cfg.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	if *reset {
		if _, err := db.Exec(ctx, `DELETE FROM products`); err != nil {
			log.Fatal().Err(err).Msg("reset products")
		}
	}

	repo := &catalog.Repo{DB: db}
	for i := range products {
		if err := repo.Create(ctx, &products[i]); err != nil {
			log.Fatal().Err(err).Str("product", products[i].Name).Msg("insert product")
		}
	}
	log.Info().Int("products", len(products)).Bool("reset", *reset).Msg("catalog_seeded")
}

func buildProducts(sf seedFile) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(sf.Products))
	for i, sp := range sf.Products {
		p := catalog.Product{
			Name:        sp.Name,
			Description: sp.Description,
			Price:       sp.Price,
			Category:    sp.Category,
			Images:      sp.Images,
			Colors:      sp.Colors,
			StockBySize: sp.StockBySize,
			Stock:       sp.Stock,
			Featured:    sp.Featured,
			IsNew:       sp.IsNew,
			Rating:      sp.Rating,
			NumReviews:  sp.NumReviews,
			Tags:        sp.Tags,
		}
		if sp.OriginalPrice != "" {
			d, err := decimal.NewFromString(sp.OriginalPrice)
			if err != nil {
				return nil, fmt.Errorf("product %d (%s): original_price: %w", i, sp.Name, err)
			}
			p.OriginalPrice = decimal.NewNullDecimal(d)
		}
		if len(sp.StockBySize) > 0 {
			p.Stock = 0
			for _, size := range sizeOrder {
				if n, ok := sp.StockBySize[size]; ok {
					p.Sizes = append(p.Sizes, size)
					p.Stock += n
				}
			}
			if len(p.Sizes) != len(sp.StockBySize) {
				return nil, fmt.Errorf("product %d (%s): unknown size in stock_by_size", i, sp.Name)
			}
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("product %d (%s): %w", i, sp.Name, err)
		}
		out = append(out, p)
	}
	return out, nil
}
