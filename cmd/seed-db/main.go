// Command seed-db loads catalog products, demo coupons, and test accounts
// into the database. It is idempotent: every write is an upsert.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/coupon"
	"github.com/xenking/storefront-api/internal/domain/product"
	"github.com/xenking/storefront-api/internal/domain/user"
	"github.com/xenking/storefront-api/internal/storage/postgres"
)

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	SellerID string          `json:"sellerId"`
	Category string          `json:"category"`
	Image    struct {
		Thumbnail string `json:"thumbnail"`
		Mobile    string `json:"mobile"`
		Tablet    string `json:"tablet"`
		Desktop   string `json:"desktop"`
	} `json:"image"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		adminKey     string
		userKey      string
		pepper       string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&adminKey, "admin-key", "", "admin API key to seed (or STORE_SEED_ADMIN_KEY env)")
	flag.StringVar(&userKey, "user-key", "", "customer API key to seed (or STORE_SEED_USER_KEY env)")
	flag.StringVar(&pepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or STORE_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminKey == "" {
		adminKey = os.Getenv("STORE_SEED_ADMIN_KEY")
	}
	if userKey == "" {
		userKey = os.Getenv("STORE_SEED_USER_KEY")
	}
	if adminKey == "" || userKey == "" {
		slog.Error("API keys are required: set --admin-key/--user-key or STORE_SEED_ADMIN_KEY/STORE_SEED_USER_KEY")
		os.Exit(1)
	}
	if pepper == "" {
		pepper = os.Getenv("STORE_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminKey, userKey, pepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminKey, userKey, pepper string) error {
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

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCoupons(ctx, postgres.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if err := seedUsers(ctx, postgres.NewUserRepository(pool), adminKey, userKey, pepper); err != nil {
		return errors.Wrap(err, "seed users")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		err := repo.Upsert(ctx, &product.Product{
			ID:            p.ID,
			Name:          p.Name,
			Price:         p.Price,
			OriginalPrice: p.Price,
			Stock:         p.Stock,
			SellerID:      p.SellerID,
			Category:      p.Category,
			Image: product.Image{
				Thumbnail: p.Image.Thumbnail,
				Mobile:    p.Image.Mobile,
				Tablet:    p.Image.Tablet,
				Desktop:   p.Image.Desktop,
			},
		})
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, repo *postgres.CouponRepository) error {
	slog.Info("seeding demo coupons")

	maxFifty := decimal.NewFromInt(50)
	coupons := []coupon.Rule{
		{
			Code:          "WELCOME10",
			DiscountType:  coupon.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(10),
			MaxDiscount:   &maxFifty,
			Active:        true,
			Description:   "Welcome: 10% off, up to 50",
		},
		{
			Code:          "FLAT200",
			DiscountType:  coupon.DiscountFixed,
			DiscountValue: decimal.NewFromInt(200),
			MinPurchase:   decimal.NewFromInt(1000),
			Active:        true,
			Description:   "200 off orders of 1000 or more",
		},
		{
			Code:          "FIRST5",
			DiscountType:  coupon.DiscountFixed,
			DiscountValue: decimal.NewFromInt(5),
			UsageLimit:    1,
			Active:        true,
			Description:   "5 off, single redemption",
		},
	}

	for i := range coupons {
		if err := repo.Upsert(ctx, &coupons[i]); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", coupons[i].Code)
		}

		slog.Info("upserted coupon",
			slog.String("code", coupons[i].Code),
			slog.String("description", coupons[i].Description),
		)
	}

	return nil
}

func seedUsers(ctx context.Context, repo *postgres.UserRepository, adminKey, userKey, pepper string) error {
	slog.Info("seeding accounts")

	users := []user.User{
		{
			ID:         "admin",
			Email:      "admin@example.com",
			Name:       "Store Admin",
			Role:       user.RoleAdmin,
			APIKeyHash: hashKey(adminKey, pepper),
			Active:     true,
		},
		{
			ID:         "customer",
			Email:      "customer@example.com",
			Name:       "Test Customer",
			Role:       user.RoleUser,
			APIKeyHash: hashKey(userKey, pepper),
			Active:     true,
		},
	}

	for i := range users {
		if err := repo.Upsert(ctx, &users[i]); err != nil {
			return errors.Wrapf(err, "upsert user %s", users[i].ID)
		}

		slog.Info("upserted user", slog.String("id", users[i].ID), slog.String("role", string(users[i].Role)))
	}

	return nil
}

func hashKey(key, pepper string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}
