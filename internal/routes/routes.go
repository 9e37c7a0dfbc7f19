package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/fundme/internal/auth"
	"github.com/congo-pay/fundme/internal/config"
	"github.com/congo-pay/fundme/internal/funding"
	"github.com/congo-pay/fundme/internal/keystore"
	"github.com/congo-pay/fundme/internal/ledger"
	"github.com/congo-pay/fundme/internal/middleware"
	"github.com/congo-pay/fundme/internal/network"
	"github.com/congo-pay/fundme/internal/notification"
	"github.com/congo-pay/fundme/internal/pricefeed"
	"github.com/congo-pay/fundme/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes. Feed
// overrides the price source chosen from the network when set.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	Feed   pricefeed.Feed
}

// Setup configures middlewares, deploys the contract and wires all
// application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	var (
		ledgerBackend ledger.Ledger
		keyRepo       keystore.Repository
	)
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
		keyRepo = keystore.NewPostgresRepository(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
		keyRepo = keystore.NewMemoryRepository()
	}

	net := d.Cfg.Network
	deployer := d.Cfg.DeployerAddress
	feed, feedAddr, err := priceFeed(d, deployer)
	if err != nil {
		return err
	}

	notifiers := notification.Fanout{notification.NewLoggerNotifier(d.Logger)}
	if d.Cache != nil {
		notifiers = append(notifiers, notification.NewRedisNotifier(d.Cache, d.Cfg.EventsChannel))
	}

	fundingSvc, err := funding.NewService(ledgerBackend, feed, funding.Deployment{
		Deployer:   deployer,
		PriceFeed:  feedAddr,
		Nonce:      1,
		MinimumUSD: d.Cfg.MinimumUSD,
	}, notifiers)
	if err != nil {
		return fmt.Errorf("deploy fundme: %w", err)
	}

	walletOpts := wallet.Options{FaucetEnabled: net.Development}
	if net.Development {
		if walletOpts.FaucetLimit, err = ledger.ParseEther(d.Cfg.FaucetLimit); err != nil {
			return fmt.Errorf("faucet limit: %w", err)
		}
	}
	walletSvc := wallet.NewService(ledgerBackend, walletOpts)
	walletSvc.RegisterReceiver(fundingSvc.Address(), fundingSvc)

	if net.Development {
		genesis, err := ledger.ParseEther(d.Cfg.GenesisBalance)
		if err != nil {
			return fmt.Errorf("genesis balance: %w", err)
		}
		minted, err := walletSvc.Genesis(context.Background(), deployer, genesis)
		if err != nil {
			return fmt.Errorf("genesis allocation: %w", err)
		}
		if minted {
			d.Logger.Info("genesis allocation", slog.String("account", deployer.Hex()), slog.String("eth", ledger.FormatEther(genesis)))
		}
	}

	keySvc := keystore.NewService(keyRepo, fundingSvc.Address(), feedAddr)
	if _, err := keySvc.Register(context.Background(), deployer, d.Cfg.DeployerPassphrase); err != nil {
		return fmt.Errorf("register deployer: %w", err)
	}
	authSvc := auth.NewService(d.Cfg, keySvc, keyRepo)

	d.Logger.Info("fundme deployed",
		slog.String("network", net.Name),
		slog.Int64("chain_id", net.ChainID),
		slog.String("contract", fundingSvc.Address().Hex()),
		slog.String("owner", fundingSvc.Owner().Hex()),
		slog.String("price_feed", feedAddr.Hex()),
	)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"network":    net.Name,
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterKeystoreRoutes(api, keySvc, d.Logger)
	rateLimiter := middleware.UnlockRateLimit(d.Cache, d.Cfg.UnlockRateLimit)
	jwtmw := middleware.JWTAuth(authSvc)
	RegisterAuthRoutes(api, auth.NewHandler(authSvc), rateLimiter, jwtmw)
	RegisterFundingRoutes(api, funding.NewHandler(fundingSvc), jwtmw)
	RegisterWalletRoutes(api, wallet.NewHandler(walletSvc), jwtmw)

	// Protected routes
	RegisterAccountMeRoute(api, walletSvc, fundingSvc, jwtmw)

	return nil
}

// priceFeed picks the oracle: the in-process mock on development networks,
// deployed by the owner before the contract, or the configured HTTP source.
func priceFeed(d Deps, deployer ledger.Address) (pricefeed.Feed, ledger.Address, error) {
	net := d.Cfg.Network
	feedAddr := net.EthUsdPriceFeed
	if net.Development {
		feedAddr = ledger.CreateAddress(deployer, 0)
	}
	if d.Feed != nil {
		return d.Feed, feedAddr, nil
	}
	if net.Development {
		return pricefeed.NewMockAggregator(network.MockDecimals, network.MockInitialAnswer), feedAddr, nil
	}
	feed, err := pricefeed.NewHTTPFeed(d.Cfg.PriceFeedURL,
		pricefeed.WithTimeout(d.Cfg.PriceFeedTimeout),
		pricefeed.WithMaxAge(d.Cfg.PriceFeedMaxAge),
	)
	if err != nil {
		return nil, ledger.Address{}, fmt.Errorf("price feed: %w", err)
	}
	return feed, feedAddr, nil
}
