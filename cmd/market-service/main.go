package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	mauth "github.com/radieske/prediction-market-poc/internal/market-service/auth"
	"github.com/radieske/prediction-market-poc/internal/market-service/engine"
	mhttp "github.com/radieske/prediction-market-poc/internal/market-service/http"
	"github.com/radieske/prediction-market-poc/internal/market-service/pause"
	kpub "github.com/radieske/prediction-market-poc/internal/market-service/producer"
	"github.com/radieske/prediction-market-poc/internal/market-service/wallet"
	"github.com/radieske/prediction-market-poc/internal/market-service/ws"
	sharedcache "github.com/radieske/prediction-market-poc/internal/shared/cache"
	"github.com/radieske/prediction-market-poc/internal/shared/config"
	sharedkafka "github.com/radieske/prediction-market-poc/internal/shared/kafka"
	"github.com/radieske/prediction-market-poc/internal/shared/logger"
	"github.com/radieske/prediction-market-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Redis (pause gate + broadcast de odds pro WS)
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic market_events); Async pra não bloquear o ledger
	writer := sharedkafka.NewAsyncWriter(strings.Split(cfg.KafkaBrokers, ","), cfg.TopicMarketEvents)
	defer writer.Close()

	// deps do ledger
	authorizer := mauth.NewStatic(cfg.OwnerIDs, cfg.ResolverIDs)
	gate := pause.NewRedisGate(rdb)
	sink := kpub.NewKafkaSink(log, writer)
	wcli := wallet.New(cfg.WalletURL) // wallet-service: reserva de stake e crédito de payout

	ledger := engine.New(log, engine.Params{
		MinBetCents:      cfg.MinBetCents,
		MaxBetCents:      cfg.MaxBetCents,
		FeeBps:           cfg.FeeBps,
		ResolutionWindow: cfg.ResolutionWindow,
		MinDuration:      cfg.MinDuration,
		MaxDuration:      cfg.MaxDuration,
	}, authorizer, engine.SystemClock{}, wcli, gate, sink)

	// Métricas Prometheus do serviço
	counters := &mhttp.Metrics{
		MarketsCreated:   prometheus.NewCounter(prometheus.CounterOpts{Name: "market_markets_created_total", Help: "mercados criados"}),
		BetsPlaced:       prometheus.NewCounter(prometheus.CounterOpts{Name: "market_bets_placed_total", Help: "apostas aplicadas"}),
		MarketsResolved:  prometheus.NewCounter(prometheus.CounterOpts{Name: "market_markets_resolved_total", Help: "mercados resolvidos"}),
		MarketsCancelled: prometheus.NewCounter(prometheus.CounterOpts{Name: "market_markets_cancelled_total", Help: "mercados cancelados"}),
		ClaimsPaid:       prometheus.NewCounter(prometheus.CounterOpts{Name: "market_claims_paid_total", Help: "claims pagos"}),
	}
	prometheus.MustRegister(
		counters.MarketsCreated, counters.BetsPlaced,
		counters.MarketsResolved, counters.MarketsCancelled, counters.ClaimsPaid,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// WS de odds ao vivo, alimentado pelo projector via Redis Pub/Sub
	hub := ws.NewHub(func(r *http.Request) bool { return true }) // POC: libera qualquer origem
	ws.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, hub)

	// HTTP público
	api := mhttp.NewServer(log, ledger, wcli, counters)
	mux := http.NewServeMux()
	mux.Handle("/", api.Router())
	mux.HandleFunc("/ws", hub.HandleWS)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: mux,
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(hctx context.Context) error {
		return rdb.Ping(hctx).Err()
	})
	log.Info("metrics/health", zap.String("addr", fmt.Sprintf(":%s", cfg.MetricsPort)))

	go func() {
		<-ctx.Done()
		_ = apiSrv.Shutdown(context.Background())
	}()

	log.Info("market-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
