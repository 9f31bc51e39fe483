// cmd/trader/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/assist-by/falcon/internal/account"
	"github.com/assist-by/falcon/internal/config"
	"github.com/assist-by/falcon/internal/domain"
	"github.com/assist-by/falcon/internal/exchange/binance"
	"github.com/assist-by/falcon/internal/logger"
	"github.com/assist-by/falcon/internal/notification"
	"github.com/assist-by/falcon/internal/order"
	"github.com/assist-by/falcon/internal/scheduler"
	"github.com/assist-by/falcon/internal/stream"
)

const keepAliveInterval = 30 * time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zap.NewExample().Fatal("설정 로드 실패", zap.Error(err))
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		zap.NewExample().Fatal("로거 초기화 실패", zap.Error(err))
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("실행 실패", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := binance.NewClient(
		cfg.Binance.APIKey,
		cfg.Binance.SecretKey,
		binance.WithTestnet(cfg.Binance.UseTestnet),
		binance.WithTimeout(cfg.Request.Timeout),
		binance.WithRecvWindow(cfg.Request.RecvWindow),
		binance.WithWeightLimit(cfg.Request.WeightLimit),
		binance.WithLogger(log.Named("binance")),
	)

	if err := client.Ping(ctx); err != nil {
		return err
	}
	if err := client.SyncTime(ctx); err != nil {
		return err
	}
	if err := client.RefreshExchangeInfo(ctx); err != nil {
		return err
	}

	mode := domain.OneWayMode
	if cfg.Trading.HedgeMode {
		mode = domain.HedgeMode
	}
	if err := client.SetPositionMode(ctx, mode); err != nil {
		return err
	}

	interval := domain.TimeInterval(cfg.Stream.Interval)
	for _, symbol := range cfg.Stream.Symbols {
		if err := client.SetLeverage(ctx, symbol, cfg.Trading.Leverage); err != nil {
			return err
		}
		if err := client.SetMarginType(ctx, symbol, cfg.Trading.MarginType); err != nil {
			return err
		}
	}

	notifier := notification.NewLogNotifier(log)

	// 캔들 스트림
	manager := stream.NewManager(
		stream.WithTestnetStream(cfg.Binance.UseTestnet),
		stream.WithReconnectDelay(cfg.Stream.ReconnectDelay),
		stream.WithStreamLogger(log.Named("stream")),
		stream.WithCandleHandler(func(candle domain.Candle, closed bool, serverTime time.Time) {
			if closed {
				notifier.NotifyCandleClose(candle, serverTime)
			}
		}),
	)
	manager.Start(ctx)
	defer manager.Stop()

	if err := manager.WaitUntilConnected(ctx, 10*time.Second); err != nil {
		return err
	}
	for _, symbol := range cfg.Stream.Symbols {
		if err := manager.Subscribe(symbol, interval); err != nil {
			return err
		}
		// 과거 구간을 REST로 채워 전략 쪽이 바로 시리즈를 쓸 수 있게 합니다
		candles, err := client.GetKlines(ctx, symbol, interval, cfg.Stream.SeedLimit)
		if err != nil {
			return err
		}
		manager.Store().Seed(symbol, interval, candles)
	}

	// 계정 스냅샷과 세션 유지
	acct := account.NewStore()
	refresher := account.NewRefresher(client, acct, log.Named("account"))
	if err := refresher.Execute(ctx); err != nil {
		return err
	}

	userStream := account.NewUserStream(client, log.Named("account"))
	if err := userStream.Start(ctx); err != nil {
		return err
	}
	defer userStream.Close(context.Background())

	// 유지보수: 거래소 정보 갱신과 시각 오프셋 전파
	maintenance := scheduler.TaskFunc(func(ctx context.Context) error {
		if err := client.RefreshExchangeInfo(ctx); err != nil {
			notifier.NotifyError(err)
		}
		if offset := manager.Clock().Offset(); offset != 0 {
			client.SetTimeOffset(offset)
		} else if err := client.SyncTime(ctx); err != nil {
			notifier.NotifyError(err)
		}
		return nil
	})

	schedulers := []*scheduler.Scheduler{
		scheduler.NewScheduler("account-refresh", cfg.Trading.AccountRefresh, refresher, log),
		scheduler.NewScheduler("listen-key", keepAliveInterval, userStream, log),
		scheduler.NewScheduler("maintenance", cfg.Request.SyncInterval, maintenance, log),
	}

	var wg conc.WaitGroup
	for _, s := range schedulers {
		s := s
		wg.Go(func() {
			_ = s.Start(ctx)
		})
	}

	// 브래킷 주문 오케스트레이터: 외부 제어 계층이 사용할 실행 엔진입니다
	orch := order.NewOrchestrator(client, acct, manager.Clock(),
		order.WithFlattenRetries(cfg.Trading.FlattenRetries),
		order.WithFlattenRetryDelay(cfg.Trading.FlattenRetryDelay),
		order.WithPollInterval(cfg.Trading.PollInterval),
		order.WithStatusCallback(notifier.NotifyOrderEvent),
		order.WithOrchestratorLogger(log.Named("order")),
	)

	log.Info("초기화 완료",
		zap.Strings("symbols", cfg.Stream.Symbols),
		zap.String("interval", string(interval)),
		zap.Bool("testnet", cfg.Binance.UseTestnet),
		zap.String("positionMode", string(mode)),
	)

	<-ctx.Done()
	log.Info("종료 신호 수신, 진행 중인 작업 정리")

	// 진행 중인 브래킷 작업은 만료와 동일하게 강제 청산됩니다
	orch.Shutdown()
	wg.Wait()
	return nil
}
