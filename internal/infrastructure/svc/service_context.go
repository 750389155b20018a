package svc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"ttstream/internal/application/port"
	"ttstream/internal/application/usecase/marketdata"
	"ttstream/internal/infrastructure/config"
	"ttstream/internal/infrastructure/metrics"
	"ttstream/internal/infrastructure/storage"
	"ttstream/internal/infrastructure/storage/composite"
	pgrepo "ttstream/internal/infrastructure/storage/postgres"
	redisrepo "ttstream/internal/infrastructure/storage/redis"
	sqliterepo "ttstream/internal/infrastructure/storage/sqlite"
	"ttstream/internal/infrastructure/symbols"
	"ttstream/internal/infrastructure/tastytrade"
	"ttstream/internal/interfaces/console"
)

type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	// 基础设施层（第一层初始化）
	redisRepo   *redisrepo.Repo
	sqliteRepo  *sqliterepo.Repo
	pgRepo      *pgrepo.Repo
	symbolCache port.SymbolCache
	client      *tastytrade.Client
	translators *symbols.Factory

	// 输出端口
	Sink port.EventSink

	// 资源管理
	closerChain []func() error
}

// New 创建并初始化 ServiceContext
// 这是应用启动的唯一入口点，所有依赖初始化都在这里完成
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		Sink:        console.NewSink(),
		closerChain: make([]func() error, 0),
	}

	if err := sc.initializeComponents(); err != nil {
		// 清理已初始化的资源
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

// initializeComponents 按依赖顺序初始化：存储 -> REST 客户端 -> 符号翻译 -> 指标
func (sc *ServiceContext) initializeComponents() error {
	if err := sc.initializeStorage(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageInitFailed, err)
	}

	opts := []tastytrade.Option{}
	if sc.redisRepo != nil {
		opts = append(opts, tastytrade.WithSessionStore(sc.redisRepo))
	}
	sc.client = tastytrade.NewClient(sc.Config.BaseURL(), opts...)
	sc.translators = symbols.NewFactory(sc.client, sc.symbolCache)

	if sc.Config.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return fmt.Errorf("metrics registration failed: %w", err)
		}
	}

	log.Info().
		Str("api", sc.Config.BaseURL()).
		Bool("session_cache", sc.redisRepo != nil).
		Msg("✓ All components initialized")
	return nil
}

// initializeStorage 初始化符号缓存后端 (SQLite / Postgres / Redis)
func (sc *ServiceContext) initializeStorage() error {
	if sc.Config.Cache.Redis.Enabled {
		if err := sc.initRedis(); err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
	}
	if sc.Config.Cache.SQLite.Enabled {
		if err := sc.initSQLite(); err != nil {
			return fmt.Errorf("sqlite initialization failed: %w", err)
		}
	}
	if sc.Config.Cache.Postgres.Enabled {
		if err := sc.initPostgres(); err != nil {
			return fmt.Errorf("postgres initialization failed: %w", err)
		}
	}

	// 本地后端优先查询：sqlite -> postgres -> redis
	var backends []port.SymbolCache
	if sc.sqliteRepo != nil {
		backends = append(backends, sc.sqliteRepo)
	}
	if sc.pgRepo != nil {
		backends = append(backends, sc.pgRepo)
	}
	if sc.redisRepo != nil {
		backends = append(backends, sc.redisRepo)
	}
	caches := composite.New(backends...)
	if caches.Len() == 0 {
		sc.symbolCache = storage.NewMemoryCache()
		log.Debug().Msg("no cache backend enabled, using in-memory symbol cache")
		return nil
	}
	sc.symbolCache = caches
	return nil
}

// initRedis 初始化 Redis 连接
func (sc *ServiceContext) initRedis() error {
	rc := sc.Config.Cache.Redis
	rdb := redisclient.NewClient(&redisclient.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(sc.Ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	sc.redisRepo = redisrepo.New(rdb, rc.Prefix, time.Duration(rc.TTLSeconds)*time.Second)

	// 注册关闭回调
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", rc.Addr).
		Int("db", rc.DB).
		Msg("✓ Redis initialized")
	return nil
}

// initSQLite 初始化 SQLite 数据库
func (sc *ServiceContext) initSQLite() error {
	repo, err := sqliterepo.New(sc.Config.Cache.SQLite.Path)
	if err != nil {
		return fmt.Errorf("sqlite repo creation failed: %w", err)
	}
	sc.sqliteRepo = repo

	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing sqlite connection")
		return repo.Close()
	})

	log.Info().
		Str("path", sc.Config.Cache.SQLite.Path).
		Msg("✓ SQLite initialized")
	return nil
}

// initPostgres 初始化 Postgres 连接
func (sc *ServiceContext) initPostgres() error {
	repo, err := pgrepo.New(sc.Config.Cache.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("postgres repo creation failed: %w", err)
	}
	sc.pgRepo = repo

	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing postgres connection")
		return repo.Close()
	})

	log.Info().Msg("✓ Postgres initialized")
	return nil
}

// Login 使用环境变量中的凭证登录
func (sc *ServiceContext) Login(ctx context.Context) error {
	creds := sc.Config.Credentials
	_, err := sc.client.Login(ctx, tastytrade.Credentials{
		Login:         creds.Login,
		Password:      creds.Password,
		RememberToken: creds.RememberToken,
		RememberMe:    true,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	return nil
}

// Logout 结束 REST 会话
func (sc *ServiceContext) Logout(ctx context.Context) error {
	return sc.client.Logout(ctx)
}

// BuildMarketDataServiceDeps 构建 marketdata Service 所需的依赖
func (sc *ServiceContext) BuildMarketDataServiceDeps() marketdata.ServiceDeps {
	return marketdata.ServiceDeps{
		Tokens:      sc.client,
		Translators: sc.translators,
		AuthTimeout: time.Duration(sc.Config.Streamer.AuthTimeoutSec) * time.Second,
	}
}

// MetricsHandler 返回 /metrics 处理器
func (sc *ServiceContext) MetricsHandler() http.Handler {
	return metrics.Handler()
}

// Close 按照相反的顺序关闭所有资源
func (sc *ServiceContext) Close() error {
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
		}
	}
	sc.closerChain = nil
	return nil
}
