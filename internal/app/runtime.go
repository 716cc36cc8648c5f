package app

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"seasonal-menu/internal/config"
	"seasonal-menu/internal/database"
	"seasonal-menu/internal/menuapi"
	"seasonal-menu/internal/metrics"
	"seasonal-menu/internal/notify"
)

// ErrMetricsDisabled is returned when metrics are requested without a
// database path.
var ErrMetricsDisabled = errors.New("metrics disabled: set METRICS_DB_PATH")

// Runtime holds the process-wide dependencies shared by every App.
type Runtime struct {
	Config  *config.Config
	Logger  *zap.Logger
	Client  *menuapi.Client
	Metrics *metrics.Store // nil when disabled
	Alerts  notify.Notifier

	db *database.DB
}

// NewRuntime opens the metrics database and the alert channel configured
// in cfg.
func NewRuntime(cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rt := &Runtime{
		Config: cfg,
		Logger: logger,
		Client: menuapi.NewClient(cfg, menuapi.WithLogger(logger.Named("menuapi"))),
		Alerts: notify.Nop{},
	}

	if cfg.MetricsDBPath != "" {
		db, err := database.NewDB(cfg.MetricsDBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		rt.db = db
		rt.Metrics = metrics.NewStore(db.SQL)
	}

	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramAlertChatID, logger.Named("telegram"))
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.Alerts = tg
	}
	return rt, nil
}

// NewApp builds an App whose notifications go to local and to the
// configured alert channel.
func (rt *Runtime) NewApp(local notify.Notifier) *App {
	opts := []Option{
		WithNotifier(notify.Multi{local, rt.Alerts}),
		WithLogger(rt.Logger),
	}
	if rt.Metrics != nil {
		opts = append(opts, WithRecorder(rt.Metrics))
	}
	return NewApp(rt.Client, opts...)
}

// MetricsStore returns the store or ErrMetricsDisabled.
func (rt *Runtime) MetricsStore() (*metrics.Store, error) {
	if rt.Metrics == nil {
		return nil, ErrMetricsDisabled
	}
	return rt.Metrics, nil
}

// Close waits for pending alerts and releases the database.
func (rt *Runtime) Close() error {
	var errs []error
	if c, ok := rt.Alerts.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if rt.db != nil {
		errs = append(errs, rt.db.Close())
	}
	return errors.Join(errs...)
}
