package wheelbuilder

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/park285/piece-wheel/internal/config"
	"github.com/park285/piece-wheel/internal/httpapi"
	"github.com/park285/piece-wheel/internal/lichess"
	"github.com/park285/piece-wheel/internal/monitor"
	"github.com/park285/piece-wheel/internal/msgcat"
	"github.com/park285/piece-wheel/internal/notify"
	"github.com/park285/piece-wheel/internal/relay"
	"github.com/park285/piece-wheel/internal/wheel"
	"github.com/park285/piece-wheel/internal/wheelws"
	"github.com/park285/piece-wheel/pkg/wheeldto"
	"go.uber.org/zap"
)

type Deps struct {
	Client  *lichess.Client
	Catalog *msgcat.Catalog
	Wheel   *wheel.Wheel
	Hub     *wheelws.Hub
	Relay   *relay.Relay
	Monitor *monitor.Monitor
	Router  http.Handler
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("init messages: %w", err)
	}

	token := strings.TrimSpace(cfg.LichessToken)
	headers := func() map[string]string {
		h := map[string]string{}
		if token != "" {
			h["Authorization"] = "Bearer " + token
		}
		return h
	}
	client := lichess.NewClient(cfg.LichessBaseURL,
		lichess.WithHeaderProvider(headers),
		lichess.WithTimeout(cfg.LichessTimeout),
	)

	// The hub reads state from the wheel and monitor built below.
	var (
		w   *wheel.Wheel
		mon *monitor.Monitor
	)
	hub := wheelws.NewHub(
		wheelws.WithOriginPatterns(cfg.AllowedOrigins),
		wheelws.WithLogger(logger),
		wheelws.WithState(func() wheeldto.State {
			st := w.State()
			st.Monitor = mon.State().String()
			return st
		}),
		wheelws.WithSpin(func(s string) (bool, error) {
			side, err := wheel.ParseSide(s)
			if err != nil {
				return false, err
			}
			_, ok := w.Spin(side)
			return ok, nil
		}),
	)
	pubs := notify.Multi{hub}

	// Redis relay is optional
	var rl *relay.Relay
	if strings.TrimSpace(cfg.RedisURL) != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rl, err = relay.Dial(ctx, cfg.RedisURL,
			relay.WithChannel(cfg.RedisChannel),
			relay.WithTTL(cfg.RedisStateTTL),
			relay.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("init relay: %w", err)
		}
		pubs = append(pubs, rl)
	}

	w = wheel.New(
		wheel.WithPublisher(pubs),
		wheel.WithNamer(cat),
		wheel.WithLogger(logger),
		wheel.WithSpinDuration(cfg.SpinDuration),
	)

	mon = monitor.New(cfg.Username, client, w,
		monitor.WithDelay(cfg.RecheckDelay),
		monitor.WithCatalog(cat),
		monitor.WithLogger(logger),
	)

	router := httpapi.SetupRoutes(httpapi.Deps{
		Wheel:     w,
		Monitor:   mon,
		Hub:       hub,
		ImageSize: cfg.WheelImageSize,
		Logger:    logger,
	})

	return &Deps{
		Client:  client,
		Catalog: cat,
		Wheel:   w,
		Hub:     hub,
		Relay:   rl,
		Monitor: mon,
		Router:  router,
	}, nil
}

// Close releases the optional relay connection.
func (d *Deps) Close() error {
	if d.Relay != nil {
		return d.Relay.Close()
	}
	return nil
}
