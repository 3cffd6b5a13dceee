package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/omeyang/xcorr/pkg/config/xconf"
	"github.com/omeyang/xcorr/pkg/context/xctx"
	"github.com/omeyang/xcorr/pkg/correlation/xcid"
	"github.com/omeyang/xcorr/pkg/correlation/xprop"
	"github.com/omeyang/xcorr/pkg/lifecycle/xrun"
	"github.com/omeyang/xcorr/pkg/observability/xlog"
	"github.com/omeyang/xcorr/pkg/observability/xspan"
)

const shutdownTimeout = 5 * time.Second

func createServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "启动演示服务：回显关联信息，可转发到下游形成链路",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Usage: "监听地址", Value: ":8080"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "配置文件，变更后热更新"},
			&cli.StringFlag{Name: "downstream", Aliases: []string{"d"}, Usage: "下游 URL，设置后每个请求都会转发"},
			&cli.StringFlag{Name: "log-level", Usage: "日志级别", Value: "info"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, _, err := xlog.New().SetLevelString(cmd.String("log-level")).Build()
			if err != nil {
				return &usageError{msg: err.Error()}
			}
			lis, err := net.Listen("tcp", cmd.String("addr"))
			if err != nil {
				return err
			}
			return serve(ctx, lis, serveConfig{
				configPath: cmd.String("config"),
				downstream: cmd.String("downstream"),
				logger:     logger,
			})
		},
	}
}

type serveConfig struct {
	configPath string
	downstream string
	logger     xlog.Logger
}

// serve 在 lis 上运行演示服务，直到 ctx 取消或收到终止信号。
//
// HTTP 服务与配置监视由同一个 xrun 组管理，任一失败都会停止全部；
// 信号退出时返回 *xrun.SignalError。
func serve(ctx context.Context, lis net.Listener, sc serveConfig) error {
	gen := xcid.Generator(xcid.UUIDGenerator{})
	var cfg *xconf.Config
	if sc.configPath != "" {
		c, loaded, err := xprop.LoadOptions(sc.configPath)
		if err != nil {
			return errors.Join(err, lis.Close())
		}
		gen, cfg = c.IDGenerator(), loaded
	}

	reg := prometheus.NewRegistry()
	promObs, err := xspan.NewPrometheusObserver(reg)
	if err != nil {
		return errors.Join(err, lis.Close())
	}
	registry := xspan.NewRegistry()
	registry.Register(promObs)
	registry.Register(&logObserver{logger: sc.logger})

	p, err := xprop.New(
		xprop.WithGenerator(gen),
		xprop.WithTracer(xspan.NewTracer(xspan.WithRegistry(registry))),
		xprop.WithLogger(sc.logger),
	)
	if err != nil {
		return errors.Join(err, lis.Close())
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", p.Middleware(echoHandler(p, sc)))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	services := []func(context.Context) error{
		xrun.HTTPServer(xrun.OnListener(srv, lis), shutdownTimeout),
	}
	if cfg != nil {
		services = append(services, func(ctx context.Context) error {
			return xprop.WatchOptions(ctx, cfg, sc.logger)
		})
	}
	sc.logger.Info(ctx, "xcorrctl serving", slog.String("addr", lis.Addr().String()))
	return xrun.RunWithOptions(ctx, []xrun.Option{xrun.WithName("xcorrctl"), xrun.WithLogger(sc.logger)}, services...)
}

// echoView 演示服务的响应体。
type echoView struct {
	CorrelationID string    `json:"correlation_id"`
	TraceID       string    `json:"trace_id,omitempty"`
	SpanID        string    `json:"span_id,omitempty"`
	Downstream    *echoView `json:"downstream,omitempty"`
}

func echoHandler(p *xprop.Propagator, sc serveConfig) http.Handler {
	client := &http.Client{Transport: p.Transport(nil), Timeout: 10 * time.Second}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, _ := xctx.CorrelationID(ctx)
		view := echoView{CorrelationID: id, TraceID: xctx.TraceID(ctx), SpanID: xctx.SpanID(ctx)}

		if sc.downstream != "" {
			down, err := callDownstream(ctx, client, sc.downstream)
			if err != nil {
				sc.logger.Error(ctx, "downstream call failed", xlog.Err(err))
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			view.Downstream = down
		}

		w.Header().Set("Content-Type", "application/json")
		if err := writeJSON(w, view); err != nil {
			sc.logger.Warn(ctx, "write response failed", xlog.Err(err))
		}
	})
}

func callDownstream(ctx context.Context, client *http.Client, url string) (*echoView, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // 只读响应体

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downstream status %d", resp.StatusCode)
	}
	var v echoView
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// logObserver 在 span 结束时输出一条 Debug 日志。
type logObserver struct {
	logger xlog.Logger
}

func (o *logObserver) OnStart(*xspan.Span) {}

func (o *logObserver) OnStop(s *xspan.Span) {
	tc := s.Context()
	st, msg := s.Status()
	o.logger.Debug(context.Background(), "span finished",
		slog.String("name", s.Name()),
		slog.String("kind", s.Kind().String()),
		slog.String(xctx.KeyTraceID, tc.TraceID),
		slog.String(xctx.KeySpanID, tc.SpanID),
		slog.String("parent_span_id", tc.ParentSpanID),
		slog.String("status", st.String()),
		slog.String("status_message", msg),
		xlog.Duration(s.Duration()),
	)
}
