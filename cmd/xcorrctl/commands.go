package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xcorr/pkg/config/xconf"
	"github.com/omeyang/xcorr/pkg/correlation/xcid"
	"github.com/omeyang/xcorr/pkg/correlation/xprop"
	"github.com/omeyang/xcorr/pkg/observability/xtrace"
)

// maxGenCount gen 命令单次生成上限。
const maxGenCount = 1000

func out(cmd *cli.Command) io.Writer {
	return cmd.Root().Writer
}

func createGenCommand() *cli.Command {
	return &cli.Command{
		Name:  "gen",
		Usage: "生成 correlation id",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "生成器: uuid 或 sonyflake", Value: xcid.GeneratorUUID},
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "生成数量", Value: 1},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			n := cmd.Int("count")
			if n < 1 || n > maxGenCount {
				return &usageError{msg: fmt.Sprintf("--count 必须在 1 到 %d 之间", maxGenCount)}
			}
			gen, err := xcid.NewGenerator(cmd.String("kind"))
			if err != nil {
				return &usageError{msg: err.Error()}
			}
			for range n {
				id, err := gen.Generate()
				if err != nil {
					return err
				}
				fmt.Fprintln(out(cmd), id)
			}
			return nil
		},
	}
}

func createValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "校验 correlation id（字母数字与 - _ 组成，不超过 128 字符）",
		ArgsUsage: "<id>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return &usageError{msg: "validate 需要且只接受一个参数"}
			}
			if err := xcid.Validate(cmd.Args().First()); err != nil {
				fmt.Fprintf(out(cmd), "invalid: %v\n", err)
				return &exitError{code: 1}
			}
			fmt.Fprintln(out(cmd), "valid")
			return nil
		},
	}
}

// traceparentView parse 命令的输出。
type traceparentView struct {
	TraceID    string `json:"trace_id"`
	SpanID     string `json:"span_id"`
	Sampled    bool   `json:"sampled"`
	Normalized string `json:"normalized"`
}

func createParseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "解析 W3C traceparent",
		ArgsUsage: "<traceparent>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return &usageError{msg: "parse 需要且只接受一个参数"}
			}
			tc, ok := xtrace.Parse(cmd.Args().First())
			if !ok {
				fmt.Fprintln(out(cmd), "invalid traceparent")
				return &exitError{code: 1}
			}
			return writeJSON(out(cmd), traceparentView{
				TraceID:    tc.TraceID,
				SpanID:     tc.SpanID,
				Sampled:    tc.Sampled,
				Normalized: xtrace.Format(tc),
			})
		},
	}
}

// decisionView decide 命令的输出。
type decisionView struct {
	CorrelationID string `json:"correlation_id"`
	Source        string `json:"source"`
	ParentKind    string `json:"parent_kind"`
	Traceparent   string `json:"traceparent,omitempty"`
	LegacyParent  string `json:"legacy_parent,omitempty"`
}

func createDecideCommand() *cli.Command {
	return &cli.Command{
		Name:  "decide",
		Usage: "演示一次入站决策",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "header", Usage: "入站关联头的值"},
			&cli.StringFlag{Name: "ambient", Usage: "context 中已有的 correlation id"},
			&cli.StringFlag{Name: "traceparent", Usage: "入站 traceparent"},
			&cli.StringFlag{Name: "request-id", Usage: "入站旧版 Request-Id"},
			&cli.BoolFlag{Name: "validate", Usage: "开启格式校验"},
			&cli.BoolFlag{Name: "always-new", Usage: "总是生成新 id"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "配置文件（correlation 段），覆盖以上开关"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			c := xprop.Config{Options: xprop.DefaultOptions(), Generator: xcid.GeneratorUUID}
			c.ValidateFormat = cmd.Bool("validate")
			c.AlwaysGenerateNew = cmd.Bool("always-new")
			if path := cmd.String("config"); path != "" {
				cfg, err := xconf.New(path)
				if err != nil {
					return err
				}
				if c, err = xprop.ParseConfig(cfg); err != nil {
					return err
				}
			}
			gen, err := xcid.NewGenerator(c.Generator)
			if err != nil {
				return err
			}

			in := xprop.Inbound{
				Traceparent:     cmd.String("traceparent"),
				LegacyRequestID: cmd.String("request-id"),
			}
			in.Header, in.HasHeader = cmd.String("header"), cmd.IsSet("header")
			in.Ambient, in.HasAmbient = cmd.String("ambient"), cmd.IsSet("ambient")

			d := xprop.DecideInbound(in, c.Options, xcid.Validator{Strict: c.ValidateFormat}, gen)
			legacy, _ := d.Parent.Legacy()
			return writeJSON(out(cmd), decisionView{
				CorrelationID: d.CorrelationID,
				Source:        d.Source.String(),
				ParentKind:    d.Parent.Kind().String(),
				Traceparent:   d.Parent.Traceparent(),
				LegacyParent:  legacy,
			})
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
