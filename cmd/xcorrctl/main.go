// xcorrctl 是 xcorr 关联传播库的命令行工具。
//
// 用法:
//
//	xcorrctl <命令> [命令参数]
//
// 命令:
//
//	gen [--kind uuid|sonyflake] [-n N]   生成 correlation id
//	validate <id>                        校验 correlation id 格式
//	parse <traceparent>                  解析 traceparent
//	decide [--header ...]                演示一次入站决策
//	serve [--addr ...]                   启动演示服务（一跳链路）
//
// 退出码:
//
//	0: 成功
//	1: 执行失败，或 validate/parse 的输入不合法
//	2: 参数错误
//
// 示例:
//
//	xcorrctl gen --kind sonyflake -n 3
//	xcorrctl parse 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//	xcorrctl decide --header "bad id" --validate --traceparent 00-...-01
//	xcorrctl serve --addr :8080 --config xcorr.yaml --downstream http://localhost:8081/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xcorr/pkg/lifecycle/xrun"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

// exitError 命令已完成输出，只需设置非零退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// createApp 创建 CLI 应用，输出写入 stdout。
func createApp(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "xcorrctl",
		Usage:   "correlation id 与 W3C traceparent 调试工具",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Writer:  stdout,
		Commands: []*cli.Command{
			createGenCommand(),
			createValidateCommand(),
			createParseCommand(),
			createDecideCommand(),
			createServeCommand(),
		},
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，由 run 统一映射退出码。
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	err := createApp(stdout).Run(context.Background(), args)
	if err == nil || errors.Is(err, xrun.ErrSignal) {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}
