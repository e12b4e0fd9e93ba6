// remote-task 작업 명세 하나를 원격 클러스터 스케줄러에 제출하고, 완료될 때까지 상태를 추적한 뒤
// 추적 기록(JSON)을 표준 출력으로 내보내는 명령줄 도구입니다.
//
//	remote-task --config remote-task.json --descriptor job.json
//
// 종료 코드는 작업의 종료 코드를 따릅니다. 종료 코드를 알 수 없거나 스케줄러가 실패를 보고하면 1입니다.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/darkkaiser/remote-task/internal/config"
	"github.com/darkkaiser/remote-task/internal/pkg/version"
	"github.com/spf13/cobra"
)

func main() {
	// SIGINT/SIGTERM을 받으면 컨텍스트가 취소되고, 실행 중인 작업에 종료를 요청한다.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(execute(ctx, newRootCommand(), os.Args[1:]))
}

// execute 명령을 실행하고 프로세스 종료 코드를 반환합니다.
func execute(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "[FATAL] %v\n", err)
	return 1
}

func newRootCommand() *cobra.Command {
	opts := runOptions{
		configFile: config.DefaultFilename,
	}

	cmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "원격 클러스터 스케줄러에 작업을 제출하고 완료될 때까지 추적합니다",
		Version:       version.Get().String(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", opts.configFile, "애플리케이션 설정 파일 경로")
	flags.StringVarP(&opts.descriptorFile, "descriptor", "d", "", "제출할 작업 명세(JSON) 파일 경로")
	flags.StringVar(&opts.logDir, "log-dir", "", "로그 파일 디렉토리 (기본값: logs)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "스케줄러에 접속하지 않고 메모리 클라이언트로 생명주기만 시험합니다")
	_ = cmd.MarkFlagRequired("descriptor")

	return cmd
}

// exitError 작업이 실패로 끝났을 때 프로세스 종료 코드를 전달합니다.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("작업이 실패로 종료되었습니다 (exit code: %d)", e.code)
}
