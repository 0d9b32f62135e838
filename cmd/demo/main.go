package main

import (
	"fmt"
	"os"

	"github.com/NARUBROWN/bridge"
	"github.com/NARUBROWN/bridge/internal/config"
	"github.com/NARUBROWN/bridge/internal/logging"
	"github.com/spf13/cobra"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "bridge-demo",
	Short:         "레거시 호스트 위에서 미들웨어 파이프라인을 실행하는 데모 서버",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "데모 서버를 시작합니다",
	Long: `설정 파일과 BRIDGE_* 환경 변수를 읽어 데모 서버를 시작합니다.

Examples:
  # 기본 설정으로 시작
  bridge-demo serve

  # 설정 파일 지정
  bridge-demo serve --config bridge.yaml

  # 주소만 바꾸기
  BRIDGE_SERVER_ADDRESS=:9090 bridge-demo serve`,
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "버전을 출력합니다",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "설정 파일 경로 (YAML)")
	rootCmd.AddCommand(serveCmd, versionCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.Init(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	app := bridge.New()
	app.Logger(logger)

	counter := NewCounter()

	// 경로 전체를 파이프라인이 처리합니다.
	app.Handler("/handler/counter", counterDefinition("counter-handler", "/handler/counter", counter))
	// 모든 요청 앞에서 실행되고, 처리하지 않은 요청은 호스트 핸들러로 넘어갑니다.
	app.Module(counterDefinition("counter-module", "/module/counter", counter))
	app.LegacyHandler("/", statusHandler{})

	orders := NewOrderConsumer()
	for _, topic := range cfg.ConsumerTopics() {
		app.Consumer(topic, orders.OnOrderCreated)
	}

	return app.Run(cfg.BootOptions())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
