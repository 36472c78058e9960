package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hr-onboarding/employee-wizard/backend/internal/config"
	"github.com/hr-onboarding/employee-wizard/backend/internal/domain"
	"github.com/hr-onboarding/employee-wizard/backend/internal/logging"
	"github.com/hr-onboarding/employee-wizard/backend/internal/onboarding"
	"github.com/hr-onboarding/employee-wizard/backend/internal/recordstore"
	"github.com/hr-onboarding/employee-wizard/backend/internal/tui"
)

func main() {
	var role string
	var logFile string

	flag.StringVar(&role, "role", string(domain.RoleAdmin), "向导角色 (admin: 从基本信息开始, ops: 只填写详细信息)")
	flag.StringVar(&logFile, "log", "wizard.log", "日志文件，终端界面运行时日志不能写到标准输出")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "无法读取配置文件:", err)
		os.Exit(1)
	}

	/**********************************************
	 * 创建 logger，日志写入文件
	 **********************************************/
	f, err := tea.LogToFile(logFile, "wizard")
	if err != nil {
		fmt.Fprintln(os.Stderr, "无法打开日志文件:", err)
		os.Exit(1)
	}
	defer f.Close()

	logger := logging.New(f, cfg.LogLevel)
	slog.SetDefault(logger)

	/**********************************************
	 * 组装向导
	 **********************************************/
	records := recordstore.New(
		cfg.RecordStore.BasicInfoURL,
		cfg.RecordStore.DetailsURL,
		time.Duration(cfg.RecordStore.RequestTimeout)*time.Second,
	)
	pipeline := onboarding.New(records, time.Duration(cfg.Onboarding.Pacing)*time.Millisecond)

	model := tui.New(records, pipeline, tui.Options{
		Role:        domain.OperatorRole(role),
		QuietPeriod: time.Duration(cfg.Suggest.QuietPeriod) * time.Millisecond,
	})
	defer model.Close()

	logger.Info("启动入职向导", "role", role, "basicInfoURL", cfg.RecordStore.BasicInfoURL, "detailsURL", cfg.RecordStore.DetailsURL)

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("向导异常退出", "error", err)
		fmt.Fprintln(os.Stderr, "向导异常退出:", err)
		os.Exit(1)
	}
}
