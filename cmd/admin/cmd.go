package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"gradff/backend/config"
	"gradff/backend/internal/dto"
	"gradff/backend/internal/repository"
	"gradff/backend/internal/service"
	"gradff/backend/pkg/database"
	applogger "gradff/backend/pkg/logger"
)

var (
	readPasswordFunc = term.ReadPassword // 测试中替换

	errShortPassword    = errors.New("密码至少 8 个字符")
	errPasswordMismatch = errors.New("两次输入的密码不一致")
)

// commandLine 命令依赖；字段为 nil 时在 PersistentPreRunE 中按配置创建
type commandLine struct {
	cfgPath string
	out     io.Writer

	authSvc service.AuthService
	migrate func() error
}

func newRootCmd(cli *commandLine) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "gradff 运维工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cli.out == nil {
				cli.out = cmd.OutOrStdout()
			}
			if cli.authSvc != nil && cli.migrate != nil {
				return nil
			}
			return cli.setup()
		},
	}
	root.PersistentFlags().StringVarP(&cli.cfgPath, "config", "c", "", "配置文件路径")

	root.AddCommand(newCreateUserCmd(cli), newMigrateCmd(cli))
	return root
}

// setup 连接数据库并组装所需服务
func (cli *commandLine) setup() error {
	cfg, err := config.Load(cli.cfgPath)
	if err != nil {
		return err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	if cli.migrate == nil {
		cli.migrate = func() error { return database.RunMigrations(sqlDB, logger) }
	}
	if cli.authSvc == nil {
		// 注册不需要签发 Token
		cli.authSvc = service.NewAuthService(repository.NewRepository(db), nil, nil, logger.Named("admin"))
	}
	return nil
}

// ── create-user ──

func newCreateUserCmd(cli *commandLine) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "创建工作人员账号，密码从终端读取",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			user, err := cli.authSvc.Register(cmd.Context(), &dto.RegisterRequest{
				Name:     name,
				Email:    email,
				Password: pwd,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "已创建用户 %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "姓名")
	cmd.Flags().StringVar(&email, "email", "", "登录邮箱")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password: ")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(string(pwd))) < 8 {
		return "", errShortPassword
	}

	fmt.Fprint(cli.out, "Confirm password: ")
	confirm, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if string(confirm) != string(pwd) {
		return "", errPasswordMismatch
	}
	return string(pwd), nil
}

// ── migrate ──

func newMigrateCmd(cli *commandLine) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行内嵌的数据库迁移",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := cli.migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cli.out, "迁移完成")
			return nil
		},
	}
}
