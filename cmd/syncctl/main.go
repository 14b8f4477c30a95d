package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"shopify_split_v1_202610/internal/bootstrap"
	"shopify_split_v1_202610/internal/service"
)

const dateLayout = "2006-01-02"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("警告: 读取 .env 失败: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	configFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config.yaml 所在目录"}
	}
	instanceFlag := func() cli.Flag {
		return &cli.Int64SliceFlag{Name: "instance", Aliases: []string{"i"}, Usage: "店铺 ID，可重复；为空表示全部启用店铺"}
	}
	exportFlags := func() []cli.Flag {
		return []cli.Flag{configFlag(), instanceFlag(), &cli.BoolFlag{Name: "update", Usage: "已存在于远端的记录执行更新"}}
	}
	importFlags := func() []cli.Flag {
		return []cli.Flag{
			configFlag(),
			instanceFlag(),
			&cli.BoolFlag{Name: "skip-existing", Usage: "跳过本地已存在的记录"},
			&cli.StringFlag{Name: "from", Usage: "起始日期 (YYYY-MM-DD 或 RFC3339)，为空时使用水位线"},
			&cli.StringFlag{Name: "to", Usage: "截止日期 (YYYY-MM-DD 或 RFC3339)，指定时不推进水位线"},
		}
	}

	return &cli.App{
		Name:  "syncctl",
		Usage: "Shopify 同步命令行",
		Commands: []*cli.Command{
			{
				Name:  "export-products",
				Usage: "导出商品 (按店铺配置拆分颜色)",
				Flags: exportFlags(),
				Action: withDeps(func(ctx context.Context, c *cli.Context, deps *bootstrap.Dependencies) ([]int64, error) {
					return deps.Services.Product.ExportProducts(ctx, c.Int64Slice("instance"), c.Bool("update"))
				}),
			},
			{
				Name:  "import-products",
				Usage: "导入远端商品映射",
				Flags: importFlags(),
				Action: withDeps(func(ctx context.Context, c *cli.Context, deps *bootstrap.Dependencies) ([]int64, error) {
					opts, err := importOptions(c)
					if err != nil {
						return nil, err
					}
					return deps.Services.Product.ImportProducts(ctx, opts)
				}),
			},
			{
				Name:  "import-customers",
				Usage: "导入客户",
				Flags: importFlags(),
				Action: withDeps(func(ctx context.Context, c *cli.Context, deps *bootstrap.Dependencies) ([]int64, error) {
					opts, err := importOptions(c)
					if err != nil {
						return nil, err
					}
					return deps.Services.Customer.ImportCustomers(ctx, opts)
				}),
			},
			{
				Name:  "export-customers",
				Usage: "导出客户",
				Flags: exportFlags(),
				Action: withDeps(func(ctx context.Context, c *cli.Context, deps *bootstrap.Dependencies) ([]int64, error) {
					return deps.Services.Customer.ExportCustomers(ctx, c.Int64Slice("instance"), c.Bool("update"))
				}),
			},
			{
				Name:  "import-orders",
				Usage: "导入草稿订单与订单",
				Flags: importFlags(),
				Action: withDeps(func(ctx context.Context, c *cli.Context, deps *bootstrap.Dependencies) ([]int64, error) {
					opts, err := importOptions(c)
					if err != nil {
						return nil, err
					}
					return deps.Services.Order.ImportOrders(ctx, opts)
				}),
			},
		},
	}
}

type runFunc func(ctx context.Context, c *cli.Context, deps *bootstrap.Dependencies) ([]int64, error)

// withDeps 初始化依赖、执行一次同步并打印涉及的记录 ID
func withDeps(fn runFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		var paths []string
		if dir := c.String("config"); dir != "" {
			paths = append(paths, dir)
		}
		deps, err := bootstrap.Init(paths...)
		if err != nil {
			return err
		}
		defer deps.Logger.Sync()

		start := time.Now()
		ids, err := fn(c.Context, c, deps)
		deps.Logger.Info("命令执行结束",
			zap.String("command", c.Command.Name),
			zap.Int("records", len(ids)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		fmt.Fprintf(c.App.Writer, "%s: %d 条记录 %v\n", c.Command.Name, len(ids), ids)
		return nil
	}
}

func importOptions(c *cli.Context) (service.ImportOptions, error) {
	opts := service.ImportOptions{
		InstanceIDs:  c.Int64Slice("instance"),
		SkipExisting: c.Bool("skip-existing"),
	}
	var err error
	if opts.FromDate, err = parseDate(c.String("from")); err != nil {
		return opts, err
	}
	if opts.ToDate, err = parseDate(c.String("to")); err != nil {
		return opts, err
	}
	if opts.FromDate != nil && opts.ToDate != nil && opts.ToDate.Before(*opts.FromDate) {
		return opts, fmt.Errorf("--to 不能早于 --from")
	}
	return opts, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("无法解析日期 %q: %w", s, err)
	}
	return &t, nil
}
