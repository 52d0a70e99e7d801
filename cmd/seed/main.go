package main

import (
	"context"
	"database/sql"
	_ "embed"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mancio76/OrgChartV2-sub001/internal/config"
	"github.com/mancio76/OrgChartV2-sub001/internal/repository"
	"github.com/mancio76/OrgChartV2-sub001/internal/seed"
	"github.com/mancio76/OrgChartV2-sub001/internal/versioning"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed schema.sql
var schemaSQL string

func main() {
	var applySchema bool
	var insertSample bool

	flag.BoolVar(&applySchema, "schema", false, "创建数据库表结构")
	flag.BoolVar(&insertSample, "sample", false, "插入示例组织架构数据")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	if !applySchema && !insertSample {
		slog.Error("未指定操作（-schema 或 -sample）")
		return
	}

	if applySchema {
		// pgx 的扩展协议不允许一次执行多条语句，因此按分号拆分后逐条执行
		for _, stmt := range strings.Split(schemaSQL, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}

			execCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.QueryTimeout)*time.Second)
			_, err := dbpool.ExecContext(execCtx, stmt)
			cancel()
			if err != nil {
				logger.Error("无法执行建表语句", slog.String("error", err.Error()))
				return
			}
		}
		slog.Info("数据库表结构创建成功")
	}

	if insertSample {
		repo := repository.NewRepository(cfg, dbpool)
		engine := versioning.NewEngine(cfg, repo, nil)
		seed.SeedSampleOrg(repo, engine)
	}
}
