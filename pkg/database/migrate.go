package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// 与其他服务共用数据库时避免和默认的 schema_migrations 冲突
const migrationsTable = "maces_schema_migrations"

// RunMigrations 建立签到文档表 attendance_records
// 表结构：document_id(uuid) + body(jsonb) + 时间戳，body 上有 GIN 索引，
// 另按 (date, host_park_id) 建表达式索引服务于按分会/日期的批量提交
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("签到表迁移失败: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Warn("未找到任何签到表迁移")
	case err != nil:
		return fmt.Errorf("读取迁移版本失败: %w", err)
	case dirty:
		return fmt.Errorf("签到表迁移版本 %d 处于 dirty 状态，需人工修复", version)
	default:
		logger.Info("签到表迁移完成",
			zap.Uint("version", version),
			zap.String("migrations_table", migrationsTable),
		)
	}
	return nil
}

// newMigrator 以内嵌 SQL 为源、现有连接为目标构造迁移器
func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("加载内嵌迁移失败: %w", err)
	}
	target, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return nil, fmt.Errorf("创建 postgres 迁移目标失败: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", target)
	if err != nil {
		return nil, fmt.Errorf("初始化迁移器失败: %w", err)
	}
	return m, nil
}
