// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/mmeshcher/delivery-tracker/internal/model"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUserExists возвращается при попытке создать пользователя с уже существующим логином.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrOrderNotFound возвращается, если заявка на доставку не найдена.
	ErrOrderNotFound = errors.New("order not found")
	// ErrStoreUnavailable возвращается при временной недоступности хранилища; операцию можно повторить.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Если ошибка контекста — выходим сразу
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Ретраи полезны для Serialization Failure, Deadlocks и сетевых ошибок.
		retryable := isConnectionError(err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			retryable = pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
		}

		if !retryable || i == len(delays) {
			break
		}

		// Пауза между попытками прерывается отменой контекста
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delays[i]):
		}
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// wrapStoreError помечает сетевые ошибки и ошибки таймаута как ErrStoreUnavailable.
func wrapStoreError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || isConnectionError(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateUser создаёт нового пользователя с ролью user.
func (r *PostgresRepository) CreateUser(ctx context.Context, login string, passwordHash []byte) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (login, password_hash, role) VALUES ($1, $2, $3) RETURNING id`,
		login, passwordHash, string(model.RoleUser),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, login)
		}
		return 0, wrapStoreError("create user", err)
	}
	return id, nil
}

// GetUserByLogin возвращает пользователя по логину.
func (r *PostgresRepository) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, login, password_hash, role, created_at FROM users WHERE login = $1`,
		login,
	)

	var u model.User
	err := row.Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, wrapStoreError("get user by login", err)
	}

	return &u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, login, password_hash, role, created_at FROM users WHERE id = $1`,
		id,
	)

	var u model.User
	err := row.Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, wrapStoreError("get user by id", err)
	}

	return &u, nil
}

// CreateOrder сохраняет новую заявку на доставку и возвращает присвоенный ей идентификатор.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) (int64, error) {
	var id int64
	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO orders (user_id, description, zone, estimated_time, instructions, delivery_fee, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id`,
			o.UserID, o.Description, string(o.Zone), o.EstimatedTime, o.Instructions, o.DeliveryFee, string(o.Status), o.CreatedAt,
		).Scan(&id)
	})
	if err != nil {
		return 0, wrapStoreError("insert order", err)
	}
	return id, nil
}

// GetOrderByID возвращает заявку на доставку по идентификатору.
func (r *PostgresRepository) GetOrderByID(ctx context.Context, id int64) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, description, zone, estimated_time, instructions, delivery_fee, status, created_at
		 FROM orders
		 WHERE id = $1`,
		id,
	)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, wrapStoreError("get order", err)
	}

	return o, nil
}

// GetOrdersByUser возвращает заявки пользователя, новые первыми.
func (r *PostgresRepository) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, description, zone, estimated_time, instructions, delivery_fee, status, created_at
		 FROM orders
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, wrapStoreError("select orders by user", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// GetAllOrders возвращает все заявки, опционально ограниченные одним статусом, новые первыми.
func (r *PostgresRepository) GetAllOrders(ctx context.Context, status *model.OrderStatus) ([]model.Order, error) {
	var (
		rows pgx.Rows
		err  error
	)

	if status != nil {
		rows, err = r.pool.Query(ctx,
			`SELECT id, user_id, description, zone, estimated_time, instructions, delivery_fee, status, created_at
			 FROM orders
			 WHERE status = $1
			 ORDER BY created_at DESC, id DESC`,
			string(*status),
		)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT id, user_id, description, zone, estimated_time, instructions, delivery_fee, status, created_at
			 FROM orders
			 ORDER BY created_at DESC, id DESC`,
		)
	}
	if err != nil {
		return nil, wrapStoreError("select all orders", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

// UpdateOrderStatusIfCurrent обновляет статус заявки только если текущий статус совпадает с ожидаемым.
// Возвращает false, если строка не была обновлена: статус уже изменён конкурентным вызовом.
func (r *PostgresRepository) UpdateOrderStatusIfCurrent(ctx context.Context, id int64, expected, next model.OrderStatus) (bool, error) {
	var updated bool
	err := r.withRetry(ctx, func() error {
		cmdTag, execErr := r.pool.Exec(ctx,
			`UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`,
			id, string(expected), string(next),
		)
		if execErr != nil {
			return execErr
		}
		updated = cmdTag.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return false, wrapStoreError("update order status", err)
	}
	return updated, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o      model.Order
		zone   string
		status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.Description, &zone, &o.EstimatedTime, &o.Instructions, &o.DeliveryFee, &status, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Zone = model.Zone(zone)
	o.Status = model.OrderStatus(status)
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapStoreError("rows error", err)
	}

	return orders, nil
}
