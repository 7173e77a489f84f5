// Package history хранение измерений датчиков в SQLite.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"smartcity-air/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound нет измерений
var ErrNotFound = errors.New("history: no readings")

// столбцы загрязнителей, допустимые в запросах рядов
var pollutantColumns = map[string]string{
	"PM25": "pm25",
	"PM10": "pm10",
	"NO2":  "no2",
	"O3":   "o3",
}

// Store хранилище измерений. Запись сериализуется: SQLite допускает
// одного писателя.
type Store struct {
	conn    *sql.DB
	writeMu sync.Mutex
}

// Open открывает базу и создает схему
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	slog.Info("history database ready", "path", path)
	return &Store{conn: conn}, nil
}

// Close закрывает базу
func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping проверяет доступность базы
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Insert сохраняет измерение, пустой ID заменяется на UUID
func (s *Store) Insert(ctx context.Context, r models.Reading) (models.Reading, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now().UTC()
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO readings (id, zone, recorded_at, pm25, pm10, no2, o3, aqi, temperature, humidity, wind, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Zone, r.RecordedAt.UnixMilli(), r.PM25, r.PM10, r.NO2, r.O3, r.AQI,
		r.Temperature, r.Humidity, r.Wind, r.Source)
	if err != nil {
		return r, fmt.Errorf("failed to insert reading: %w", err)
	}
	return r, nil
}

const readingColumns = `id, zone, recorded_at, pm25, pm10, no2, o3, aqi, temperature, humidity, wind, source`

// Latest последнее измерение зоны; "all" или пустая зона - по всем зонам
func (s *Store) Latest(ctx context.Context, zone string) (models.Reading, error) {
	query := `SELECT ` + readingColumns + ` FROM readings`
	var args []any
	if zone != "" && zone != "all" {
		query += ` WHERE zone = ?`
		args = append(args, zone)
	}
	query += ` ORDER BY recorded_at DESC LIMIT 1`

	var (
		r  models.Reading
		ms int64
	)
	err := s.conn.QueryRowContext(ctx, query, args...).Scan(
		&r.ID, &r.Zone, &ms, &r.PM25, &r.PM10, &r.NO2, &r.O3, &r.AQI,
		&r.Temperature, &r.Humidity, &r.Wind, &r.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("failed to query latest reading: %w", err)
	}
	r.RecordedAt = time.UnixMilli(ms).UTC()
	return r, nil
}

// SeriesPoint значение загрязнителя в момент измерения
type SeriesPoint struct {
	At    time.Time
	Value float64
}

// Series значения загрязнителя зоны начиная с since, по возрастанию времени.
// Для "all" значения усредняются по зонам в пределах одной минуты.
func (s *Store) Series(ctx context.Context, zone, pollutant string, since time.Time) ([]SeriesPoint, error) {
	col, ok := pollutantColumns[pollutant]
	if !ok {
		return nil, fmt.Errorf("unsupported pollutant %q", pollutant)
	}

	var (
		query string
		args  []any
	)
	if zone == "" || zone == "all" {
		query = `SELECT (recorded_at / 60000) * 60000 AS minute, AVG(` + col + `)
			FROM readings WHERE recorded_at >= ?
			GROUP BY minute ORDER BY minute`
		args = []any{since.UnixMilli()}
	} else {
		query = `SELECT recorded_at, ` + col + ` FROM readings
			WHERE zone = ? AND recorded_at >= ? ORDER BY recorded_at`
		args = []any{zone, since.UnixMilli()}
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	var out []SeriesPoint
	for rows.Next() {
		var (
			ms int64
			v  float64
		)
		if err := rows.Scan(&ms, &v); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		out = append(out, SeriesPoint{At: time.UnixMilli(ms).UTC(), Value: v})
	}
	return out, rows.Err()
}

// Cleanup удаляет измерения старше olderThan
func (s *Store) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.conn.ExecContext(ctx, `DELETE FROM readings WHERE recorded_at < ?`, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup readings: %w", err)
	}
	return res.RowsAffected()
}

// TableCounts число измерений всего и по зонам
func (s *Store) TableCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT zone, COUNT(*) FROM readings GROUP BY zone`)
	if err != nil {
		return nil, fmt.Errorf("failed to count readings: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{"total": 0}
	for rows.Next() {
		var (
			zone string
			n    int64
		)
		if err := rows.Scan(&zone, &n); err != nil {
			return nil, fmt.Errorf("failed to scan counts: %w", err)
		}
		counts[zone] = n
		counts["total"] += n
	}
	return counts, rows.Err()
}
