package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/objects-time/neural-mmo/internal/sim/realm"
)

// SQLiteIndex is a queryable read model of the tick journal. Writes are
// queued and applied by one goroutine; the journal stays the source of
// truth, so a full queue drops entries instead of stalling the realm.
type SQLiteIndex struct {
	db *sql.DB

	// mu orders WriteTick sends against Close closing ch.
	mu     sync.RWMutex
	closed bool
	ch     chan realm.TickLogEntry
	wg     sync.WaitGroup
	once   sync.Once

	dropTicks atomic.Uint64
	written   atomic.Uint64
}

type Stats struct {
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
	DropTickTotal uint64 `json:"drop_tick_total"`
	WrittenTotal  uint64 `json:"written_total"`
}

type Lifetime struct {
	ID        realm.EntityID `json:"id"`
	Pop       int            `json:"pop"`
	Name      string         `json:"name"`
	Color     string         `json:"color"`
	SpawnTick uint64         `json:"spawn_tick"`
	DeathTick *uint64        `json:"death_tick,omitempty"`
	DeathPos  *realm.Pos     `json:"death_pos,omitempty"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan realm.TickLogEntry, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			alive INTEGER NOT NULL,
			admitted INTEGER NOT NULL,
			refused INTEGER NOT NULL,
			actions INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			step_ms REAL NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS lifetimes (
			entity_id INTEGER PRIMARY KEY,
			pop INTEGER NOT NULL,
			name TEXT NOT NULL,
			color TEXT NOT NULL,
			spawn_tick INTEGER NOT NULL,
			death_tick INTEGER,
			death_r INTEGER,
			death_c INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_lifetimes_pop ON lifetimes(pop, spawn_tick);`,
		`CREATE TABLE IF NOT EXISTS actions (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			entity_id INTEGER NOT NULL,
			action TEXT NOT NULL,
			priority INTEGER NOT NULL,
			args_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_actions_entity_tick ON actions(entity_id, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteTick(entry realm.TickLogEntry) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	select {
	case s.ch <- entry:
	default:
		s.dropTicks.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTickTotal: s.dropTicks.Load(),
		WrittenTotal:  s.written.Load(),
	}
}

// UpsertConfig stores the applied configuration with its digest.
func (s *SQLiteIndex) UpsertConfig(cfg any) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rows := [][2]string{
		{"schema_version", "1"},
		{"config_json", string(b)},
		{"config_digest", hex.EncodeToString(sum[:])},
		{"updated_at", time.Now().UTC().Format(time.RFC3339Nano)},
	}
	for _, r := range rows {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`, r[0], r[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) Meta(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key=?`, key).Scan(&v)
	return v, err
}

// LastTick returns the highest indexed tick, or 0 when nothing is indexed.
func (s *SQLiteIndex) LastTick(ctx context.Context) (uint64, error) {
	var v sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(tick) FROM ticks`).Scan(&v); err != nil {
		return 0, err
	}
	return uint64(v.Int64), nil
}

func (s *SQLiteIndex) Lifetime(ctx context.Context, id realm.EntityID) (Lifetime, error) {
	row := s.db.QueryRowContext(ctx, `SELECT entity_id,pop,name,color,spawn_tick,death_tick,death_r,death_c FROM lifetimes WHERE entity_id=?`, int64(id))
	return scanLifetime(row)
}

// Lifetimes returns the most recent spawns first.
func (s *SQLiteIndex) Lifetimes(ctx context.Context, limit int) ([]Lifetime, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT entity_id,pop,name,color,spawn_tick,death_tick,death_r,death_c FROM lifetimes ORDER BY entity_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Lifetime
	for rows.Next() {
		l, err := scanLifetime(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLifetime(sc scanner) (Lifetime, error) {
	var (
		l      Lifetime
		id     int64
		spawn  int64
		death  sql.NullInt64
		deathR sql.NullInt64
		deathC sql.NullInt64
	)
	if err := sc.Scan(&id, &l.Pop, &l.Name, &l.Color, &spawn, &death, &deathR, &deathC); err != nil {
		return l, err
	}
	l.ID = realm.EntityID(id)
	l.SpawnTick = uint64(spawn)
	if death.Valid {
		t := uint64(death.Int64)
		l.DeathTick = &t
		l.DeathPos = &realm.Pos{R: int(deathR.Int64), C: int(deathC.Int64)}
	}
	return l, nil
}

// IsNotFound reports whether a lookup matched no row.
func IsNotFound(err error) bool { return errors.Is(err, sql.ErrNoRows) }

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,alive,admitted,refused,actions,deaths,step_ms,raw_json) VALUES(?,?,?,?,?,?,?,?)`)
	insertSpawn, _ := s.db.Prepare(`INSERT OR REPLACE INTO lifetimes(entity_id,pop,name,color,spawn_tick) VALUES(?,?,?,?,?)`)
	recordDeath, _ := s.db.Prepare(`UPDATE lifetimes SET death_tick=?, death_r=?, death_c=? WHERE entity_id=?`)
	insertAction, _ := s.db.Prepare(`INSERT OR REPLACE INTO actions(tick,seq,entity_id,action,priority,args_json) VALUES(?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertSpawn, recordDeath, insertAction} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	apply := func(e realm.TickLogEntry) error {
		raw, _ := json.Marshal(e)
		admitted := 0
		if e.Admitted != nil {
			admitted = 1
		}
		refused := 0
		if e.Refused {
			refused = 1
		}
		if _, err := tx.Stmt(insertTick).Exec(int64(e.Tick), e.Alive, admitted, refused, len(e.Actions), len(e.Dones), e.StepMS, string(raw)); err != nil {
			return err
		}
		opCount++
		if a := e.Admitted; a != nil {
			if _, err := tx.Stmt(insertSpawn).Exec(int64(a.ID), a.Pop, a.Name, a.Color, int64(e.Tick)); err != nil {
				return err
			}
			opCount++
		}
		for i, a := range e.Actions {
			args, _ := json.Marshal(a.Args)
			if a.Args == nil {
				args = []byte("[]")
			}
			if _, err := tx.Stmt(insertAction).Exec(int64(e.Tick), i, int64(a.ID), a.Action, a.Priority, string(args)); err != nil {
				return err
			}
			opCount++
		}
		for _, d := range e.Dones {
			if _, err := tx.Stmt(recordDeath).Exec(int64(e.Tick), d.Pos.R, d.Pos.C, int64(d.Serial.ID)); err != nil {
				return err
			}
			opCount++
		}
		return nil
	}

	for e := range s.ch {
		if insertTick == nil || insertSpawn == nil || recordDeath == nil || insertAction == nil {
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		if err := apply(e); err != nil {
			rollback()
			continue
		}
		s.written.Add(1)
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
