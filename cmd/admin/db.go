package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// dbCmd runs canned queries against the read model that the indexdb
// package does not expose.
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	realmID := fs.String("realm", "realm_0", "realm id (ignored with -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	entityID := fs.Uint64("entity", 0, "entity id filter (actions)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "ticks"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	if *limit <= 0 {
		*limit = 20
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "realms", *realmID, "index", "realm.sqlite")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	switch q {
	case "ticks":
		rows, err := db.Query(`SELECT tick,alive,admitted,refused,actions,deaths,step_ms FROM ticks ORDER BY tick DESC LIMIT ?`, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick     int64   `json:"tick"`
				Alive    int     `json:"alive"`
				Admitted int     `json:"admitted"`
				Refused  int     `json:"refused"`
				Actions  int     `json:"actions"`
				Deaths   int     `json:"deaths"`
				StepMS   float64 `json:"step_ms"`
			}
			if err := rows.Scan(&r.Tick, &r.Alive, &r.Admitted, &r.Refused, &r.Actions, &r.Deaths, &r.StepMS); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		exitOnRowsErr(rows)

	case "actions":
		query := `SELECT tick,seq,entity_id,action,priority,args_json FROM actions ORDER BY tick DESC, seq LIMIT ?`
		qargs := []any{*limit}
		if *entityID != 0 {
			query = `SELECT tick,seq,entity_id,action,priority,args_json FROM actions WHERE entity_id=? ORDER BY tick DESC, seq LIMIT ?`
			qargs = []any{int64(*entityID), *limit}
		}
		rows, err := db.Query(query, qargs...)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				r struct {
					Tick     int64           `json:"tick"`
					Seq      int             `json:"seq"`
					EntityID int64           `json:"entity_id"`
					Action   string          `json:"action"`
					Priority int             `json:"priority"`
					Args     json.RawMessage `json:"args"`
				}
				args string
			)
			if err := rows.Scan(&r.Tick, &r.Seq, &r.EntityID, &r.Action, &r.Priority, &args); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			r.Args = json.RawMessage(args)
			printJSON(r)
		}
		exitOnRowsErr(rows)

	case "populations":
		rows, err := db.Query(`SELECT pop, COUNT(*), SUM(CASE WHEN death_tick IS NULL THEN 1 ELSE 0 END), AVG(death_tick - spawn_tick) FROM lifetimes GROUP BY pop ORDER BY pop`)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				r struct {
					Pop          int     `json:"pop"`
					Spawned      int     `json:"spawned"`
					Alive        int     `json:"alive"`
					MeanLifetime float64 `json:"mean_lifetime_ticks"`
				}
				mean sql.NullFloat64
			)
			if err := rows.Scan(&r.Pop, &r.Spawned, &r.Alive, &mean); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			r.MeanLifetime = mean.Float64
			printJSON(r)
		}
		exitOnRowsErr(rows)

	default:
		fmt.Fprintf(os.Stderr, "unknown query %q (ticks|actions|populations)\n", q)
		os.Exit(2)
	}
}

func exitOnRowsErr(rows *sql.Rows) {
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	b, _ := json.Marshal(v)
	fmt.Println(string(b))
}
