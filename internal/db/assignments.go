package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"transit-demand/internal/itinerary"
)

const schema = `
CREATE TABLE IF NOT EXISTS assignment_runs (
	run_id     UUID PRIMARY KEY,
	scenario   TEXT NOT NULL,
	persons    INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS assignments (
	run_id              UUID NOT NULL REFERENCES assignment_runs (run_id) ON DELETE CASCADE,
	person_id           TEXT NOT NULL,
	direction           TEXT NOT NULL,
	departure_time      DOUBLE PRECISION NOT NULL,
	line                TEXT NOT NULL,
	trip_id             TEXT NOT NULL,
	board_stop          TEXT NOT NULL,
	start_walk_distance DOUBLE PRECISION NOT NULL,
	start_walk_time     INTEGER NOT NULL,
	person_arrival      INTEGER NOT NULL,
	vehicle_departure   INTEGER NOT NULL,
	exit_stop           TEXT NOT NULL,
	vehicle_arrival     INTEGER NOT NULL,
	end_walk_distance   DOUBLE PRECISION NOT NULL,
	end_walk_time       INTEGER NOT NULL,
	total_time          DOUBLE PRECISION NOT NULL,
	score               DOUBLE PRECISION NOT NULL,
	seq                 BIGSERIAL,
	PRIMARY KEY (run_id, person_id, direction)
);
ALTER TABLE assignments ADD COLUMN IF NOT EXISTS seq BIGSERIAL;`

// assignmentColumns is the column order shared by insert and select.
var assignmentColumns = []string{
	"person_id", "direction", "departure_time", "line", "trip_id", "board_stop",
	"start_walk_distance", "start_walk_time", "person_arrival", "vehicle_departure",
	"exit_stop", "vehicle_arrival", "end_walk_distance", "end_walk_time", "total_time", "score",
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Run identifies one stored assignment batch.
type Run struct {
	ID       uuid.UUID
	Scenario string
	Persons  int
}

func NewRun(scenario string, persons int) Run {
	return Run{ID: uuid.New(), Scenario: scenario, Persons: persons}
}

func insertStatement() string {
	placeholders := make([]string, len(assignmentColumns)+1)
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO assignments (run_id, %s) VALUES (%s)",
		strings.Join(assignmentColumns, ", "), strings.Join(placeholders, ", "))
}

func assignmentArgs(runID uuid.UUID, a itinerary.Assignment) []any {
	return []any{
		runID.String(), a.PersonID, a.Direction, a.DepartureTime, a.Line, a.TripID, a.BoardStop,
		a.StartWalkDistance, a.StartWalkTime, a.PersonArrivalAtStop, a.VehicleDepartureStart,
		a.ExitStop, a.VehicleArrivalExit, a.EndWalkDistance, a.EndWalkTime, a.TotalTime, a.Score,
	}
}

// InsertAssignments stores the run and all of its records in one
// transaction. Either everything lands or nothing does.
func InsertAssignments(ctx context.Context, db *sql.DB, run Run, records ...[]itinerary.Assignment) (n int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO assignment_runs (run_id, scenario, persons) VALUES ($1, $2, $3)`,
		run.ID.String(), run.Scenario, run.Persons); err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertStatement())
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, set := range records {
		for _, a := range set {
			if _, err = stmt.ExecContext(ctx, assignmentArgs(run.ID, a)...); err != nil {
				return n, fmt.Errorf("insert %s/%s: %w", a.PersonID, a.Direction, err)
			}
			n++
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// LatestRun returns the most recent run stored for a scenario.
func LatestRun(ctx context.Context, db *sql.DB, scenario string) (Run, error) {
	q := `
SELECT run_id::text, scenario, persons
FROM assignment_runs
WHERE scenario = $1
ORDER BY created_at DESC
LIMIT 1`
	var (
		id  string
		run Run
	)
	if err := db.QueryRowContext(ctx, q, scenario).Scan(&id, &run.Scenario, &run.Persons); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("no assignment run stored for scenario %q", scenario)
		}
		return Run{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Run{}, fmt.Errorf("run id %q: %w", id, err)
	}
	run.ID = parsed
	return run, nil
}

// selectStatement reads a run in insertion order. Person ids such as "t_10"
// do not sort textually, so seq carries the order they were stored in.
func selectStatement() string {
	return fmt.Sprintf("SELECT %s FROM assignments WHERE run_id = $1 ORDER BY seq",
		strings.Join(assignmentColumns, ", "))
}

// LoadAssignments reads a run back split by direction, in the order it was
// inserted.
func LoadAssignments(ctx context.Context, db *sql.DB, runID uuid.UUID) (outbound, inbound []itinerary.Assignment, err error) {
	rows, err := db.QueryContext(ctx, selectStatement(), runID.String())
	if err != nil {
		return nil, nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a itinerary.Assignment
		if err := rows.Scan(
			&a.PersonID, &a.Direction, &a.DepartureTime, &a.Line, &a.TripID, &a.BoardStop,
			&a.StartWalkDistance, &a.StartWalkTime, &a.PersonArrivalAtStop, &a.VehicleDepartureStart,
			&a.ExitStop, &a.VehicleArrivalExit, &a.EndWalkDistance, &a.EndWalkTime, &a.TotalTime, &a.Score,
		); err != nil {
			return nil, nil, err
		}
		if a.Direction == itinerary.DirectionReturn {
			inbound = append(inbound, a)
		} else {
			outbound = append(outbound, a)
		}
	}
	return outbound, inbound, rows.Err()
}
