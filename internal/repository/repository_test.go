package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"

	"github.com/langchou/ridegazer/internal/models"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *DB) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	return mock, NewWithPool(mock)
}

func fp(v float64) *float64 { return &v }

func TestMigrate(t *testing.T) {
	mock, db := newMock(t)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS refresh_runs`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS ride_summaries`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunRepositorySaveAndList(t *testing.T) {
	mock, db := newMock(t)
	defer mock.Close()
	repo := NewRunRepository(db)

	started := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	finished := started.Add(3 * time.Second)
	run := &models.RefreshRun{
		ID:              "4f6c3f1e-7a55-4c1b-9d7e-2f9a3c1d0b11",
		State:           "ready",
		StartedAt:       started,
		FinishedAt:      &finished,
		Partitions:      2,
		RideCount:       5,
		TotalDistanceKm: 12.5,
	}

	mock.ExpectExec(`INSERT INTO refresh_runs`).
		WithArgs(run.ID, "ready", started, &finished, 2, 5, 12.5, (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Save(context.Background(), run); err != nil {
		t.Fatalf("save: %v", err)
	}

	msg := "boom"
	mock.ExpectQuery(`SELECT id, state, started_at, finished_at, partitions, ride_count, total_distance_km, error\s+FROM refresh_runs`).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "state", "started_at", "finished_at", "partitions", "ride_count", "total_distance_km", "error"}).
			AddRow("b", "failed", finished, &finished, 2, 0, 0.0, &msg).
			AddRow(run.ID, "ready", started, &finished, 2, 5, 12.5, (*string)(nil)))

	runs, err := repo.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].State != "failed" || *runs[0].Error != "boom" || runs[1].RideCount != 5 {
		t.Fatalf("unexpected runs %+v", runs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRideRepositoryReplaceSummaries(t *testing.T) {
	mock, db := newMock(t)
	defer mock.Close()
	repo := NewRideRepository(db)

	summaries := []models.RideSummary{
		{Token: 1, Name: "morning", DirectoryToken: 0, Duration: fp(10.5), Date: "2023-01-01", Time: "00:00:00", Distance: fp(1.2), NumScenes: 2, NumSamples: 3},
		{Token: 1, Name: "evening", DirectoryToken: 1, NumScenes: 1},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM ride_summaries`).WillReturnResult(pgxmock.NewResult("DELETE", 4))
	mock.ExpectExec(`INSERT INTO ride_summaries`).
		WithArgs("run-1", 0, int64(1), "morning", fp(10.5), pgxmock.AnyArg(), pgxmock.AnyArg(), fp(1.2), 2, 3).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO ride_summaries`).
		WithArgs("run-1", 1, int64(1), "evening", (*float64)(nil), (*string)(nil), (*string)(nil), (*float64)(nil), 1, 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := repo.ReplaceSummaries(context.Background(), "run-1", summaries); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRideRepositoryReplaceSummariesRollsBack(t *testing.T) {
	mock, db := newMock(t)
	defer mock.Close()
	repo := NewRideRepository(db)

	insertErr := errors.New("insert failed")
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM ride_summaries`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO ride_summaries`).
		WithArgs("run-1", 0, int64(1), "a", (*float64)(nil), (*string)(nil), (*string)(nil), (*float64)(nil), 0, 0).
		WillReturnError(insertErr)
	mock.ExpectRollback()

	err := repo.ReplaceSummaries(context.Background(), "run-1", []models.RideSummary{{Token: 1, Name: "a"}})
	if !errors.Is(err, insertErr) {
		t.Fatalf("expected insert error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRideRepositoryList(t *testing.T) {
	mock, db := newMock(t)
	defer mock.Close()
	repo := NewRideRepository(db)

	date, clock := "2023-01-01", "00:00:00"
	mock.ExpectQuery(`SELECT token, name, directory_token`).
		WillReturnRows(pgxmock.NewRows([]string{"token", "name", "directory_token", "duration_sec", "ride_date", "ride_time", "distance_km", "num_scenes", "num_samples"}).
			AddRow(int64(1), "morning", 0, fp(10.5), &date, &clock, fp(1.2), 2, 3).
			AddRow(int64(2), "empty", 0, (*float64)(nil), (*string)(nil), (*string)(nil), (*float64)(nil), 1, 0))

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Date != "2023-01-01" || got[1].Duration != nil || got[1].Date != "" {
		t.Fatalf("unexpected summaries %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
