package repository_test

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/godilite/energy-dashboard/internal/repository"
	"github.com/godilite/energy-dashboard/internal/repository/models"
	dbbuilder "github.com/godilite/energy-dashboard/pkg/database"
)

func setupTestRepo(t *testing.T) *repository.DeviceRepository {
	t.Helper()

	db, err := dbbuilder.New(context.Background(),
		dbbuilder.WithDriver("sqlite3"),
		dbbuilder.WithDataSource(":memory:"),
		dbbuilder.WithMigrations(repository.Migrate),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewDeviceRepository(db)
	n, err := repo.Seed(context.Background())
	require.NoError(t, err)
	require.Equal(t, len(repository.DefaultDevices), n)
	return repo
}

func TestDeviceRepository_Integration(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)

	t.Run("Seed is a no-op on a populated table", func(t *testing.T) {
		n, err := repo.Seed(ctx)
		require.NoError(t, err)
		require.Equal(t, 0, n)
	})

	t.Run("ListDevices", func(t *testing.T) {
		devices, err := repo.ListDevices(ctx)
		require.NoError(t, err)
		require.Len(t, devices, len(repository.DefaultDevices))

		require.Equal(t, "Living Room Lights", devices[0].Name)
		require.False(t, devices[0].Status)
		require.Nil(t, devices[0].Setpoint)

		var thermostat models.Device
		for _, d := range devices {
			if d.Type == "thermostat" {
				thermostat = d
			}
		}
		require.NotNil(t, thermostat.Setpoint)
		require.Equal(t, 22.0, *thermostat.Setpoint)
	})

	t.Run("UpdateStatus and GetDevice", func(t *testing.T) {
		require.NoError(t, repo.UpdateStatus(ctx, 1, true))

		d, err := repo.GetDevice(ctx, 1)
		require.NoError(t, err)
		require.True(t, d.Status)
	})

	t.Run("ShiftSetpoint", func(t *testing.T) {
		d, err := repo.ShiftSetpoint(ctx, 4, 1.5, 16, 30)
		require.NoError(t, err)
		require.NotNil(t, d.Setpoint)
		require.Equal(t, 23.5, *d.Setpoint)

		d, err = repo.GetDevice(ctx, 4)
		require.NoError(t, err)
		require.Equal(t, 23.5, *d.Setpoint)
	})

	t.Run("ShiftSetpoint leaves the row alone when refused", func(t *testing.T) {
		d, err := repo.ShiftSetpoint(ctx, 4, 7, 16, 30)
		require.ErrorIs(t, err, repository.ErrOutOfBounds)
		require.Equal(t, 23.5, *d.Setpoint)

		_, err = repo.ShiftSetpoint(ctx, 1, 1, 16, 30)
		require.ErrorIs(t, err, repository.ErrNoSetpoint)

		d, err = repo.GetDevice(ctx, 4)
		require.NoError(t, err)
		require.Equal(t, 23.5, *d.Setpoint)
	})

	t.Run("unknown device", func(t *testing.T) {
		_, err := repo.GetDevice(ctx, 999)
		require.ErrorIs(t, err, repository.ErrNotFound)

		require.ErrorIs(t, repo.UpdateStatus(ctx, 999, true), repository.ErrNotFound)
		_, err = repo.ShiftSetpoint(ctx, 999, 1, 16, 30)
		require.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestShiftSetpoint_ConcurrentShiftsAllLand(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)

	const shifts = 8
	var g errgroup.Group
	for i := 0; i < shifts; i++ {
		g.Go(func() error {
			_, err := repo.ShiftSetpoint(ctx, 4, 0.5, 16, 30)
			return err
		})
	}
	require.NoError(t, g.Wait())

	d, err := repo.GetDevice(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, 22.0+shifts*0.5, *d.Setpoint)
}

func TestUsageReadings_Integration(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t)

	base := time.Date(2025, 10, 18, 10, 0, 0, 0, time.UTC)
	readings := []struct {
		device int64
		value  float64
		offset time.Duration
	}{
		{1, 0.25, 0},
		{1, 0.5, time.Hour},
		{2, 1.75, 2 * time.Hour},
		{1, 0.4, 48 * time.Hour},
	}
	for _, r := range readings {
		id, err := repo.InsertUsage(ctx, models.UsageReading{
			DeviceID:   r.device,
			RecordedAt: base.Add(r.offset),
			UsageValue: r.value,
		})
		require.NoError(t, err)
		require.Positive(t, id)
	}

	t.Run("UsageForDevice filters by device and window", func(t *testing.T) {
		got, err := repo.UsageForDevice(ctx, 1, base.Add(-time.Minute), base.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, 0.25, got[0].UsageValue)
		require.Equal(t, 0.5, got[1].UsageValue)
		require.True(t, got[0].RecordedAt.Equal(base))
	})

	t.Run("window bounds are inclusive", func(t *testing.T) {
		got, err := repo.UsageForDevice(ctx, 1, base, base.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 2)
	})

	t.Run("TotalUsage", func(t *testing.T) {
		total, err := repo.TotalUsage(ctx, base.Add(-time.Minute), base.Add(24*time.Hour))
		require.NoError(t, err)
		require.Equal(t, int64(3), total.Count)
		require.InDelta(t, 2.5, total.Total, 1e-9)
	})

	t.Run("TotalUsage on an empty window", func(t *testing.T) {
		total, err := repo.TotalUsage(ctx, base.AddDate(-1, 0, 0), base.AddDate(-1, 0, 1))
		require.NoError(t, err)
		require.Equal(t, int64(0), total.Count)
		require.Equal(t, 0.0, total.Total)
	})
}
