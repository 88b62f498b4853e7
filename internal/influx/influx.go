// Package influx writes per-turn strategic metrics to InfluxDB, falling back
// to a gzipped line-protocol file when the server is unreachable.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/wopr-sim/wopr/internal/config"
	"github.com/wopr-sim/wopr/pkg/core"
)

const (
	// MeasurementSide holds one point per side per turn.
	MeasurementSide = "wopr_side"
	// MeasurementTurn holds one point per turn.
	MeasurementTurn = "wopr_turn"
	// MeasurementRegion holds one point per damaged region per turn.
	MeasurementRegion = "wopr_region"
)

// ErrDisabled is returned by Connect when influx is turned off.
var ErrDisabled = errors.New("influx is disabled")

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client  influxdb2.Client
	Writer  influxdb2_api.WriteAPI
	IsValid bool

	cfg          config.InfluxConfig
	logger       *slog.Logger
	backupFile   *os.File
	backupWriter *gzip.Writer
	mu           sync.Mutex
}

// NewManager creates a new InfluxDB manager.
func NewManager(cfg config.InfluxConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{cfg: cfg, logger: logger}
}

// Connect establishes a connection to InfluxDB. If the server does not
// answer a ping, points go to the backup file instead.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	m.Client = influxdb2.NewClientWithOptions(
		m.cfg.URL,
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	running, err := m.Client.Ping(pingCtx)
	if err != nil || !running {
		m.IsValid = false
		m.logger.Warn("InfluxDB unreachable, writing to backup file", "url", m.cfg.URL, "backupPath", m.cfg.BackupPath, "error", err)
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}

	m.Writer = m.Client.WriteAPI(m.cfg.Org, m.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			m.logger.Error("Error sending data to InfluxDB", "bucket", m.cfg.Bucket, "error", writeErr)
		}
	}(m.Writer.Errors())

	m.IsValid = true
	m.logger.Info("InfluxDB client initialized", "url", m.cfg.URL, "bucket", m.cfg.Bucket)
	return nil
}

func (m *Manager) openBackup() error {
	if m.backupWriter != nil {
		return nil
	}
	if m.cfg.BackupPath == "" {
		return fmt.Errorf("influx unreachable and no backup path configured")
	}
	if err := os.MkdirAll(filepath.Dir(m.cfg.BackupPath), 0755); err != nil {
		return fmt.Errorf("error creating backup directory: %v", err)
	}
	file, err := os.OpenFile(m.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %v", err)
	}
	m.backupFile = file
	m.backupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgName := m.cfg.Org

	// ensure org exists
	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.logger.Info("Organization not found, creating", "org", orgName)
		influxOrg, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			return fmt.Errorf("error creating organization %s: %w", orgName, err)
		}
	}

	// ensure bucket exists with 90 day retention
	if _, err = m.Client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err != nil {
		m.logger.Info("Bucket not found, creating", "bucket", m.cfg.Bucket)

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, m.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 90, // 90 days
		})
		if err != nil {
			return fmt.Errorf("error creating bucket %s: %w", m.cfg.Bucket, err)
		}
	}

	return nil
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsValid {
		m.Writer.WritePoint(point)
		return nil
	}
	if m.backupWriter == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}

	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if !strings.HasSuffix(lineProtocol, "\n") {
		lineProtocol += "\n"
	}
	if _, err := m.backupWriter.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %s", err)
	}
	return nil
}

// WriteTurn writes every point of a turn snapshot.
func (m *Manager) WriteTurn(rec core.TurnRecord, at time.Time) error {
	var errs []error
	for _, p := range TurnPoints(rec, at) {
		errs = append(errs, m.WritePoint(p))
	}
	return errors.Join(errs...)
}

// Close flushes pending writes and closes the backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}
	var err error
	if m.backupWriter != nil {
		err = errors.Join(m.backupWriter.Close(), m.backupFile.Close())
		m.backupWriter = nil
		m.backupFile = nil
	}
	return err
}

// TurnPoints converts a turn snapshot into points. Regions without damage
// are skipped.
func TurnPoints(rec core.TurnRecord, at time.Time) []*influxdb2_write.Point {
	gameID := rec.GameID.String()
	points := make([]*influxdb2_write.Point, 0, 1+len(rec.Sides)+len(rec.Regions))

	points = append(points, influxdb2.NewPoint(MeasurementTurn,
		map[string]string{"game_id": gameID},
		map[string]interface{}{
			"turn":          rec.Turn,
			"defcon":        rec.Defcon,
			"tension":       rec.Tension,
			"ai_aggression": rec.AIAggression,
			"inaction":      rec.Inaction,
			"ai_state":      rec.AIState,
		},
		at))

	for _, s := range rec.Sides {
		points = append(points, influxdb2.NewPoint(MeasurementSide,
			map[string]string{"game_id": gameID, "side": s.Side},
			map[string]interface{}{
				"turn":          rec.Turn,
				"icbms":         s.ICBMs,
				"slbms":         s.SLBMs,
				"bombers":       s.Bombers,
				"interceptors":  s.Interceptors,
				"satellites":    s.Satellites,
				"in_flight":     s.InFlight,
				"population":    s.Population,
				"casualties":    s.Casualties,
				"industry":      s.Industry,
				"command_nodes": s.CommandNodes,
				"launched":      s.Launched,
				"intercepted":   s.Intercepted,
				"hits":          s.Hits,
			},
			at))
	}

	for _, r := range rec.Regions {
		if r.Damage <= 0 {
			continue
		}
		points = append(points, influxdb2.NewPoint(MeasurementRegion,
			map[string]string{"game_id": gameID, "region": r.Key, "side": r.Side},
			map[string]interface{}{
				"turn":   rec.Turn,
				"damage": r.Damage,
				"silos":  r.Silos,
				"subs":   r.Subs,
			},
			at))
	}

	return points
}
