package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/ridegazer/internal/config"
	"github.com/langchou/ridegazer/internal/models"
	"github.com/langchou/ridegazer/internal/state"
	"github.com/langchou/ridegazer/internal/telemetry"
	"github.com/langchou/ridegazer/pkg/ws"
)

// ErrNotReady 尚未成功加载任何数据集
var ErrNotReady = errors.New("dataset not loaded yet")

// statusRunLimit /dashboard/status 返回的历史记录条数
const statusRunLimit = 10

// RunStore 刷新记录存储
type RunStore interface {
	Save(ctx context.Context, run *models.RefreshRun) error
	List(ctx context.Context, limit int) ([]*models.RefreshRun, error)
}

// SummaryStore 骑行汇总存储
type SummaryStore interface {
	ReplaceSummaries(ctx context.Context, runID string, summaries []models.RideSummary) error
	List(ctx context.Context) ([]models.RideSummary, error)
}

// Notifier 刷新结果推送
type Notifier interface {
	BroadcastMessage(msgType string, data interface{})
}

// Status 刷新状态
type Status struct {
	*state.RefreshState
	Ready    bool                 `json:"ready"`
	NumRides int                  `json:"num_rides"`
	BuiltAt  *time.Time           `json:"built_at,omitempty"`
	LastRun  *models.RefreshRun   `json:"last_run,omitempty"`
	Runs     []*models.RefreshRun `json:"runs,omitempty"`
}

// RefreshedEvent dataset_refreshed 消息内容
type RefreshedEvent struct {
	RunID           string    `json:"run_id"`
	NumRides        int       `json:"num_rides"`
	TotalDistanceKm float64   `json:"total_distance_km"`
	BuiltAt         time.Time `json:"built_at"`
}

// DatasetService 数据集服务：构建、发布、定时刷新
type DatasetService struct {
	cfg       *config.Config
	logger    *zap.Logger
	sources   []telemetry.PartitionSource
	machine   *state.Machine
	runs      RunStore
	summaries SummaryStore
	notifier  Notifier

	mu      sync.RWMutex
	dataset *telemetry.Dataset
	lastRun *models.RefreshRun

	lifeMu  sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool

	now func() time.Time
}

// NewDatasetService 创建数据集服务
func NewDatasetService(cfg *config.Config, logger *zap.Logger, sources []telemetry.PartitionSource) *DatasetService {
	svc := &DatasetService{
		cfg:     cfg,
		logger:  logger,
		sources: sources,
		now:     time.Now,
	}
	svc.machine = state.NewMachine(svc.onStateChange)
	return svc
}

// SetStores 启用快照存储
func (s *DatasetService) SetStores(runs RunStore, summaries SummaryStore) {
	s.runs = runs
	s.summaries = summaries
}

// SetNotifier 设置刷新结果推送
func (s *DatasetService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Start 首次加载数据集，REFRESH_INTERVAL > 0 时启动定时刷新。
// 首次加载失败但快照存储中已有汇总时继续运行，由定时刷新重试
func (s *DatasetService) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	if s.running {
		s.lifeMu.Unlock()
		s.logger.Info("Dataset service already running, skipping start")
		return nil
	}
	s.stopCh = make(chan struct{})
	s.running = true
	s.lifeMu.Unlock()

	s.logger.Info("Starting dataset service", zap.Int("partitions", len(s.sources)))

	if _, err := s.refreshWithTimeout(ctx); err != nil {
		stored, serr := s.storedSummaries(ctx)
		if serr != nil {
			s.lifeMu.Lock()
			s.running = false
			s.lifeMu.Unlock()
			return fmt.Errorf("initial refresh: %w", err)
		}
		s.logger.Warn("Initial refresh failed, serving stored ride summaries",
			zap.Int("rides", len(stored)),
			zap.Error(err),
		)
	}

	if s.cfg.RefreshInterval > 0 {
		s.wg.Add(1)
		go s.refreshLoop(ctx)
		s.logger.Info("Periodic refresh enabled", zap.Duration("interval", s.cfg.RefreshInterval))
	}
	return nil
}

// Stop 停止定时刷新
func (s *DatasetService) Stop() {
	s.lifeMu.Lock()
	if !s.running {
		s.lifeMu.Unlock()
		return
	}
	s.running = false
	s.lifeMu.Unlock()

	s.logger.Info("Stopping dataset service")
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Dataset service stopped")
}

func (s *DatasetService) refreshLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if _, err := s.refreshWithTimeout(ctx); err != nil && !errors.Is(err, state.ErrRefreshInProgress) {
				s.logger.Warn("Periodic refresh failed", zap.Error(err))
			}
		}
	}
}

func (s *DatasetService) refreshWithTimeout(ctx context.Context) (*models.RefreshRun, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.Refresh(ctx)
}

func (s *DatasetService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.RefreshTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.RefreshTimeout)
	}
	return context.WithCancel(ctx)
}

// Refresh 重新构建数据集。失败时保留之前发布的数据集；已有刷新进行时返回 state.ErrRefreshInProgress
func (s *DatasetService) Refresh(ctx context.Context) (*models.RefreshRun, error) {
	run, err := s.beginRun(ctx)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, run)
}

// TriggerRefresh 后台刷新，立即返回 run id
func (s *DatasetService) TriggerRefresh() (string, error) {
	run, err := s.beginRun(context.Background())
	if err != nil {
		return "", err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := s.withTimeout(context.Background())
		defer cancel()
		_, _ = s.build(ctx, run)
	}()
	return run.ID, nil
}

func (s *DatasetService) beginRun(ctx context.Context) (*models.RefreshRun, error) {
	runID := uuid.NewString()
	if err := s.machine.Begin(runID); err != nil {
		return nil, err
	}
	s.notifyState()

	run := &models.RefreshRun{
		ID:         runID,
		State:      state.StateLoading,
		StartedAt:  s.now(),
		Partitions: len(s.sources),
	}
	s.saveRun(ctx, run)
	return run, nil
}

func (s *DatasetService) build(ctx context.Context, run *models.RefreshRun) (*models.RefreshRun, error) {
	runID := run.ID
	// 构建超时后仍要写入失败记录
	storeCtx := context.WithoutCancel(ctx)

	start := time.Now()
	ds, err := telemetry.Build(ctx, s.sources, telemetry.Options{
		Mode:    s.cfg.DistanceMode,
		Workers: s.cfg.Workers,
	})
	finished := s.now()
	run.FinishedAt = &finished

	if err != nil {
		msg := err.Error()
		run.State = state.StateFailed
		run.Error = &msg
		s.saveRun(storeCtx, run)
		s.setLastRun(run)

		if ferr := s.machine.Fail(err); ferr != nil {
			s.logger.Error("Failed to record refresh failure", zap.Error(ferr))
		}
		s.notifyState()
		s.logger.Error("Dataset refresh failed",
			zap.String("run_id", runID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		s.notify(ws.MsgTypeRefreshFailed, run)
		return run, fmt.Errorf("build dataset: %w", err)
	}

	overview := ds.Overview()
	run.State = state.StateReady
	run.RideCount = ds.Len()
	run.TotalDistanceKm = overview.TotalDistanceKm

	if s.summaries != nil {
		if err := s.summaries.ReplaceSummaries(storeCtx, runID, ds.Rides()); err != nil {
			s.logger.Error("Failed to save ride summaries", zap.String("run_id", runID), zap.Error(err))
		}
	}
	s.saveRun(storeCtx, run)

	s.mu.Lock()
	s.dataset = ds
	s.lastRun = run
	s.mu.Unlock()

	if err := s.machine.Finish(); err != nil {
		s.logger.Error("Failed to record refresh success", zap.Error(err))
	}
	s.notifyState()
	s.logger.Info("Dataset refreshed",
		zap.String("run_id", runID),
		zap.Int("rides", run.RideCount),
		zap.Float64("distance_km", run.TotalDistanceKm),
		zap.Duration("elapsed", time.Since(start)),
	)
	s.notify(ws.MsgTypeDatasetRefreshed, &RefreshedEvent{
		RunID:           runID,
		NumRides:        run.RideCount,
		TotalDistanceKm: run.TotalDistanceKm,
		BuiltAt:         ds.BuiltAt(),
	})
	return run, nil
}

// Dataset 当前发布的数据集
func (s *DatasetService) Dataset() (*telemetry.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil {
		return nil, ErrNotReady
	}
	return s.dataset, nil
}

// RideSummaries 当前数据集的骑行汇总，尚未加载成功时回退到快照存储
func (s *DatasetService) RideSummaries(ctx context.Context) ([]models.RideSummary, error) {
	if ds, err := s.Dataset(); err == nil {
		return ds.Rides(), nil
	}
	return s.storedSummaries(ctx)
}

// storedSummaries 快照存储中最近一次保存的汇总；没有存储或为空时返回 ErrNotReady
func (s *DatasetService) storedSummaries(ctx context.Context) ([]models.RideSummary, error) {
	if s.summaries == nil {
		return nil, ErrNotReady
	}
	summaries, err := s.summaries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored summaries: %w", err)
	}
	if len(summaries) == 0 {
		return nil, ErrNotReady
	}
	return summaries, nil
}

// Status 获取刷新状态，存储可用时附带最近的刷新记录
func (s *DatasetService) Status(ctx context.Context) *Status {
	st := s.status()
	if s.runs != nil {
		runs, err := s.runs.List(ctx, statusRunLimit)
		if err != nil {
			s.logger.Warn("Failed to list refresh runs", zap.Error(err))
		} else {
			st.Runs = runs
		}
	}
	return st
}

func (s *DatasetService) status() *Status {
	st := &Status{RefreshState: s.machine.GetState()}

	s.mu.RLock()
	if s.dataset != nil {
		builtAt := s.dataset.BuiltAt()
		st.Ready = true
		st.NumRides = s.dataset.Len()
		st.BuiltAt = &builtAt
	}
	st.LastRun = s.lastRun
	s.mu.RUnlock()
	return st
}

// InitData WebSocket 连接时推送的初始数据
func (s *DatasetService) InitData() *ws.InitData {
	data := &ws.InitData{Status: s.status()}
	if ds, err := s.Dataset(); err == nil {
		data.Overview = ds.Overview()
	}
	return data
}

func (s *DatasetService) setLastRun(run *models.RefreshRun) {
	s.mu.Lock()
	s.lastRun = run
	s.mu.Unlock()
}

func (s *DatasetService) saveRun(ctx context.Context, run *models.RefreshRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Save(ctx, run); err != nil {
		s.logger.Error("Failed to save refresh run", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func (s *DatasetService) notify(msgType string, data interface{}) {
	if s.notifier != nil {
		s.notifier.BroadcastMessage(msgType, data)
	}
}

// notifyState 推送当前状态机快照，须在状态机调用返回后执行
func (s *DatasetService) notifyState() {
	s.notify(ws.MsgTypeStateChange, s.machine.GetState())
}

// onStateChange 在状态机锁内调用，只记录日志
func (s *DatasetService) onStateChange(from, to string) {
	s.logger.Info("Refresh state changed", zap.String("from", from), zap.String("to", to))
}
