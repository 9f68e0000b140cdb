// Package archive persists backtest results to Postgres so runs can be
// compared across machines and over time.
package archive

import (
	"errors"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"polysim/internal/backtest"
)

// RunRecord is one archived backtest run
type RunRecord struct {
	RunID    string `gorm:"primaryKey"`
	Strategy string `gorm:"index;not null"`
	Markets  string `gorm:"not null"` // comma separated

	StartTime time.Time
	EndTime   time.Time

	InitialCapital float64 `gorm:"type:decimal(20,8);not null"`
	FinalEquity    float64 `gorm:"type:decimal(20,8);not null"`
	TotalReturn    float64 `gorm:"type:decimal(20,8)"`
	CAGR           float64 `gorm:"type:decimal(20,8)"`

	TotalTrades int
	WinRate     float64 `gorm:"type:decimal(20,8)"`

	SharpeRatio      float64 `gorm:"type:decimal(20,8)"`
	SortinoRatio     float64 `gorm:"type:decimal(20,8)"`
	SortinoUnbounded bool
	MaxDrawdownPct   float64 `gorm:"type:decimal(20,8)"`
	UlcerIndex       float64 `gorm:"type:decimal(20,8)"`

	FramesProcessed int
	FinishedAt      time.Time `gorm:"index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TradeRecord is one archived trade of a run
type TradeRecord struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"index;not null"`
	MarketID string `gorm:"index;not null"`
	Side     string `gorm:"not null"`

	Size       float64 `gorm:"type:decimal(20,8);not null"`
	EntryPrice float64 `gorm:"type:decimal(20,8);not null"`
	ExitPrice  float64 `gorm:"type:decimal(20,8);not null"`
	EntryTime  time.Time
	ExitTime   time.Time

	PnL        float64 `gorm:"type:decimal(20,8)"`
	Fees       float64 `gorm:"type:decimal(20,8)"`
	ExitReason string  `gorm:"not null"`
}

// Archive wraps the Postgres connection
type Archive struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the archive tables
func Open(dsn string) (*Archive, error) {
	if dsn == "" {
		return nil, errors.New("archive requires a DSN")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&RunRecord{}, &TradeRecord{}); err != nil {
		return nil, err
	}
	return &Archive{db: db}, nil
}

// SaveResult archives a run and its trades
func (a *Archive) SaveResult(res *backtest.Result) error {
	if res == nil {
		return errors.New("result cannot be nil")
	}

	run := RunRecord{
		RunID:            res.RunID,
		Strategy:         res.Config.Strategy,
		Markets:          strings.Join(res.Config.Markets, ","),
		StartTime:        res.Config.StartTime,
		EndTime:          res.Config.EndTime,
		InitialCapital:   res.Summary.InitialCapital,
		FinalEquity:      res.Summary.FinalEquity,
		TotalReturn:      res.Metrics.TotalReturn,
		CAGR:             res.Metrics.CAGR,
		TotalTrades:      res.Summary.TotalTrades,
		WinRate:          res.Summary.WinRate,
		SharpeRatio:      res.Metrics.SharpeRatio,
		SortinoRatio:     res.Metrics.SortinoRatio.Value,
		SortinoUnbounded: res.Metrics.SortinoRatio.Unbounded,
		MaxDrawdownPct:   res.Metrics.MaxDrawdownPct,
		UlcerIndex:       res.Metrics.UlcerIndex,
		FramesProcessed:  res.FramesProcessed,
		FinishedAt:       res.FinishedAt,
	}
	if err := a.db.Create(&run).Error; err != nil {
		return err
	}

	if len(res.Trades) == 0 {
		return nil
	}
	records := make([]TradeRecord, 0, len(res.Trades))
	for _, trade := range res.Trades {
		records = append(records, TradeRecord{
			RunID:      res.RunID,
			MarketID:   trade.MarketID,
			Side:       string(trade.Side),
			Size:       trade.Size,
			EntryPrice: trade.EntryPrice,
			ExitPrice:  trade.ExitPrice,
			EntryTime:  trade.EntryTime,
			ExitTime:   trade.ExitTime,
			PnL:        trade.PnL,
			Fees:       trade.Fees,
			ExitReason: string(trade.ExitReason),
		})
	}
	return a.db.Create(&records).Error
}

// Runs lists archived runs, most recent first
func (a *Archive) Runs(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []RunRecord
	err := a.db.Order("finished_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// TradesForRun lists the archived trades of one run
func (a *Archive) TradesForRun(runID string) ([]TradeRecord, error) {
	if runID == "" {
		return nil, errors.New("invalid run id")
	}
	var trades []TradeRecord
	err := a.db.Where("run_id = ?", runID).Order("exit_time ASC").Find(&trades).Error
	return trades, err
}
