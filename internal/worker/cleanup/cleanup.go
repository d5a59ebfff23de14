// Package cleanup はセッションとカートの自動削除ジョブを提供する。
// 期限切れセッションと、保持期間を超えて更新のない空カートを
// 定期バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionCleaner は期限切れセッションの一括削除を抽象化するインターフェース。
type SessionCleaner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CartCleaner は放置された空カートの一括削除を抽象化するインターフェース。
type CartCleaner interface {
	DeleteStaleEmpty(ctx context.Context, olderThan time.Time) (int64, error)
}

// CleanupJob は期限切れセッションと空カートの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	sessions SessionCleaner
	carts    CartCleaner
	logger   *slog.Logger

	// CartRetention は更新のない空カートの保持期間（デフォルト: 90日）。
	CartRetention time.Duration
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(sessions SessionCleaner, carts CartCleaner, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessions:      sessions,
		carts:         carts,
		logger:        logger,
		CartRetention: 90 * 24 * time.Hour,
	}
}

// Run は期限切れセッションと保持期間を超えた空カートを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
// セッション削除が失敗してもカート削除は試行し、最初のエラーを返す。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	var firstErr error

	deletedSessions, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		firstErr = fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}

	deletedCarts, err := j.carts.DeleteStaleEmpty(ctx, time.Now().Add(-j.CartRetention))
	if err != nil {
		j.logger.Error("空カートの削除に失敗しました",
			slog.String("error", err.Error()),
			slog.Duration("cart_retention", j.CartRetention),
		)
		if firstErr == nil {
			firstErr = fmt.Errorf("空カートの削除に失敗: %w", err)
		}
	}

	if firstErr != nil {
		return firstErr
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("deleted_sessions", deletedSessions),
		slog.Int64("deleted_carts", deletedCarts),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
