package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ErrTaskExited - задача завершилась сама, без отмены контекста
var ErrTaskExited = errors.New("task exited unexpectedly")

// Task - долгоживущая задача процесса
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Supervise запускает задачи под одним контекстом. Выход любой задачи,
// с ошибкой или без, отменяет остальные и возвращается как ошибка.
// Отмена родительского ctx - штатная остановка, результат nil.
func Supervise(ctx context.Context, log *slog.Logger, tasks ...Task) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, task := range tasks {
		g.Go(func() error {
			log.Info("task started", "task", task.Name)
			err := task.Run(gctx)

			if gctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled)) {
				log.Info("task stopped", "task", task.Name)
				return nil
			}
			if err == nil {
				err = ErrTaskExited
			}
			log.Error("task failed", "task", task.Name, "error", err)
			return fmt.Errorf("%s: %w", task.Name, err)
		})
	}

	return g.Wait()
}
