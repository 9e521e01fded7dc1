package sync

import "time"

// PushResult итог фазы отправки
type PushResult struct {
	Synced  int // приняты сервером и отмечены
	Failed  int // остались Pending до следующего цикла
	Skipped int // не обработаны из-за отмены
}

// PullResult итог фазы получения
type PullResult struct {
	Fetched int // записей в ответе сервера
}

// ReconcileResult итог обработки очереди удалений
type ReconcileResult struct {
	Deleted int // удалены на сервере, убраны из очереди
	Pending int // совпадение не найдено, остаются в очереди
	Failed  int // ошибка запроса, остаются в очереди
}

// CycleResult итог одного цикла синхронизации
type CycleResult struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Push       *PushResult
	Pull       *PullResult
	Deletions  *ReconcileResult
	ID         string
	SkipReason string // почему цикл не выполнялся (нет сессии, офлайн-сессия, токен истёк)
	Logins     int    // офлайн-входов передано на сервер
	Skipped    bool
	Reachable  bool
}
