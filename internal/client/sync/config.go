package sync

import (
	"os"
	"time"
)

// Config настраивает синхронизацию
type Config struct {
	ScratchDir     string        // каталог для временных файлов изображений при загрузке
	ProbeTimeout   time.Duration // таймаут проверки доступности сервера
	UploadTimeout  time.Duration // таймаут загрузки одной записи
	RequestTimeout time.Duration // таймаут остальных запросов (списки, удаление)
	Interval       time.Duration // период фоновой синхронизации
}

// DefaultConfig возвращает настройки по умолчанию
func DefaultConfig() Config {
	return Config{
		ScratchDir:     os.TempDir(),
		ProbeTimeout:   3 * time.Second,
		UploadTimeout:  15 * time.Second,
		RequestTimeout: 15 * time.Second,
		Interval:       time.Minute,
	}
}

// withDefaults заполняет нулевые поля значениями по умолчанию
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ScratchDir == "" {
		c.ScratchDir = def.ScratchDir
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = def.ProbeTimeout
	}
	if c.UploadTimeout <= 0 {
		c.UploadTimeout = def.UploadTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	return c
}
