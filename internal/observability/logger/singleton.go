package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu       sync.Mutex
	instance *zap.Logger
)

// Init inicializa el singleton. Llamadas posteriores no tienen efecto.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = build(cfg)
	}
}

// L retorna el singleton, inicializándolo con defaults (dev/info) si hace falta.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = build(Config{})
	}
	return instance
}

// Sync flushea buffers pendientes. Para usar con defer en main.
func Sync() error {
	mu.Lock()
	l := instance
	mu.Unlock()
	if l == nil {
		return nil
	}
	return l.Sync()
}
