// Package logger: асинхронный логгер с префиксом сервиса. Запись идёт через буферизованный канал,
// поэтому обработчики запросов не ждут вывода. Уровень задаётся из конфигурации (log_level).
package logger

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

const asyncBufferSize = 8192

// slowThreshold: на уровне info логируются только вызовы дольше этого порога.
const slowThreshold = 100 * time.Millisecond

type level int

const (
	levelDebug level = iota
	levelInfo
	levelError
)

var (
	mu       sync.RWMutex
	prefix   string
	logLevel = levelInfo

	ch      chan string
	done    chan struct{}
	once    sync.Once
	closeMu sync.Once

	// sendMu защищает ch от отправки после закрытия в Flush.
	sendMu sync.RWMutex
	closed bool
)

func startWorker() {
	ch = make(chan string, asyncBufferSize)
	done = make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ch {
			log.Print(msg)
		}
	}()
}

func enqueue(msg string) {
	once.Do(startWorker)
	sendMu.RLock()
	defer sendMu.RUnlock()
	if closed {
		return
	}
	select {
	case ch <- msg:
	default:
		// буфер полон — сообщение теряется, запрос не блокируем
	}
}

// SetPrefix задаёт префикс всех последующих сообщений (например "auth").
func SetPrefix(p string) {
	mu.Lock()
	prefix = p
	mu.Unlock()
}

// SetLevel принимает debug|trace|info|error; неизвестное значение = info.
func SetLevel(lvl string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug", "trace":
		logLevel = levelDebug
	case "error":
		logLevel = levelError
	default:
		logLevel = levelInfo
	}
}

func enabled(l level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= logLevel
}

func tag() string {
	mu.RLock()
	defer mu.RUnlock()
	if prefix == "" {
		return ""
	}
	return "[" + prefix + "] "
}

func Debugf(format string, v ...any) {
	if enabled(levelDebug) {
		enqueue(tag() + "DEBUG: " + fmt.Sprintf(format, v...))
	}
}

func Info(v ...any) {
	if enabled(levelInfo) {
		enqueue(tag() + fmt.Sprint(v...))
	}
}

func Infof(format string, v ...any) {
	if enabled(levelInfo) {
		enqueue(tag() + fmt.Sprintf(format, v...))
	}
}

func Error(v ...any) {
	enqueue(tag() + "ERROR: " + fmt.Sprint(v...))
}

func Errorf(format string, v ...any) {
	enqueue(tag() + "ERROR: " + fmt.Sprintf(format, v...))
}

// LogDuration пишет имя операции и длительность в мс. На уровне debug — все вызовы,
// иначе только медленные (>= slowThreshold).
func LogDuration(fn string, start time.Time) {
	elapsed := time.Since(start)
	if enabled(levelDebug) || elapsed >= slowThreshold {
		enqueue(fmt.Sprintf("%sfn=%s duration_ms=%d", tag(), fn, elapsed.Milliseconds()))
	}
}

// DeferLogDuration: defer logger.DeferLogDuration("session.Create", time.Now())().
func DeferLogDuration(fn string, start time.Time) func() {
	return func() { LogDuration(fn, start) }
}

// Flush закрывает очередь и ждёт, пока воркер допишет сообщения (не дольше timeout).
// Вызывается один раз при остановке процесса; после Flush логи больше не пишутся.
func Flush(timeout time.Duration) {
	once.Do(startWorker)
	closeMu.Do(func() {
		sendMu.Lock()
		closed = true
		close(ch)
		sendMu.Unlock()
		select {
		case <-done:
		case <-time.After(timeout):
		}
	})
}

// MaskToken оставляет первые 6 символов токена — полные токены в лог не попадают.
func MaskToken(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 6 {
		return "****"
	}
	return s[:6] + "***"
}
