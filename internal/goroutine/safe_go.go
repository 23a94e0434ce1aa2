package goroutine

import (
	"runtime/debug"

	"github.com/tradeclub/escrow-backend/internal/logger"
)

// SafeGo запускает горутину с обработкой panic. Упавший websocket-пуш или
// фоновая запись уведомления не должны ронять весь процесс.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.L().Errorf("panic в горутине: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}
