// Package pump перекладывает сырые обновления транспорта в доменные события.
// Вынесен из tg отдельно: tg линкуется с libtdjson, а этот код тестируется без него.
package pump

import "github.com/larriantoniy/tg_sales_bot/internal/domain"

// Forward читает in, пока он открыт или пока не закрыт done, и отдаёт в результат то,
// что convert признал событием. Результат закрывается при выходе; после закрытия done
// горутина не ждёт читателя.
func Forward[T any](in <-chan T, done <-chan struct{}, convert func(T) (domain.Message, bool)) <-chan domain.Message {
	out := make(chan domain.Message)

	go func() {
		defer close(out)
		for {
			var (
				upd T
				ok  bool
			)
			select {
			case upd, ok = <-in:
				if !ok {
					return
				}
			case <-done:
				return
			}

			msg, ok := convert(upd)
			if !ok {
				continue
			}
			select {
			case out <- msg:
			case <-done:
				return
			}
		}
	}()

	return out
}
