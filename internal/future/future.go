// Пакет future — результат асинхронной операции, выполняемой в отдельной горутине.
package future

import "context"

// Future — отложенный результат операции.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go запускает fn в новой горутине и возвращает её Future.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn()
	}()
	return f
}

// Done закрывается по завершении операции.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait ожидает результат. При отмене ctx возвращает ctx.Err();
// сама операция при этом продолжает выполняться.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result блокирует до завершения операции.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.val, f.err
}
