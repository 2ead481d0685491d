package persist

import "context"

// compensation — стек шагов отмены побочных эффектов (загруженных файлов).
// Шаги выполняются в обратном порядке, один раз.
type compensation struct {
	steps []func(ctx context.Context)
}

func (c *compensation) push(step func(ctx context.Context)) {
	c.steps = append(c.steps, step)
}

// run выполняет шаги отмены. Контекст отвязан от отмены вызывающего:
// очистка завершается даже при отменённой операции.
func (c *compensation) run(ctx context.Context) {
	if c == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for i := len(c.steps) - 1; i >= 0; i-- {
		c.steps[i](ctx)
	}
	c.steps = nil
}
