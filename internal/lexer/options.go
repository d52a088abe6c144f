package lexer

import (
	"prefmacro/internal/diag"
	"prefmacro/internal/source"
)

// maxTokenLength bounds a single token; longer input is reported and skipped.
const maxTokenLength = 64 * 1024

type Options struct {
	Reporter diag.Reporter // nil: ошибки игнорируем, но продолжаем лексить
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter == nil {
		return
	}
	diag.ReportError(lx.opts.Reporter, code, sp, msg).Emit()
}
