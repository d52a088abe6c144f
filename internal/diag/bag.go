package diag

import (
	"fmt"
	"sort"

	"fortio.org/safecast"
)

// Bag collects diagnostics for one unit of work (usually a file) up to a limit.
type Bag struct {
	items []Diagnostic
	max   uint16
}

// NewBag creates a bag holding at most limit diagnostics; values outside
// the uint16 range are clamped.
func NewBag(limit int) *Bag {
	capped, err := safecast.Conv[uint16](limit)
	if err != nil {
		capped = ^uint16(0)
		if limit < 0 {
			capped = 0
		}
	}
	return &Bag{
		items: make([]Diagnostic, 0, min(int(capped), 64)),
		max:   capped,
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если диагностика не добавлена (достигнут лимит).
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= int(b.max) {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Cap() uint16 {
	return b.max
}

// HasErrors возвращает true, если есть хотя бы одна ошибка
func (b *Bag) HasErrors() bool {
	return b.Count(SevError) > 0
}

// HasWarnings возвращает true, если есть хотя бы одно предупреждение; ошибки не считаются
func (b *Bag) HasWarnings() bool {
	return b.Count(SevWarning) > 0
}

// Count returns the number of diagnostics of exactly severity sev.
func (b *Bag) Count(sev Severity) int {
	n := 0
	for i := range b.items {
		if b.items[i].Severity == sev {
			n++
		}
	}
	return n
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice диагностик.
// Не модифицируйте возвращаемый срез: он указывает на внутренний массив Bag.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge объединяет диагностики из другого Bag.
// Увеличивает max, если нужно вместить все элементы.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	newTotal := len(b.items) + len(other.items)
	if newTotal > int(b.max) {
		if capped, err := safecast.Conv[uint16](newTotal); err == nil {
			b.max = capped
		} else {
			b.max = ^uint16(0)
		}
	}
	for _, d := range other.items {
		b.Add(d)
	}
}

// Filter keeps only diagnostics for which keep returns true.
func (b *Bag) Filter(keep func(Diagnostic) bool) {
	out := b.items[:0]
	for _, d := range b.items {
		if keep(d) {
			out = append(out, d)
		}
	}
	b.items = out
}

// Transform rewrites every diagnostic in place.
func (b *Bag) Transform(fn func(Diagnostic) Diagnostic) {
	for i := range b.items {
		b.items[i] = fn(b.items[i])
	}
}

// Sort сортирует диагностики по: file, start, end, severity (desc), code (asc)
// для стабильного и детерминированного порядка вывода.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}

// простая дедупликация (по Code+Primary+Message)
func (b *Bag) Dedup() {
	seen := make(map[string]bool)
	out := make([]Diagnostic, 0, len(b.items))
	for _, d := range b.items {
		key := fmt.Sprintf("%s:%s:%s", d.Code.ID(), d.Primary.String(), d.Message)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	b.items = out
}
