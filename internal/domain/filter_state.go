package domain

// Selector: ya "hepsi" ya da açık bir küme. Sıfır değeri "hepsi" demektir.
type Selector[T comparable] struct {
	set map[T]struct{}
}

// All tüm değerleri kabul eden seçici.
func All[T comparable]() Selector[T] {
	return Selector[T]{}
}

// Only verilen değerlerle sınırlı seçici. Boş liste "hepsi" olarak yorumlanır.
func Only[T comparable](values ...T) Selector[T] {
	if len(values) == 0 {
		return Selector[T]{}
	}
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return Selector[T]{set: set}
}

func (s Selector[T]) IsAll() bool {
	return len(s.set) == 0
}

func (s Selector[T]) Contains(v T) bool {
	if s.IsAll() {
		return true
	}
	_, ok := s.set[v]
	return ok
}

// Values açık kümenin elemanlarını döner (sırasız); "hepsi" için nil.
func (s Selector[T]) Values() []T {
	if s.IsAll() {
		return nil
	}
	out := make([]T, 0, len(s.set))
	for v := range s.set {
		out = append(out, v)
	}
	return out
}

// FilterState: dashboard'un aktif filtresi. Start/End boş ise açık uç.
type FilterState struct {
	Start      string
	End        string
	Locations  Selector[uint]
	Categories Selector[Category]
	OrderTypes Selector[OrderType]
}
