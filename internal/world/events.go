package world

// MutationKind определяет тип изменения вокселя
type MutationKind uint8

const (
	MutationPlace   MutationKind = iota // Установка твёрдого вокселя
	MutationDestroy                     // Удаление вокселя
)

func (k MutationKind) String() string {
	switch k {
	case MutationPlace:
		return "place"
	case MutationDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// Mutation описывает отложенное изменение, принятое во время полного пересчёта
type Mutation struct {
	Kind    MutationKind
	X, Y, Z int
	Color   int32
}

// TickResult содержит итог одного тика
type TickResult struct {
	Tick       uint64
	FullUpload bool   // в этом тике выполнена полная загрузка
	Mutations  int    // изменённые воксели, ушедшие в ремонт
	Repaired   int    // индексы, значение которых могло измениться
	Spans      []Span // диапазоны, отправленные рендереру
}
