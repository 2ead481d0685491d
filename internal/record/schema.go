// Пакет record — описание записей: каталог полей, отслеживание
// изменений и валидация перед сохранением.
package record

import "fmt"

// PrimaryKey — имя столбца первичного ключа у всех записей.
const PrimaryKey = "id"

// Kind — вид поля записи.
type Kind int

const (
	// Plain — обычный столбец.
	Plain Kind = iota
	// File — столбец хранит дескриптор файлового артефакта.
	File
)

// Field — описание одного объявленного поля записи.
type Field struct {
	Name string
	// Nullable — поле может быть пустым
	Nullable bool
	// HasDefault — значение по умолчанию задаётся хранилищем
	HasDefault bool
	PrimaryKey bool
	Kind       Kind
	// UploadTo — поддиректория артефактов (только для File)
	UploadTo string
}

// Schema — статическая таблица полей одного типа записей.
// Создаётся один раз на тип и не изменяется.
type Schema struct {
	table  string
	fields []Field
	index  map[string]int
	newFn  func() Record
}

// NewSchema создаёт каталог полей. Первичный ключ id добавляется
// первым полем автоматически. Паникует при дублировании имён —
// каталог объявляется на уровне пакета, ошибка здесь — ошибка программиста.
func NewSchema(table string, newFn func() Record, fields ...Field) *Schema {
	s := &Schema{
		table:  table,
		fields: make([]Field, 0, len(fields)+1),
		index:  make(map[string]int, len(fields)+1),
		newFn:  newFn,
	}
	s.add(Field{Name: PrimaryKey, PrimaryKey: true, HasDefault: true})
	for _, f := range fields {
		if f.Kind == File && f.UploadTo == "" {
			f.UploadTo = table
		}
		s.add(f)
	}
	return s
}

func (s *Schema) add(f Field) {
	if _, ok := s.index[f.Name]; ok {
		panic(fmt.Sprintf("record: поле %q объявлено дважды в %s", f.Name, s.table))
	}
	s.index[f.Name] = len(s.fields)
	s.fields = append(s.fields, f)
}

// Table возвращает имя таблицы.
func (s *Schema) Table() string { return s.table }

// New создаёт пустую запись этого типа.
func (s *Schema) New() Record { return s.newFn() }

// Fields возвращает поля в порядке объявления (первым идёт id).
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field возвращает описание поля по имени.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Columns возвращает имена столбцов без первичного ключа.
func (s *Schema) Columns() []string {
	cols := make([]string, 0, len(s.fields)-1)
	for _, f := range s.fields {
		if !f.PrimaryKey {
			cols = append(cols, f.Name)
		}
	}
	return cols
}

// FileFields возвращает файловые поля в порядке объявления.
func (s *Schema) FileFields() []Field {
	var out []Field
	for _, f := range s.fields {
		if f.Kind == File {
			out = append(out, f)
		}
	}
	return out
}
