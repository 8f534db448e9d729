package questions

// Answers maps question names to typed values in the order the questions
// were answered. The zero value is empty; an Answers is never modified once
// returned by the engine.
type Answers struct {
	names  []string
	values map[string]interface{}
}

// Get returns the answer for name.
func (a Answers) Get(name string) (interface{}, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Names returns the answered question names in answer order.
func (a Answers) Names() []string {
	return append([]string(nil), a.names...)
}

func (a Answers) Len() int {
	return len(a.names)
}

// Map returns a copy of the answers.
func (a Answers) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(a.values))
	for k, v := range a.values {
		m[k] = v
	}
	return m
}

// with returns a copy of a holding one more answer.
func (a Answers) with(name string, value interface{}) Answers {
	next := Answers{
		names:  append(a.Names(), name),
		values: a.Map(),
	}
	next.values[name] = value
	return next
}

// NewAnswers builds Answers from ordered name/value pairs.
func NewAnswers(pairs ...interface{}) Answers {
	a := Answers{}
	for i := 0; i+1 < len(pairs); i += 2 {
		a = a.with(pairs[i].(string), pairs[i+1])
	}
	return a
}
