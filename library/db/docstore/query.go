package docstore

// Filter is an equality condition on one field.
type Filter struct {
	Field string
	Value any
}

// Query selects documents from a collection.
// The zero value lists every document in the backend's default order.
type Query struct {
	Filters []Filter
	// OrderBy is the field to sort on, empty keeps the store order.
	OrderBy string
	Desc    bool
	// Limit truncates the result, zero means no limit.
	Limit int
}

// Where returns a query with an extra equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

// OrderByDesc returns a query sorted on field in descending order.
func (q Query) OrderByDesc(field string) Query {
	q.OrderBy = field
	q.Desc = true
	return q
}

// WithLimit returns a query truncated to n documents.
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}
