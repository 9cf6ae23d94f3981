package model

// CustomerNameMaxLen is the longest customer name the store accepts.
const CustomerNameMaxLen = 500

// Customer owns posts.
type Customer struct {
	ID   int64
	Name string
}

// DiffFields implements Diffable.
func (c Customer) DiffFields(incoming Customer) []string {
	var fields []string
	if c.ID != incoming.ID {
		fields = append(fields, "id")
	}
	if c.Name != incoming.Name {
		fields = append(fields, "name")
	}
	return fields
}
